package observer

import "sync"

// tracker remembers the last patient or visit handed off so that the
// mutation-driven re-checks of an unchanged page stay silent. At most one
// entry is set at a time: committing a patient clears the visit entry and
// vice versa, and classifying a page that is neither clears both, so
// returning to an entity after leaving its context re-detects it. Entries
// are committed only after the relay accepts a detection; a rejected
// detection leaves the tracker untouched and the next qualifying
// navigation retries.
type tracker struct {
	mu            sync.Mutex
	lastPatientID string
	lastVisitID   string
}

func (t *tracker) newPatient(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return id != "" && id != t.lastPatientID
}

func (t *tracker) commitPatient(id string) {
	t.mu.Lock()
	t.lastPatientID = id
	t.lastVisitID = ""
	t.mu.Unlock()
}

func (t *tracker) newVisit(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return id != "" && id != t.lastVisitID
}

func (t *tracker) commitVisit(id string) {
	t.mu.Lock()
	t.lastVisitID = id
	t.lastPatientID = ""
	t.mu.Unlock()
}

// clear forgets both entries: the page shows neither a patient nor a
// visit, or the tab was replaced.
func (t *tracker) clear() {
	t.mu.Lock()
	t.lastPatientID = ""
	t.lastVisitID = ""
	t.mu.Unlock()
}
