// Package emrpage classifies URLs of the host EMR single-page application
// into semantic page types and pulls out the identifiers embedded in them.
//
// Classification is pure and synchronous. Routing in the observed host is
// encoded entirely in the URL, so the DOM is never consulted here.
package emrpage

import (
	"net/url"
	"regexp"
	"strings"
)

// PageType identifies which semantic page of the host EMR is active.
type PageType string

const (
	Unknown        PageType = "unknown"
	PatientList    PageType = "patient_list"
	PatientProfile PageType = "patient_profile"
	Visit          PageType = "visit"
	Schedule       PageType = "schedule"
	Documentation  PageType = "documentation"
)

// DetectedPage is the result of classifying one URL. It is transient:
// created fresh on every navigation event and superseded by the next one.
// PatientID is set for PatientProfile pages; Visit pages carry both the
// VisitID and the owning PatientID from the on-deck query string.
type DetectedPage struct {
	PageType  PageType `json:"page_type"`
	URL       string   `json:"url"`
	PatientID string   `json:"patient_id,omitempty"`
	VisitID   string   `json:"visit_id,omitempty"`
}

// hostPatterns are the domains the host EMR is served from. A URL matching
// none of them is never classified.
var hostPatterns = []string{"promptemr.com", "prompt-ehr.com"}

// IsHostURL reports whether a URL belongs to the observed EMR host.
func IsHostURL(raw string) bool {
	for _, h := range hostPatterns {
		if strings.Contains(raw, h) {
			return true
		}
	}
	return false
}

// Canonical UUID (8-4-4-4-12 hex) immediately after /patients/.
var patientPathRe = regexp.MustCompile(`(?i)/patients/([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})(?:[/?#]|$)`)

// Classify determines which semantic page a URL shows. Unknown is the
// normal steady state while the user is elsewhere in the host application,
// not a failure.
func Classify(raw string) DetectedPage {
	page := DetectedPage{PageType: Unknown, URL: raw}

	// The on-deck visit route wins over everything else, even when a
	// patient UUID also appears somewhere in the same URL.
	if visitID, patientID, ok := visitInfo(raw); ok {
		page.PageType = Visit
		page.VisitID = visitID
		page.PatientID = patientID
		return page
	}

	if m := patientPathRe.FindStringSubmatch(raw); m != nil {
		page.PageType = PatientProfile
		page.PatientID = m[1]
		return page
	}

	path := pathOf(raw)
	switch {
	case hasSegment(path, "patients"):
		page.PageType = PatientList
	case hasSegment(path, "schedule"):
		page.PageType = Schedule
	case hasSegment(path, "documentation"), hasSegment(path, "notes"):
		page.PageType = Documentation
	}
	return page
}

// hasSegment reports whether path contains seg as a whole path segment, so
// /patients matches but /patients-archive does not.
func hasSegment(path, seg string) bool {
	for _, p := range strings.Split(path, "/") {
		if p == seg {
			return true
		}
	}
	return false
}

// visitInfo extracts the visit and patient ids from an on-deck URL of the
// form /onDeck?tab=upcoming&visitId=xxx&patientId=yyy. Both query parameters
// must be present.
func visitInfo(raw string) (visitID, patientID string, ok bool) {
	if !strings.Contains(raw, "/onDeck") {
		return "", "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", false
	}
	q := u.Query()
	visitID, patientID = q.Get("visitId"), q.Get("patientId")
	if visitID == "" || patientID == "" {
		return "", "", false
	}
	return visitID, patientID, true
}

func pathOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}
