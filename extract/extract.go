// Package extract turns raw text pulled from the host EMR's DOM into
// structured patient and visit values. Every function here is pure: a
// missing value is expressed as an empty string, never a raised failure,
// because the host page's state is unpredictable and absence is the
// common case.
package extract

// Patient is a transient extraction result, constructed once per detection
// event and discarded after hand-off.
type Patient struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	NickName  string `json:"nickName,omitempty"`
}

// Visit pairs a best-effort patient extraction with the reconstructed visit
// datetime. VisitDateTime is a local ISO-8601 string, empty when no
// date/time could be reconstructed from the page.
type Visit struct {
	Patient       Patient `json:"patient"`
	VisitDateTime string  `json:"visitDateTime,omitempty"`
}
