// Package relay carries detected-entity events from the page context to the
// consuming application. The observing side cannot persist anything and the
// coordinator cannot see the page's DOM, so a detection makes two hops:
// the in-page observer signals the coordinator, and the coordinator
// re-enters the page context through an Extractor to pull the structured
// entity before broadcasting it to the registered application surfaces.
//
// Every hop ends in exactly one Ack; the boundary never leaves a caller
// waiting indefinitely.
package relay

import "github.com/parable-health/emrbridge/extract"

// Type discriminates relay envelopes.
type Type string

const (
	TypePatientDetected Type = "patient-page-detected"
	TypeVisitDetected   Type = "visit-page-detected"
	TypePatientReady    Type = "patient-ready-for-import"
	TypeVisitReady      Type = "visit-ready-for-import"
)

// Envelope is the message exchanged across execution-context boundaries.
// Not persisted; it exists only for the duration of one round trip.
// Patient and Visit are populated on the ready-for-import types.
type Envelope struct {
	Type      Type             `json:"type"`
	PatientID string           `json:"patientId,omitempty"`
	VisitID   string           `json:"visitId,omitempty"`
	URL       string           `json:"url"`
	TabID     string           `json:"tabId,omitempty"`
	Patient   *extract.Patient `json:"patient,omitempty"`
	Visit     *extract.Visit   `json:"visit,omitempty"`
}

// Ack closes one relay hop.
type Ack struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
