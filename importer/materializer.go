// Package importer consumes ready-for-import broadcasts and materializes
// them as clinic-scoped records through a Materializer. Identity resolution
// (does this EMR patient already exist here) belongs to the Materializer
// implementation; the importer only guarantees ordering, where a visit's
// patient is materialized before the visit that references it.
package importer

import "context"

// PatientUpsert is the payload for materializing a patient. ExternalID is
// the EMR's own identifier; together with TenantID it forms the idempotency
// key, so re-importing the same patient updates rather than duplicates.
type PatientUpsert struct {
	TenantID   string `json:"tenantId"`
	ExternalID string `json:"externalId"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	NickName   string `json:"nickName,omitempty"`
	SourceURL  string `json:"sourceUrl,omitempty"`
}

// PatientRecord is the materialized patient. ID is the consuming
// application's own record identifier, distinct from the EMR's.
type PatientRecord struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenantId"`
	ExternalID string `json:"externalId"`
}

// VisitUpsert is the payload for materializing a visit. PatientID refers to
// the consuming application's patient record, not the EMR's identifier.
// StartsAt is a zone-less local wall-clock time and may be empty when the
// page carried no usable schedule information.
type VisitUpsert struct {
	TenantID   string `json:"tenantId"`
	ExternalID string `json:"externalId"`
	PatientID  string `json:"patientId"`
	StartsAt   string `json:"startsAt,omitempty"`
	SourceURL  string `json:"sourceUrl,omitempty"`
}

// VisitRecord is the materialized visit.
type VisitRecord struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenantId"`
	ExternalID string `json:"externalId"`
}

// Materializer persists extracted entities into the consuming application.
// Both operations are upserts keyed on (TenantID, ExternalID).
type Materializer interface {
	UpsertPatient(ctx context.Context, p PatientUpsert) (PatientRecord, error)
	UpsertVisit(ctx context.Context, v VisitUpsert) (VisitRecord, error)
}
