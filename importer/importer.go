package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/parable-health/emrbridge/relay"
)

// Importer routes ready-for-import envelopes to a Materializer. Tenant
// scope comes from the context when present, otherwise from the configured
// fallback source; an envelope with no resolvable tenant is rejected.
type Importer struct {
	m       Materializer
	tenants relay.TenantSource
	logger  *slog.Logger
}

// New creates an Importer. tenants may be nil if every context passed to
// Handle already carries a tenant.
func New(m Materializer, tenants relay.TenantSource, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{m: m, tenants: tenants, logger: logger}
}

// Handle materializes one envelope. Visit envelopes materialize the nested
// patient first so the visit can reference its record.
func (i *Importer) Handle(ctx context.Context, env relay.Envelope) error {
	tenantID, ok := TenantFrom(ctx)
	if !ok && i.tenants != nil {
		tenantID, ok = i.tenants()
	}
	if !ok {
		return fmt.Errorf("importer: envelope %s: no tenant in scope", env.Type)
	}

	switch env.Type {
	case relay.TypePatientReady:
		if env.Patient == nil {
			return fmt.Errorf("importer: envelope %s: missing patient payload", env.Type)
		}
		rec, err := i.m.UpsertPatient(ctx, PatientUpsert{
			TenantID:   tenantID,
			ExternalID: env.PatientID,
			FirstName:  env.Patient.FirstName,
			LastName:   env.Patient.LastName,
			NickName:   env.Patient.NickName,
			SourceURL:  env.URL,
		})
		if err != nil {
			return err
		}
		i.logger.Info("importer: patient materialized", "tenant", tenantID, "external_id", env.PatientID, "record_id", rec.ID)
		return nil

	case relay.TypeVisitReady:
		if env.Visit == nil {
			return fmt.Errorf("importer: envelope %s: missing visit payload", env.Type)
		}
		patientRec, err := i.m.UpsertPatient(ctx, PatientUpsert{
			TenantID:   tenantID,
			ExternalID: env.PatientID,
			FirstName:  env.Visit.Patient.FirstName,
			LastName:   env.Visit.Patient.LastName,
			NickName:   env.Visit.Patient.NickName,
			SourceURL:  env.URL,
		})
		if err != nil {
			return err
		}
		visitRec, err := i.m.UpsertVisit(ctx, VisitUpsert{
			TenantID:   tenantID,
			ExternalID: env.VisitID,
			PatientID:  patientRec.ID,
			StartsAt:   env.Visit.VisitDateTime,
			SourceURL:  env.URL,
		})
		if err != nil {
			return err
		}
		i.logger.Info("importer: visit materialized", "tenant", tenantID, "external_id", env.VisitID, "record_id", visitRec.ID)
		return nil

	default:
		return fmt.Errorf("importer: unhandled envelope type %q", env.Type)
	}
}

// Surface adapts the importer into an in-process relay surface.
func (i *Importer) Surface() relay.Surface {
	return relay.NewCallback(i.Handle)
}
