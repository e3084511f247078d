package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/parable-health/emrbridge/extract"
)

// Extractor re-enters the page's execution context to pull a structured
// entity. Implementations inject a self-contained script carrying the
// entity identifier as its argument; the coordinator itself has no DOM
// access. A nil entity with a nil error is treated as an empty result and
// reported as a hop failure.
type Extractor interface {
	ExtractPatient(ctx context.Context, patientID string) (*extract.Patient, error)
	ExtractVisit(ctx context.Context, visitID string) (*extract.Visit, error)
}

// TenantSource yields the clinic scoping all imports. ok false aborts a
// detection before any DOM work is attempted.
type TenantSource func() (tenantID string, ok bool)

// NoticeFunc shows a non-blocking informational notice in the host page.
// Called on successful hand-off only.
type NoticeFunc func(ctx context.Context, message string)

// Coordinator is the privileged middle hop of the relay. It accepts
// detections from the navigation observer, checks the tenant precondition
// synchronously, writes the best-effort breadcrumb, then runs the
// extraction round trip and the ready-for-import broadcast asynchronously.
type Coordinator struct {
	extractor Extractor
	tenants   TenantSource
	crumbs    *BreadcrumbStore
	router    *Router
	notice    NoticeFunc
	tabID     string
	logger    *slog.Logger

	// wg tracks in-flight extraction round trips so Stop can drain them.
	wg sync.WaitGroup
}

// CoordinatorConfig configures a Coordinator. Crumbs and Notice may be nil.
type CoordinatorConfig struct {
	Extractor Extractor
	Tenants   TenantSource
	Crumbs    *BreadcrumbStore
	Router    *Router
	Notice    NoticeFunc
	TabID     string
	Logger    *slog.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Coordinator{
		extractor: cfg.Extractor,
		tenants:   cfg.Tenants,
		crumbs:    cfg.Crumbs,
		router:    cfg.Router,
		notice:    cfg.Notice,
		tabID:     cfg.TabID,
		logger:    cfg.Logger,
	}
}

// PatientDetected handles a patient-page-detected event. The returned Ack
// reports acceptance of the detection: a no-tenant precondition failure is
// surfaced here, before any extraction work, so the observer leaves its
// dedup tracker untouched and the next qualifying navigation retries.
func (c *Coordinator) PatientDetected(ctx context.Context, patientID, pageURL string) Ack {
	if _, ok := c.tenants(); !ok {
		c.logger.Warn("relay: patient detection without tenant context", "patient_id", patientID)
		return Ack{Success: false, Error: "no tenant context registered"}
	}

	c.writeCrumb(ctx, KeyLastPatient, Snapshot{
		PatientID: patientID,
		URL:       pageURL,
		TabID:     c.tabID,
		Timestamp: time.Now().UnixMilli(),
	})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.importPatient(ctx, patientID, pageURL)
	}()

	return Ack{Success: true}
}

// VisitDetected handles a visit-page-detected event. Same contract as
// PatientDetected.
func (c *Coordinator) VisitDetected(ctx context.Context, visitID, patientID, pageURL string) Ack {
	if _, ok := c.tenants(); !ok {
		c.logger.Warn("relay: visit detection without tenant context", "visit_id", visitID)
		return Ack{Success: false, Error: "no tenant context registered"}
	}

	c.writeCrumb(ctx, KeyLastVisit, Snapshot{
		PatientID: patientID,
		VisitID:   visitID,
		URL:       pageURL,
		TabID:     c.tabID,
		Timestamp: time.Now().UnixMilli(),
	})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.importVisit(ctx, visitID, patientID, pageURL)
	}()

	return Ack{Success: true}
}

// Drain blocks until all in-flight extraction round trips have completed.
func (c *Coordinator) Drain() {
	c.wg.Wait()
}

func (c *Coordinator) importPatient(ctx context.Context, patientID, pageURL string) {
	patient, err := c.extractor.ExtractPatient(ctx, patientID)
	if err == nil && patient == nil {
		err = fmt.Errorf("relay: patient %s: extraction returned no result", patientID)
	}
	if err != nil {
		// Hop failure: logged, never retried here. The user re-navigating
		// is the recovery path.
		c.logger.Error("relay: patient extraction failed", "patient_id", patientID, "error", err)
		return
	}

	env := Envelope{
		Type:      TypePatientReady,
		PatientID: patientID,
		URL:       pageURL,
		TabID:     c.tabID,
		Patient:   patient,
	}
	if err := c.router.Deliver(ctx, env); err != nil {
		c.logger.Error("relay: patient broadcast failed", "patient_id", patientID, "error", err)
		return
	}

	c.logger.Info("relay: patient handed off", "patient_id", patientID)
	if c.notice != nil {
		c.notice(ctx, "Patient detected and queued for import")
	}
}

func (c *Coordinator) importVisit(ctx context.Context, visitID, patientID, pageURL string) {
	visit, err := c.extractor.ExtractVisit(ctx, visitID)
	if err == nil && visit == nil {
		err = fmt.Errorf("relay: visit %s: extraction returned no result", visitID)
	}
	if err != nil {
		c.logger.Error("relay: visit extraction failed", "visit_id", visitID, "error", err)
		return
	}

	env := Envelope{
		Type:      TypeVisitReady,
		VisitID:   visitID,
		PatientID: patientID,
		URL:       pageURL,
		TabID:     c.tabID,
		Visit:     visit,
	}
	if err := c.router.Deliver(ctx, env); err != nil {
		c.logger.Error("relay: visit broadcast failed", "visit_id", visitID, "error", err)
		return
	}

	c.logger.Info("relay: visit handed off", "visit_id", visitID)
	if c.notice != nil {
		c.notice(ctx, "Visit detected and queued for import")
	}
}

func (c *Coordinator) writeCrumb(ctx context.Context, key string, snap Snapshot) {
	if c.crumbs == nil {
		return
	}
	if err := c.crumbs.Put(ctx, key, snap); err != nil {
		c.logger.Warn("relay: breadcrumb write failed", "key", key, "error", err)
	}
}
