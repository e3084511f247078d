package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/parable-health/emrbridge/extract"
	"github.com/parable-health/emrbridge/relay"
)

type fakeMaterializer struct {
	patients []PatientUpsert
	visits   []VisitUpsert
}

func (f *fakeMaterializer) UpsertPatient(_ context.Context, p PatientUpsert) (PatientRecord, error) {
	f.patients = append(f.patients, p)
	return PatientRecord{ID: "rec-" + p.ExternalID, TenantID: p.TenantID, ExternalID: p.ExternalID}, nil
}

func (f *fakeMaterializer) UpsertVisit(_ context.Context, v VisitUpsert) (VisitRecord, error) {
	f.visits = append(f.visits, v)
	return VisitRecord{ID: "vrec-" + v.ExternalID, TenantID: v.TenantID, ExternalID: v.ExternalID}, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandlePatientEnvelope(t *testing.T) {
	fm := &fakeMaterializer{}
	imp := New(fm, nil, discard())

	ctx := WithTenant(context.Background(), "clinic-1")
	err := imp.Handle(ctx, relay.Envelope{
		Type:      relay.TypePatientReady,
		PatientID: "pat-1",
		URL:       "https://emr.example/patients/pat-1",
		Patient:   &extract.Patient{FirstName: "Danny", LastName: "Boyer", NickName: "Dboy"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(fm.patients) != 1 {
		t.Fatalf("patients = %d, want 1", len(fm.patients))
	}
	p := fm.patients[0]
	if p.TenantID != "clinic-1" || p.ExternalID != "pat-1" || p.NickName != "Dboy" {
		t.Errorf("upsert = %+v", p)
	}
}

func TestHandleVisitMaterializesPatientFirst(t *testing.T) {
	fm := &fakeMaterializer{}
	imp := New(fm, nil, discard())

	ctx := WithTenant(context.Background(), "clinic-1")
	err := imp.Handle(ctx, relay.Envelope{
		Type:      relay.TypeVisitReady,
		VisitID:   "vis-9",
		PatientID: "pat-2",
		Visit: &extract.Visit{
			Patient:       extract.Patient{FirstName: "Maria", LastName: "Gonzalez"},
			VisitDateTime: "2024-03-15T07:00:00",
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(fm.patients) != 1 || len(fm.visits) != 1 {
		t.Fatalf("patients=%d visits=%d, want 1/1", len(fm.patients), len(fm.visits))
	}
	v := fm.visits[0]
	if v.PatientID != "rec-pat-2" {
		t.Errorf("visit references %q, want materialized record rec-pat-2", v.PatientID)
	}
	if v.StartsAt != "2024-03-15T07:00:00" {
		t.Errorf("startsAt = %q", v.StartsAt)
	}
}

func TestHandleRejectsWithoutTenant(t *testing.T) {
	fm := &fakeMaterializer{}
	imp := New(fm, nil, discard())

	err := imp.Handle(context.Background(), relay.Envelope{
		Type:    relay.TypePatientReady,
		Patient: &extract.Patient{FirstName: "Sam"},
	})
	if err == nil {
		t.Fatal("expected error without tenant scope")
	}
	if len(fm.patients) != 0 {
		t.Errorf("materializer called despite missing tenant")
	}
}

func TestHandleFallbackTenantSource(t *testing.T) {
	fm := &fakeMaterializer{}
	imp := New(fm, func() (string, bool) { return "clinic-default", true }, discard())

	err := imp.Handle(context.Background(), relay.Envelope{
		Type:      relay.TypePatientReady,
		PatientID: "pat-3",
		Patient:   &extract.Patient{FirstName: "Sam"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if fm.patients[0].TenantID != "clinic-default" {
		t.Errorf("tenant = %q", fm.patients[0].TenantID)
	}
}

func TestRoutesImportEndpoint(t *testing.T) {
	fm := &fakeMaterializer{}
	imp := New(fm, nil, discard())
	srv := httptest.NewServer(Routes(imp, discard()))
	defer srv.Close()

	env := relay.Envelope{
		Type:      relay.TypePatientReady,
		PatientID: "pat-1",
		Patient:   &extract.Patient{FirstName: "Danny", LastName: "Boyer"},
	}
	body, _ := json.Marshal(env)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/emr/import", bytes.NewReader(body))
	req.Header.Set("X-Tenant-ID", "clinic-7")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var ack relay.Ack
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatal(err)
	}
	if !ack.Success {
		t.Errorf("ack = %+v", ack)
	}
	if fm.patients[0].TenantID != "clinic-7" {
		t.Errorf("tenant = %q, want header value", fm.patients[0].TenantID)
	}
}

func TestRoutesRejectsMalformedBody(t *testing.T) {
	imp := New(&fakeMaterializer{}, nil, discard())
	srv := httptest.NewServer(Routes(imp, discard()))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/emr/import", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHTTPMaterializerUpserts(t *testing.T) {
	var gotPath string
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		var p PatientUpsert
		json.NewDecoder(r.Body).Decode(&p)
		json.NewEncoder(w).Encode(PatientRecord{ID: "rec-1", TenantID: p.TenantID, ExternalID: p.ExternalID})
	}))
	defer srv.Close()

	m := NewHTTPMaterializer(srv.URL, WithBearerToken("sekrit"))
	rec, err := m.UpsertPatient(context.Background(), PatientUpsert{TenantID: "clinic-1", ExternalID: "pat-1"})
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "/patients" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer sekrit" {
		t.Errorf("auth = %q", gotAuth)
	}
	if rec.ID != "rec-1" || rec.ExternalID != "pat-1" {
		t.Errorf("record = %+v", rec)
	}
}

func TestHTTPMaterializerSurfacesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	m := NewHTTPMaterializer(srv.URL)
	_, err := m.UpsertVisit(context.Background(), VisitUpsert{ExternalID: "vis-1"})
	if err == nil {
		t.Fatal("expected error on 403")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("err = %v", err)
	}
}
