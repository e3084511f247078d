package scrape

import (
	"testing"
	"time"
)

const panelFragment = `
<div class="patient-info">
  <div class="patient-info-row">
    <span class="info-label">Name</span>
    <span class="info-value">Daniel Boyer</span>
  </div>
  <div class="patient-info-row">
    <span class="info-label">Name Preference</span>
    <span class="info-value">Dboy</span>
  </div>
  <div class="patient-info-row">
    <span class="info-label">Phone</span>
    <span class="info-value">-</span>
  </div>
</div>`

func TestAssemblePatient_PanelOverridesHeader(t *testing.T) {
	p, err := AssemblePatient(`Danny "Dboy" Boyer`, []byte(panelFragment))
	if err != nil {
		t.Fatal(err)
	}
	if p == nil {
		t.Fatal("nil patient")
	}
	// The panel's "Name" row wins over the header parse.
	if p.FirstName != "Daniel" || p.LastName != "Boyer" || p.NickName != "Dboy" {
		t.Errorf("patient = %+v", p)
	}
}

func TestAssemblePatient_HeaderOnly(t *testing.T) {
	p, err := AssemblePatient(`Maria Elena Gonzalez Ruiz`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.FirstName != "Maria" || p.LastName != "Elena Gonzalez Ruiz" {
		t.Errorf("patient = %+v", p)
	}
}

func TestAssemblePatient_NothingHarvested(t *testing.T) {
	p, err := AssemblePatient("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if p != nil {
		t.Errorf("patient = %+v, want nil for empty harvest", p)
	}
}

var testNow = time.Date(2024, 3, 14, 9, 30, 0, 0, time.Local)

func TestAssembleVisit_TomorrowMorning(t *testing.T) {
	v := AssembleVisit("Sam Carter", "7:00am", []string{"3 visits", "Tomorrow"}, testNow)
	if v == nil {
		t.Fatal("nil visit")
	}
	if v.Patient.FirstName != "Sam" || v.Patient.LastName != "Carter" {
		t.Errorf("patient = %+v", v.Patient)
	}
	if v.VisitDateTime != "2024-03-15T07:00:00" {
		t.Errorf("when = %q", v.VisitDateTime)
	}
}

func TestAssembleVisit_CountBadgeSkipped(t *testing.T) {
	// The count badge sits closest to the item; the real header is behind it.
	v := AssembleVisit("Sam Carter", "2:30 PM", []string{"12 visits", "Today"}, testNow)
	if v.VisitDateTime != "2024-03-14T14:30:00" {
		t.Errorf("when = %q", v.VisitDateTime)
	}
}

func TestAssembleVisit_NoUsableSchedule(t *testing.T) {
	v := AssembleVisit("Sam Carter", "soon", []string{"Next week"}, testNow)
	if v == nil {
		t.Fatal("nil visit; the name alone is worth relaying")
	}
	if v.VisitDateTime != "" {
		t.Errorf("when = %q, want empty", v.VisitDateTime)
	}
}

func TestAssembleVisit_TimeOnlySalvage(t *testing.T) {
	// When no rail item was identifiable the harvest carries only a
	// time label plus the page's day headers; the visit keeps its
	// datetime even without a name.
	v := AssembleVisit("", "11:15 am", []string{"Tomorrow's Visits"}, testNow)
	if v == nil {
		t.Fatal("nil visit")
	}
	if v.Patient.FirstName != "" || v.Patient.LastName != "" {
		t.Errorf("patient = %+v, want empty", v.Patient)
	}
	if v.VisitDateTime != "2024-03-15T11:15:00" {
		t.Errorf("when = %q", v.VisitDateTime)
	}
}

func TestAssembleVisit_EmptyHarvest(t *testing.T) {
	if v := AssembleVisit("", "", nil, testNow); v != nil {
		t.Errorf("visit = %+v, want nil", v)
	}
}
