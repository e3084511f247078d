package emrpage

import "testing"

func TestClassify_VisitRoute(t *testing.T) {
	url := "https://app.promptemr.com/onDeck?tab=upcoming&visitId=V1&patientId=P1"
	got := Classify(url)

	if got.PageType != Visit {
		t.Fatalf("PageType: got %s, want %s", got.PageType, Visit)
	}
	if got.VisitID != "V1" {
		t.Errorf("VisitID: got %q, want %q", got.VisitID, "V1")
	}
	if got.PatientID != "P1" {
		t.Errorf("PatientID: got %q, want %q", got.PatientID, "P1")
	}
}

func TestClassify_VisitWinsOverEmbeddedUUID(t *testing.T) {
	// A patient UUID elsewhere in the URL must not demote the visit match.
	url := "https://app.promptemr.com/clinic/11111111-2222-3333-4444-555555555555/onDeck?visitId=V9&patientId=P9"
	got := Classify(url)

	if got.PageType != Visit {
		t.Fatalf("PageType: got %s, want %s", got.PageType, Visit)
	}
	if got.VisitID != "V9" || got.PatientID != "P9" {
		t.Errorf("ids: got visit=%q patient=%q", got.VisitID, got.PatientID)
	}
}

func TestClassify_PatientProfile(t *testing.T) {
	url := "https://app.promptemr.com/patients/11111111-2222-3333-4444-555555555555"
	got := Classify(url)

	if got.PageType != PatientProfile {
		t.Fatalf("PageType: got %s, want %s", got.PageType, PatientProfile)
	}
	if got.PatientID != "11111111-2222-3333-4444-555555555555" {
		t.Errorf("PatientID: got %q", got.PatientID)
	}
	if got.VisitID != "" {
		t.Errorf("VisitID: got %q, want empty", got.VisitID)
	}
}

func TestClassify_PatientProfileTrailingPath(t *testing.T) {
	url := "https://app.promptemr.com/patients/aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee/chart?tab=history"
	got := Classify(url)

	if got.PageType != PatientProfile {
		t.Fatalf("PageType: got %s, want %s", got.PageType, PatientProfile)
	}
	if got.PatientID != "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee" {
		t.Errorf("PatientID: got %q", got.PatientID)
	}
}

func TestClassify_PatientList(t *testing.T) {
	got := Classify("https://app.promptemr.com/patients")

	if got.PageType != PatientList {
		t.Fatalf("PageType: got %s, want %s", got.PageType, PatientList)
	}
	if got.PatientID != "" {
		t.Errorf("PatientID: got %q, want empty", got.PatientID)
	}
}

func TestClassify_NonUUIDSegmentIsList(t *testing.T) {
	// A /patients path whose segment is not UUID-shaped is the list, not a profile.
	got := Classify("https://app.promptemr.com/patients/search")
	if got.PageType != PatientList {
		t.Fatalf("PageType: got %s, want %s", got.PageType, PatientList)
	}
}

func TestClassify_ScheduleAndDocumentation(t *testing.T) {
	if got := Classify("https://app.promptemr.com/schedule"); got.PageType != Schedule {
		t.Errorf("schedule: got %s", got.PageType)
	}
	if got := Classify("https://app.promptemr.com/documentation/123"); got.PageType != Documentation {
		t.Errorf("documentation: got %s", got.PageType)
	}
	if got := Classify("https://app.promptemr.com/notes"); got.PageType != Documentation {
		t.Errorf("notes: got %s", got.PageType)
	}
}

func TestClassify_SegmentAnchoring(t *testing.T) {
	// Route words embedded in longer segments are not the route.
	for _, url := range []string{
		"https://app.promptemr.com/patients-archive",
		"https://app.promptemr.com/foo/patientsbar",
		"https://app.promptemr.com/my-schedule",
		"https://app.promptemr.com/notesworthy",
	} {
		if got := Classify(url); got.PageType != Unknown {
			t.Errorf("%s: got %s, want %s", url, got.PageType, Unknown)
		}
	}
}

func TestClassify_Unknown(t *testing.T) {
	got := Classify("https://app.promptemr.com/settings/billing")

	if got.PageType != Unknown {
		t.Fatalf("PageType: got %s, want %s", got.PageType, Unknown)
	}
	if got.PatientID != "" || got.VisitID != "" {
		t.Errorf("ids: got patient=%q visit=%q, want both empty", got.PatientID, got.VisitID)
	}
}

func TestClassify_OnDeckWithoutBothParams(t *testing.T) {
	// visitId alone does not qualify as a visit page.
	got := Classify("https://app.promptemr.com/onDeck?tab=upcoming&visitId=V1")
	if got.PageType == Visit {
		t.Fatal("expected non-visit classification without patientId")
	}
}

func TestClassify_Pure(t *testing.T) {
	url := "https://app.promptemr.com/patients/11111111-2222-3333-4444-555555555555"
	first := Classify(url)
	Classify("https://app.promptemr.com/onDeck?visitId=a&patientId=b")
	second := Classify(url)

	if first != second {
		t.Errorf("classification not stable: %+v vs %+v", first, second)
	}
}

func TestIsHostURL(t *testing.T) {
	if !IsHostURL("https://app.promptemr.com/patients") {
		t.Error("expected promptemr.com to match")
	}
	if !IsHostURL("https://x.prompt-ehr.com/") {
		t.Error("expected prompt-ehr.com to match")
	}
	if IsHostURL("https://example.com/patients") {
		t.Error("expected example.com not to match")
	}
}
