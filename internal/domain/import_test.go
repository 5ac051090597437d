package domain

import "testing"

func TestParseImportStatus(t *testing.T) {
	for _, raw := range []string{"PENDING", "APPROVED", "REJECTED"} {
		status, ok := ParseImportStatus(raw)
		if !ok || string(status) != raw {
			t.Fatalf("ParseImportStatus(%q) = %v, %v", raw, status, ok)
		}
	}
	if _, ok := ParseImportStatus("pending"); ok {
		t.Fatal("lowercase status should not parse")
	}
	if _, ok := ParseImportStatus("DELETED"); ok {
		t.Fatal("unknown status should not parse")
	}
}

func TestTerminalStatuses(t *testing.T) {
	if ImportStatusPending.Terminal() {
		t.Fatal("pending is not terminal")
	}
	if !ImportStatusApproved.Terminal() || !ImportStatusRejected.Terminal() {
		t.Fatal("approved and rejected are terminal")
	}
}

func TestLabelPrefersDisplayName(t *testing.T) {
	imp := Import{OriginalFilename: "raw.csv"}
	if imp.Label() != "raw.csv" {
		t.Fatalf("unexpected label %q", imp.Label())
	}
	imp.DisplayName = "Q1 indicators"
	if imp.Label() != "Q1 indicators" {
		t.Fatalf("unexpected label %q", imp.Label())
	}
}

func TestObservationValue(t *testing.T) {
	num := 1234.56
	text := "n/a"

	obs := Observation{ValueNum: &num}
	if obs.Value() != "1234.56" {
		t.Fatalf("unexpected numeric value %q", obs.Value())
	}
	obs = Observation{ValueText: &text}
	if obs.Value() != "n/a" {
		t.Fatalf("unexpected text value %q", obs.Value())
	}
	obs = Observation{}
	if obs.Value() != "" {
		t.Fatalf("empty observation should render empty, got %q", obs.Value())
	}
}
