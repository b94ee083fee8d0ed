package fingerprint

import (
	"testing"

	"liscraper/pkg/models"
)

func TestCompute(t *testing.T) {
	fp := Compute("Jane Doe", "Engineer", "https://linkedin.com/in/jane")
	if fp != "JaneDoe|Engineer|https://linkedin.com/in/jane" {
		t.Errorf("unexpected fingerprint: %q", fp)
	}
}

func TestComputeStripsAllWhitespace(t *testing.T) {
	a := Compute("Jane Doe", "Software Engineer", "url")
	b := Compute("  Jane\tDoe ", "Software\nEngineer", " url ")
	if a != b {
		t.Errorf("whitespace variants should collide: %q vs %q", a, b)
	}
}

func TestComputeDistinguishesFields(t *testing.T) {
	// The separator keeps field boundaries relevant even after stripping.
	a := Compute("ab", "c", "")
	b := Compute("a", "bc", "")
	if a == b {
		t.Errorf("different field splits should not collide: %q", a)
	}
}

func TestComputeEmptyFields(t *testing.T) {
	if fp := Compute("", "", ""); fp != "||" {
		t.Errorf("expected bare separators for empty input, got %q", fp)
	}
}

func TestForRecordMatchesForRaw(t *testing.T) {
	raw := models.RawItem{
		Name:        " Jane Doe ",
		Occupation:  "Engineer",
		Location:    "Berlin",
		LinkedInURL: "https://linkedin.com/in/jane",
	}
	record := models.FromRaw(raw)

	if ForRaw(raw) != ForRecord(record) {
		t.Errorf("probe and extraction fingerprints disagree: %q vs %q",
			ForRaw(raw), ForRecord(record))
	}
}
