package match

import (
	"testing"

	"github.com/erazemk/lekarna/internal/model"
)

func catalog(names ...string) []model.Medicine {
	meds := make([]model.Medicine, len(names))
	for i, n := range names {
		meds[i] = model.Medicine{ID: int64(i + 1), Name: n, Quantity: 10}
	}
	return meds
}

func TestRatio(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"paracetamol", "paracetamol", 1},
		{"", "", 1},
		{"abc", "", 0},
		{"abc", "xyz", 0},
	}
	for _, c := range cases {
		if got := Ratio(c.a, c.b); got != c.want {
			t.Errorf("Ratio(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}

	// A close misspelling should score high, an unrelated name low.
	if r := Ratio("paracetamol", "paracetamoll"); r < 0.9 {
		t.Errorf("Ratio(paracetamol, paracetamoll) = %v, want >= 0.9", r)
	}
	if r := Ratio("paracetamol", "insulin"); r >= LooseCutoff {
		t.Errorf("Ratio(paracetamol, insulin) = %v, want below loose cutoff", r)
	}
}

func TestCatalogSubstringMatch(t *testing.T) {
	snapshot := catalog("Paracetamol 500", "Amoxicillin")

	results := Catalog([]model.LineItem{{Name: "paracetamol", Quantity: 2}}, snapshot)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Medicine == nil || results[0].Medicine.Name != "Paracetamol 500" {
		t.Errorf("expected substring match on 'Paracetamol 500', got %+v", results[0].Medicine)
	}
	if results[0].Confidence != 1 {
		t.Errorf("expected confidence 1 for substring match, got %v", results[0].Confidence)
	}
}

func TestCatalogFuzzyMatch(t *testing.T) {
	snapshot := catalog("Cetirizine", "Amoxicillin")

	// Misspelled name: no substring match, fuzzy pass should recover it.
	results := Catalog([]model.LineItem{{Name: "cetrizine", Quantity: 1}}, snapshot)
	if results[0].Medicine == nil || results[0].Medicine.Name != "Cetirizine" {
		t.Fatalf("expected fuzzy match on 'Cetirizine', got %+v", results[0].Medicine)
	}
	if results[0].Confidence < StrictCutoff {
		t.Errorf("confidence %v below strict cutoff", results[0].Confidence)
	}
}

func TestCatalogNoMatch(t *testing.T) {
	snapshot := catalog("Insulin", "Warfarin")

	results := Catalog([]model.LineItem{{Name: "paracetamol", Quantity: 1}}, snapshot)
	if results[0].Medicine != nil {
		t.Errorf("expected no match, got %+v", results[0].Medicine)
	}
	if results[0].Confidence != 0 {
		t.Errorf("expected confidence 0, got %v", results[0].Confidence)
	}
}

func TestCatalogDeterministicTieBreak(t *testing.T) {
	// Two identical catalog names: the first must win, every time.
	snapshot := catalog("Paracetamol", "Paracetamol")

	for range 10 {
		results := Catalog([]model.LineItem{{Name: "paracetamol", Quantity: 1}}, snapshot)
		if results[0].Medicine == nil || results[0].Medicine.ID != 1 {
			t.Fatalf("tie not broken by catalog order: %+v", results[0].Medicine)
		}
	}
}

func TestLookupUsesLooseCutoff(t *testing.T) {
	snapshot := catalog("Azithromycin")

	// Similar enough for the loose cutoff but below the strict one.
	name := "aztromik"
	ratio := Ratio(name, "azithromycin")
	if ratio < LooseCutoff || ratio >= StrictCutoff {
		t.Skipf("test name ratio %v not between cutoffs", ratio)
	}

	med, _ := Lookup(name, snapshot)
	if med == nil {
		t.Error("expected loose lookup to match")
	}

	results := Catalog([]model.LineItem{{Name: name, Quantity: 1}}, snapshot)
	if results[0].Medicine != nil {
		t.Error("expected strict pipeline match to reject")
	}
}

func TestKind(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Cough Syrup", model.KindEdge},
		{"Insulin Injection", model.KindEdge},
		{"Hydrocortisone cream", model.KindEdge},
		{"Eye Drops", model.KindEdge},
		{"Paracetamol", model.KindRegular},
		{"Amoxicillin", model.KindRegular},
	}
	for _, c := range cases {
		if got := Kind(c.name); got != c.want {
			t.Errorf("Kind(%q) = %q, want %q", c.name, got, c.want)
		}
	}
}
