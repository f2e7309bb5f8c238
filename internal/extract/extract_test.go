package extract

import (
	"testing"
)

func TestCleanCollapsesWhitespaceAndNonASCII(t *testing.T) {
	raw := "  Amoxicillin\t\t500mg\n\nParacetamol  —  650 mg  "
	got := Clean(raw)
	want := "Amoxicillin 500mg\nParacetamol 650 mg"
	if got != want {
		t.Errorf("Clean() = %q, want %q", got, want)
	}
}

func TestCleanKeepsLineBoundaries(t *testing.T) {
	// Header lines must not bleed into medicine names downstream.
	got := Clean("Dr. Smith\nAmoxicillin 500mg")
	want := "Dr. Smith\nAmoxicillin 500mg"
	if got != want {
		t.Errorf("Clean() = %q, want %q", got, want)
	}
}

func TestCleanEmptyInput(t *testing.T) {
	if got := Clean(""); got != "" {
		t.Errorf("Clean(\"\") = %q, want empty", got)
	}
	if got := Clean(" \n\t "); got != "" {
		t.Errorf("Clean(whitespace) = %q, want empty", got)
	}
}

func TestLineItemsBasic(t *testing.T) {
	items := LineItems("Amoxicillin 500mg")
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Name != "amoxicillin" {
		t.Errorf("expected name 'amoxicillin', got %q", items[0].Name)
	}
	if items[0].Dose != "500mg" {
		t.Errorf("expected dose '500mg', got %q", items[0].Dose)
	}
	if items[0].Quantity != 1 {
		t.Errorf("expected quantity 1, got %d", items[0].Quantity)
	}
}

func TestLineItemsSeparatorsAndUnits(t *testing.T) {
	text := "Paracetamol - 650 mg\nCetirizine: 10mg\nCough Syrup 100 ml"
	items := LineItems(text)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d: %v", len(items), items)
	}

	want := []struct{ name, dose string }{
		{"paracetamol", "650mg"},
		{"cetirizine", "10mg"},
		{"cough syrup", "100ml"},
	}
	for i, w := range want {
		if items[i].Name != w.name || items[i].Dose != w.dose {
			t.Errorf("item %d = %q/%q, want %q/%q", i, items[i].Name, items[i].Dose, w.name, w.dose)
		}
	}
}

func TestLineItemsTrailingCount(t *testing.T) {
	items := LineItems("paracetamol 500mg x 2")
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", items[0].Quantity)
	}
}

func TestLineItemsStripsDosageForms(t *testing.T) {
	items := LineItems("Paracetamol tablet 500mg\nAmoxicillin capsule 250mg")
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Name != "paracetamol" {
		t.Errorf("expected 'paracetamol', got %q", items[0].Name)
	}
	if items[1].Name != "amoxicillin" {
		t.Errorf("expected 'amoxicillin', got %q", items[1].Name)
	}
}

func TestLineItemsDiscardsHeaderWords(t *testing.T) {
	// "age 45 g" would pattern-match but the whole name is a header word.
	items := LineItems("age 45 g\ndate 12 mg")
	if len(items) != 0 {
		t.Errorf("expected no items from header lines, got %v", items)
	}
}

func TestLineItemsDeduplicates(t *testing.T) {
	items := LineItems("paracetamol 500mg\nparacetamol 500mg\nparacetamol 650mg")
	if len(items) != 2 {
		t.Fatalf("expected 2 items after dedup, got %d", len(items))
	}
	if items[0].Dose != "500mg" || items[1].Dose != "650mg" {
		t.Errorf("insertion order not preserved: %v", items)
	}
}

func TestLineItemsEmptyText(t *testing.T) {
	if items := LineItems(""); len(items) != 0 {
		t.Errorf("expected no items for empty text, got %v", items)
	}
	if items := LineItems("no medicines here"); len(items) != 0 {
		t.Errorf("expected no items for text without doses, got %v", items)
	}
}
