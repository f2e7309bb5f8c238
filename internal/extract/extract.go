// Package extract turns raw prescription text into medicine line items.
// Text extraction itself (OCR, PDF parsing) is an external concern; this
// package only cleans and parses whatever text that service produced.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/erazemk/lekarna/internal/model"
)

// headerWords are common non-medicine prescription fields. A captured name
// is discarded only when it is entirely one of these.
var headerWords = map[string]bool{
	"patient": true, "name": true, "date": true, "age": true,
	"gender": true, "dr": true, "doctor": true, "rx": true,
	"prescription": true, "diagnosis": true, "signature": true,
	"advice": true, "review": true, "address": true,
}

// stopwords are dosage-form words stripped from captured names.
var stopwords = map[string]bool{
	"tablet": true, "tab": true, "capsule": true,
}

var (
	nonPrintable = regexp.MustCompile(`[^\x20-\x7E\n]+`)
	whitespace   = regexp.MustCompile(`\s+`)

	// <name><separator><dose><unit>, with an optional trailing count ("x 2").
	linePattern = regexp.MustCompile(`([a-z][a-z ]*?)[-:\s]+(\d+)\s*(mg|ml|mcg|g)\b(?:\s*x\s*(\d+))?`)
)

// Clean normalizes raw extracted text: non-printable and non-ASCII runs
// become single spaces and whitespace runs collapse within each line.
// Line boundaries are kept, blank lines are dropped, so header lines stay
// separate from medicine lines. Pure function; empty input yields empty
// output.
func Clean(raw string) string {
	s := nonPrintable.ReplaceAllString(raw, " ")

	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(whitespace.ReplaceAllString(line, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// LineItems parses normalized text into medicine line items. Duplicates on
// (name, dose) are dropped, first occurrence wins, insertion order is kept.
// An empty result means no medicines were found; that is the caller's
// business outcome, not an error.
func LineItems(text string) []model.LineItem {
	var items []model.LineItem
	seen := map[string]bool{}

	for _, line := range strings.Split(text, "\n") {
		line = strings.ToLower(strings.TrimSpace(line))

		for _, m := range linePattern.FindAllStringSubmatch(line, -1) {
			name := stripStopwords(m[1])
			if name == "" || headerWords[name] {
				continue
			}

			dose := m[2] + m[3]
			qty := 1
			if m[4] != "" {
				if n, err := strconv.Atoi(m[4]); err == nil && n > 0 {
					qty = n
				}
			}

			key := name + "_" + dose
			if seen[key] {
				continue
			}
			seen[key] = true

			items = append(items, model.LineItem{Name: name, Dose: dose, Quantity: qty})
		}
	}

	return items
}

// stripStopwords removes dosage-form words from a captured name and
// collapses internal whitespace.
func stripStopwords(name string) string {
	var kept []string
	for _, word := range strings.Fields(name) {
		if !stopwords[word] {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}
