// Package match fuzzy-matches extracted medicine names against the
// inventory catalog and classifies items by packing kind.
package match

import (
	"strings"

	"github.com/erazemk/lekarna/internal/model"
)

// Similarity cutoffs. The submission pipeline only reaches the fuzzy pass
// when substring matching found nothing, and then demands the stricter
// cutoff so a garbled scan can't auto-claim a barely-similar medicine.
// General catalog lookups (search boxes, admin tools) use the loose cutoff.
const (
	LooseCutoff  = 0.60
	StrictCutoff = 0.75
)

// edgeKeywords mark medicines that need non-tablet packing (liquids,
// injectables, topicals) and therefore longer handling time.
var edgeKeywords = []string{
	"syrup", "injection", "suspension", "cream", "ointment", "drops", "gel",
}

// Result pairs a line item with its catalog match, if any.
type Result struct {
	LineItem   model.LineItem  `json:"line_item"`
	Medicine   *model.Medicine `json:"medicine,omitempty"`
	Confidence float64         `json:"confidence"`
}

// Kind classifies a medicine name as edge or regular packing.
func Kind(name string) string {
	lower := strings.ToLower(name)
	for _, kw := range edgeKeywords {
		if strings.Contains(lower, kw) {
			return model.KindEdge
		}
	}
	return model.KindRegular
}

// Catalog matches each line item against a catalog snapshot. Substring
// matches (case-insensitive) win outright with confidence 1; otherwise the
// single best similarity at or above StrictCutoff is taken. Ties break by
// catalog order, so repeated runs over the same snapshot are reproducible.
func Catalog(items []model.LineItem, snapshot []model.Medicine) []Result {
	results := make([]Result, 0, len(items))
	for _, item := range items {
		med, conf := matchName(item.Name, snapshot, StrictCutoff)
		results = append(results, Result{LineItem: item, Medicine: med, Confidence: conf})
	}
	return results
}

// Lookup finds the best catalog match for a free-form name using the loose
// cutoff. Used by interactive search, not by the submission pipeline.
func Lookup(name string, snapshot []model.Medicine) (*model.Medicine, float64) {
	return matchName(name, snapshot, LooseCutoff)
}

func matchName(name string, snapshot []model.Medicine, cutoff float64) (*model.Medicine, float64) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return nil, 0
	}

	// Substring pass: first catalog entry containing (or contained in) the
	// extracted name wins.
	for i := range snapshot {
		catName := strings.ToLower(snapshot[i].Name)
		if strings.Contains(catName, lower) || strings.Contains(lower, catName) {
			return &snapshot[i], 1
		}
	}

	// Fuzzy pass: single best ratio at or above the cutoff, first wins on ties.
	var best *model.Medicine
	bestRatio := 0.0
	for i := range snapshot {
		ratio := Ratio(lower, strings.ToLower(snapshot[i].Name))
		if ratio >= cutoff && ratio > bestRatio {
			best = &snapshot[i]
			bestRatio = ratio
		}
	}
	return best, bestRatio
}

// Ratio computes a similarity ratio in [0,1] between two strings:
// 2*M / (len(a)+len(b)) where M is the length of their longest common
// subsequence. Identical strings score 1, disjoint strings 0.
func Ratio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	// Longest common subsequence length, two-row dynamic programming.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	m := prev[len(b)]
	return 2 * float64(m) / float64(len(a)+len(b))
}
