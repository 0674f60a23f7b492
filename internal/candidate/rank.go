package candidate

import (
	"sort"

	"github.com/solarch/roofscout/internal/model"
)

// Rank retains candidates with at least minArea square meters of roof,
// orders them by area descending then score descending, and truncates to
// limit. The two-key comparator and the stable tie-break (input order) are a
// hard contract: identical inputs must always produce identical orderings.
func Rank(cands []model.RoofCandidate, minArea float64, limit int) []model.RoofCandidate {
	kept := make([]model.RoofCandidate, 0, len(cands))
	for _, c := range cands {
		if c.AreaM2 >= minArea {
			kept = append(kept, c)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].AreaM2 != kept[j].AreaM2 {
			return kept[i].AreaM2 > kept[j].AreaM2
		}
		return kept[i].Score > kept[j].Score
	})

	if limit >= 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}
