package candidate

import (
	"strings"

	"github.com/solarch/roofscout/internal/model"
)

// classBuckets maps building-tag substrings to coarse classes, checked in
// order so the bucketing is deterministic.
var classBuckets = []struct {
	substr string
	class  string
}{
	{"industrial", "industrial"},
	{"warehouse", "warehouse"},
	{"retail", "retail"},
	{"commercial", "commercial"},
	{"supermarket", "retail"},
	{"school", "public"},
	{"university", "public"},
	{"hospital", "public"},
	{"kindergarten", "public"},
	{"public", "public"},
	{"garage", "industrial"},
	{"manufacture", "industrial"},
	{"factory", "industrial"},
}

// GuessClass buckets the free-form "building" tag into a coarse usage class.
// Untagged footprints return "", anything unrecognized returns "other".
func GuessClass(tags model.TagMap) string {
	b, ok := tags.Building()
	if !ok {
		return ""
	}
	b = strings.ToLower(b)
	for _, bucket := range classBuckets {
		if strings.Contains(b, bucket.substr) {
			return bucket.class
		}
	}
	return "other"
}
