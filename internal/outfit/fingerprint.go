package outfit

import (
	"sort"
	"strings"

	"github.com/benvon/smart-wardrobe/internal/models"
)

const fingerprintSeparator = "|"

// Fingerprint returns the canonical identity of an item-id set: the sorted,
// de-duplicated ids joined by "|". Two outfits are duplicates iff their
// fingerprints are equal.
func Fingerprint(itemIDs []string) string {
	if len(itemIDs) == 0 {
		return ""
	}
	ids := make([]string, 0, len(itemIDs))
	seen := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, fingerprintSeparator)
}

// Of is shorthand for Fingerprint(o.ItemIDs)
func Of(o models.Outfit) string {
	return Fingerprint(o.ItemIDs)
}

// Set tracks fingerprints already seen
type Set map[string]struct{}

// NewSet builds a set from existing outfits
func NewSet(outfits ...models.Outfit) Set {
	s := make(Set, len(outfits))
	for _, o := range outfits {
		s[Of(o)] = struct{}{}
	}
	return s
}

// Has reports whether fp is in the set
func (s Set) Has(fp string) bool {
	_, ok := s[fp]
	return ok
}

// Add inserts fp and reports whether it was new
func (s Set) Add(fp string) bool {
	if s.Has(fp) {
		return false
	}
	s[fp] = struct{}{}
	return true
}
