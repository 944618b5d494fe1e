// Package natsort orders page file names the way scanners number them:
// numeric runs compare by value, so "2.jpg" sorts before "10.jpg".
package natsort

import (
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// Less reports whether a sorts before b in natural order with a
// locale-insensitive case fold.
func Less(a, b string) bool {
	fa, fb := strings.ToLower(a), strings.ToLower(b)
	if fa == fb {
		// Deterministic tiebreak for names differing only in case.
		return a < b
	}
	return natural.Less(fa, fb)
}

// Sort orders names in place.
func Sort(names []string) {
	sort.Slice(names, func(i, j int) bool {
		return Less(names[i], names[j])
	})
}

// SortBy orders names in place by natural comparison of key(name), e.g. the
// base name of an archive entry path.
func SortBy(names []string, key func(string) string) {
	sort.Slice(names, func(i, j int) bool {
		return Less(key(names[i]), key(names[j]))
	})
}
