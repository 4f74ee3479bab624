// Package collation supplies the locale-aware string order used to sort
// categories, products and suppliers in text reports.
//
// The order is injected everywhere as a Comparator so tests and other locales
// can swap it out.
package collation

import (
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Comparator is a total order over strings: negative when a < b, zero when
// equal, positive when a > b.
type Comparator func(a, b string) int

// Less adapts a comparator for sort.Slice.
func (c Comparator) Less(a, b string) bool {
	return c(a, b) < 0
}

// Binary orders strings by their UTF-8 bytes.
func Binary(a, b string) int {
	return strings.Compare(a, b)
}

// Vietnamese returns a comparator following Vietnamese collation rules
// (a < ă < â < b, d < đ < e, tone marks as secondary weights).
func Vietnamese() Comparator {
	return ForLanguage(language.Vietnamese)
}

// ForLanguage builds a comparator for any supported language tag.
// collate.Collator is not safe for concurrent use, so calls are serialized.
// Strings the collator considers equal fall back to byte order to keep the
// order total.
func ForLanguage(tag language.Tag) Comparator {
	c := collate.New(tag)
	var mu sync.Mutex
	return func(a, b string) int {
		mu.Lock()
		r := c.CompareString(a, b)
		mu.Unlock()
		if r != 0 {
			return r
		}
		return strings.Compare(a, b)
	}
}
