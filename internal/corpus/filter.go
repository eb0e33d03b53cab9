// Package corpus loads training text and weighted word lists.
package corpus

import "strings"

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// FilterForLang returns a language-specific filter for word lists.
// Only English is restricted; other languages keep every word.
func FilterForLang(lang string) FilterFunc {
	switch strings.ToLower(lang) {
	case "en":
		return filterEnglishASCII
	default:
		return func(word string) bool { return word != "" }
	}
}

func filterEnglishASCII(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		ch := word[i]
		if (ch < 'a' || ch > 'z') && (ch < 'A' || ch > 'Z') {
			return false
		}
	}
	return true
}

// Keep returns the entries accepted by filter, preserving order.
func Keep(entries []Entry, filter FilterFunc) []Entry {
	kept := entries[:0:0]
	for _, e := range entries {
		if filter(e.Word) {
			kept = append(kept, e)
		}
	}
	return kept
}
