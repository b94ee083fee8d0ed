// Package fingerprint derives stable identity keys for harvested profiles.
//
// A fingerprint is a pure function of a profile's distinguishing fields. Two
// renderings of the same underlying profile produce the same key even when the
// listing re-renders it at a different index; distinct profiles usually, but
// not provably, produce distinct keys. When name, occupation and URL are all
// blank, every such profile collapses onto the same key. That collision is
// accepted rather than papered over with markup-specific disambiguation.
package fingerprint

import (
	"strings"
	"unicode"

	"liscraper/pkg/models"
)

const separator = "|"

// Compute derives the identity key from the three distinguishing fields.
// Each field has all whitespace removed; missing fields contribute an empty
// segment. No further normalization is applied, so case and punctuation
// differences yield different fingerprints. Known limitation, not a bug.
func Compute(name, occupation, linkedinURL string) string {
	return strings.Join([]string{
		stripWhitespace(name),
		stripWhitespace(occupation),
		stripWhitespace(linkedinURL),
	}, separator)
}

// ForRecord computes the fingerprint of a normalized record.
func ForRecord(r models.Record) string {
	return Compute(r.Name, r.Occupation, r.LinkedInURL)
}

// ForRaw computes the fingerprint of a raw item ahead of full extraction.
// It must agree with ForRecord applied to the normalized form, which holds
// because normalization only trims whitespace and Compute removes all of it.
func ForRaw(item models.RawItem) string {
	return Compute(item.Name, item.Occupation, item.LinkedInURL)
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
