// Package textdiff computes pronunciation-level diffs between a reference
// text and a compared text (typically an ASR transcript). Both texts are
// normalized down to the characters that influence pronunciation, aligned
// word by word, and the resulting regions are projected back onto the
// original, unnormalized texts.
package textdiff

import "unicode/utf8"

// Region is one contiguous stretch of a diff. Regions are immutable values;
// every pass over a diff builds a new slice instead of mutating in place.
type Region struct {
	// ReferenceText is the slice of the reference covered by this region.
	ReferenceText string

	// ComparedText is the slice of the compared text covered by this region.
	ComparedText string

	// PronunciationMatch reports whether the two sides are pronounced the
	// same. Mismatching regions are the actual transcription errors.
	PronunciationMatch bool
}

// compress merges adjacent regions sharing the same match flag, concatenating
// their texts. The input is left untouched.
func compress(regions []Region) []Region {
	out := make([]Region, 0, len(regions))
	for _, r := range regions {
		if n := len(out); n > 0 && out[n-1].PronunciationMatch == r.PronunciationMatch {
			out[n-1].ReferenceText += r.ReferenceText
			out[n-1].ComparedText += r.ComparedText
			continue
		}
		out = append(out, r)
	}
	return out
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
