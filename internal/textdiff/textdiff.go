package textdiff

import (
	"errors"
	"strings"

	"github.com/MrWong99/echodiff/pkg/align"
	"github.com/MrWong99/echodiff/pkg/slicemap"
)

// ErrRegionCoverage is returned by [ProjectRegions] when the regions do not
// cover exactly the normalized text described by the position maps.
var ErrRegionCoverage = errors.New("textdiff: regions do not cover the normalized text")

// CleanDiff diffs two normalized texts word by word. The texts are split on
// single spaces, globally aligned, and turned into regions: one per aligned
// word pair (an unmatched word pairs against the empty string), with the
// separating spaces attached to the matching regions around them so that
// spacing alone never produces a mismatch. Adjacent regions with the same
// match flag are merged.
func CleanDiff(cleanRef, cleanComp string, aligner align.Aligner) []Region {
	refSlots, compSlots := aligner.Align(
		strings.Split(cleanRef, " "),
		strings.Split(cleanComp, " "),
	)

	var regions []Region
	for i := 0; i < len(refSlots) && i < len(compSlots); i++ {
		var ref, comp string
		if !refSlots[i].Gap {
			ref = refSlots[i].Token
		}
		if !compSlots[i].Gap {
			comp = compSlots[i].Token
		}
		regions = append(regions,
			Region{ReferenceText: ref, ComparedText: comp, PronunciationMatch: ref == comp},
			Region{ReferenceText: " ", ComparedText: " ", PronunciationMatch: true},
		)
	}
	if len(regions) > 0 {
		// Words are joined by n-1 spaces, drop the trailing separator.
		regions = regions[:len(regions)-1]
	}

	return compress(regions)
}

// ProjectRegions lifts regions computed over normalized texts back onto the
// original texts. ref2clean and comp2clean are the raw→clean maps produced
// by normalization; their inverses locate each region boundary in raw space.
//
// Candidate stops from the inverse maps are clamped to never move backwards,
// and the last region always extends to the end of the raw text: normalized
// maps are not surjective, so characters erased by normalization (trailing
// punctuation, say) would otherwise silently vanish from the output.
//
// Concatenating the reference texts of the result reproduces rawRef exactly,
// and likewise for the compared side.
func ProjectRegions(regions []Region, rawRef, rawComp string, ref2clean, comp2clean slicemap.Map) ([]Region, error) {
	var cleanRefLen, cleanCompLen int
	for _, r := range regions {
		cleanRefLen += runeLen(r.ReferenceText)
		cleanCompLen += runeLen(r.ComparedText)
	}
	if cleanRefLen != ref2clean.TargetLen() || cleanCompLen != comp2clean.TargetLen() {
		return nil, ErrRegionCoverage
	}

	refRunes := []rune(rawRef)
	compRunes := []rune(rawComp)
	clean2ref := ref2clean.Inverse()
	clean2comp := comp2clean.Inverse()

	out := make([]Region, 0, len(regions))
	var refCleanPos, compCleanPos, refRawPos, compRawPos int
	for i, region := range regions {
		refCleanStop := refCleanPos + runeLen(region.ReferenceText)
		compCleanStop := compCleanPos + runeLen(region.ComparedText)

		var refRawStop, compRawStop int
		if i == len(regions)-1 {
			refRawStop = len(refRunes)
			compRawStop = len(compRunes)
		} else {
			refRawStop = max(refRawPos, clean2ref.Range(refCleanPos, refCleanStop).Stop)
			compRawStop = max(compRawPos, clean2comp.Range(compCleanPos, compCleanStop).Stop)
		}

		out = append(out, Region{
			ReferenceText:      string(refRunes[refRawPos:refRawStop]),
			ComparedText:       string(compRunes[compRawPos:compRawStop]),
			PronunciationMatch: region.PronunciationMatch,
		})

		refCleanPos, compCleanPos = refCleanStop, compCleanStop
		refRawPos, compRawPos = refRawStop, compRawStop
	}

	return out, nil
}
