// Package langtag resolves BCP 47 language tags for the normalization
// pipeline and transcription providers.
package langtag

import (
	"fmt"

	"golang.org/x/text/language"
)

// Resolve parses a BCP 47 tag like "en-US" or a bare language code like
// "en". Parsing is lenient about well-formed but unknown tags, matching
// what speech providers report.
func Resolve(tag string) (language.Tag, error) {
	parsed, err := language.Parse(tag)
	if err != nil {
		return language.Und, fmt.Errorf("langtag: parse %q: %w", tag, err)
	}
	return parsed, nil
}

// IsEnglish reports whether the tag's base language is English, regardless
// of region or script.
func IsEnglish(tag language.Tag) bool {
	base, _ := tag.Base()
	return base.String() == "en"
}

// Code returns the base language code of the tag, e.g. "en" for "en-US".
// Speech backends take this short form.
func Code(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

// Match returns the indices of every available tag matching the requested
// one. Matching compares base languages; when territoryMatch is set and the
// requested tag carries an explicit region, only entries with that exact
// region qualify. All returned matches are equally good.
func Match(req string, avail []string, territoryMatch bool) ([]int, error) {
	reqTag, err := Resolve(req)
	if err != nil {
		return nil, err
	}
	reqBase, _, reqRegion := reqTag.Raw()
	// An unspecified region parses as the "ZZ" placeholder.
	wantRegion := territoryMatch && reqRegion.String() != "ZZ"

	var matches []int
	for i, a := range avail {
		t, err := Resolve(a)
		if err != nil {
			return nil, err
		}
		base, _, region := t.Raw()
		if base != reqBase {
			continue
		}
		if wantRegion && region != reqRegion {
			continue
		}
		matches = append(matches, i)
	}
	return matches, nil
}
