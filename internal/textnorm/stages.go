package textnorm

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/MrWong99/echodiff/pkg/slicemap"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// splitKeepWhitespace splits text into alternating non-whitespace and
// whitespace parts, keeping the whitespace. The parts concatenate back to
// the input; leading and trailing parts may be empty.
func splitKeepWhitespace(text string) []string {
	var parts []string
	last := 0
	for _, loc := range whitespaceRe.FindAllStringIndex(text, -1) {
		parts = append(parts, text[last:loc[0]], text[loc[0]:loc[1]])
		last = loc[1]
	}
	return append(parts, text[last:])
}

// StandardizeCharacters applies NFKC normalization to the text. Compatibility
// forms like ligatures and full-width characters fold into their canonical
// equivalents; each whitespace-delimited part maps to its normalized form by
// even interpolation.
func StandardizeCharacters(text string) ([]Chunk, error) {
	var chunks []Chunk
	for _, part := range splitKeepWhitespace(text) {
		newPart := norm.NFKC.String(part)
		chunks = append(chunks, Chunk{
			Text: newPart,
			Map:  slicemap.Lerp(utf8.RuneCountInString(part), utf8.RuneCountInString(newPart)),
		})
	}
	return chunks, nil
}

// CollapseWhitespace replaces every whitespace run with a single space.
func CollapseWhitespace(text string) ([]Chunk, error) {
	var chunks []Chunk
	for _, part := range splitKeepWhitespace(text) {
		if whitespaceRe.MatchString(part) {
			chunks = append(chunks, Chunk{
				Text: " ",
				Map:  slicemap.Lerp(utf8.RuneCountInString(part), 1),
			})
		} else {
			chunks = append(chunks, Chunk{
				Text: part,
				Map:  slicemap.Identity(utf8.RuneCountInString(part)),
			})
		}
	}
	return chunks, nil
}

// KeepPronouncedOnly lowercases the text and drops every character that
// does not carry pronunciation: everything except letters, digits, hyphens,
// apostrophes and spaces.
func KeepPronouncedOnly(text string) ([]Chunk, error) {
	runes := []rune(text)
	var keptIdx []int
	kept := make([]rune, 0, len(runes))
	for i, r := range runes {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '\'' || r == ' ' {
			keptIdx = append(keptIdx, i)
			kept = append(kept, unicode.ToLower(r))
		}
	}
	new2orig, err := slicemap.FromOneToOne(keptIdx, len(runes))
	if err != nil {
		return nil, err
	}
	return []Chunk{{Text: string(kept), Map: new2orig.Inverse()}}, nil
}
