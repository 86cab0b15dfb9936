package textnorm

import (
	"regexp"
	"unicode/utf8"

	"github.com/MrWong99/echodiff/pkg/slicemap"
)

type abbreviation struct {
	re       *regexp.Regexp
	expanded string
}

func abbrev(pattern, expanded string) abbreviation {
	return abbreviation{
		re:       regexp.MustCompile(`(?i)\b` + pattern + `\.`),
		expanded: expanded,
	}
}

// Abbreviations are only recognized with a trailing period. Order matters
// where one abbreviation prefixes another.
var abbreviations = []abbreviation{
	abbrev(`mrs`, "misess"),
	abbrev(`mr`, "mister"),
	abbrev(`dr`, "doctor"),
	abbrev(`st`, "saint"),
	abbrev(`co`, "company"),
	abbrev(`jr`, "junior"),
	abbrev(`maj`, "major"),
	abbrev(`gen`, "general"),
	abbrev(`drs`, "doctors"),
	abbrev(`rev`, "reverend"),
	abbrev(`lt`, "lieutenant"),
	abbrev(`hon`, "honorable"),
	abbrev(`sgt`, "sergeant"),
	abbrev(`capt`, "captain"),
	abbrev(`esq`, "esquire"),
	abbrev(`ltd`, "limited"),
	abbrev(`col`, "colonel"),
	abbrev(`ft`, "feet"),
	abbrev(`abbrev`, "abbreviation"),
	abbrev(`ave`, "avenue"),
	abbrev(`abstr`, "abstract"),
	abbrev(`addr`, "address"),
	abbrev(`jan`, "january"),
	abbrev(`feb`, "february"),
	abbrev(`mar`, "march"),
	abbrev(`apr`, "april"),
	abbrev(`jul`, "july"),
	abbrev(`aug`, "august"),
	abbrev(`sep`, "september"),
	abbrev(`sept`, "september"),
	abbrev(`oct`, "october"),
	abbrev(`nov`, "november"),
	abbrev(`dec`, "december"),
	abbrev(`mon`, "monday"),
	abbrev(`tue`, "tuesday"),
	abbrev(`wed`, "wednesday"),
	abbrev(`thur`, "thursday"),
	abbrev(`fri`, "friday"),
	abbrev(`sec`, "second"),
	abbrev(`min`, "minute"),
	abbrev(`mo`, "month"),
	abbrev(`yr`, "year"),
	abbrev(`cal`, "calorie"),
	abbrev(`dept`, "department"),
	abbrev(`gal`, "gallon"),
	abbrev(`kg`, "kilogram"),
	abbrev(`km`, "kilometer"),
	abbrev(`mt`, "mount"),
	abbrev(`oz`, "ounce"),
	abbrev(`vol`, "volume"),
	abbrev(`vs`, "versus"),
	abbrev(`yd`, "yard"),
	abbrev(`e\.g`, "eg"),
	abbrev(`i\.e`, "ie"),
	abbrev(`etc`, "etc"),
}

// ExpandAbbreviations replaces known abbreviations with their spoken form.
// Matches are located in the input text; replacements splice into the
// running output through the accumulated mapping, so multiple expansions
// stay position-consistent.
func ExpandAbbreviations(text string) ([]Chunk, error) {
	orig2new := slicemap.Identity(utf8.RuneCountInString(text))
	newRunes := []rune(text)

	for _, a := range abbreviations {
		for _, loc := range a.re.FindAllStringIndex(text, -1) {
			matchStart := utf8.RuneCountInString(text[:loc[0]])
			matchLen := utf8.RuneCountInString(text[loc[0]:loc[1]])
			newSpan := orig2new.Range(matchStart, matchStart+matchLen)

			repl := []rune(a.expanded)
			spliced := make([]rune, 0, len(newRunes)-newSpan.Len()+len(repl))
			spliced = append(spliced, newRunes[:newSpan.Start]...)
			spliced = append(spliced, repl...)
			spliced = append(spliced, newRunes[newSpan.Stop:]...)

			transform := slicemap.Identity(newSpan.Start).
				Concat(slicemap.Lerp(matchLen, len(repl))).
				Concat(slicemap.Identity(orig2new.TargetLen() - newSpan.Stop))
			composed, err := orig2new.Compose(transform)
			if err != nil {
				return nil, err
			}
			orig2new = composed
			newRunes = spliced
		}
	}
	return []Chunk{{Text: string(newRunes), Map: orig2new}}, nil
}
