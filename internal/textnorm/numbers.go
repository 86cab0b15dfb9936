package textnorm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/MrWong99/echodiff/pkg/slicemap"
)

// Number rules work on a word-level convention: the text is split into
// whitespace-delimited words, each carrying its own map from the original
// word to its current replacement. Rules match against the joined text and
// swap out whole words.

var (
	commaNumberRe   = regexp.MustCompile(`(\(?[A-Z]{2,3})?([$|£|¥|€|#|(]*[0-9][0-9,.]+[0-9])([^\s]+)?`)
	decimalNumberRe = regexp.MustCompile(`(number\s)?([0-9]+\.[0-9]+)(\.|,|\?|!)?`)
	hashNumberRe    = regexp.MustCompile(`(#)([0-9]+(?:\.[0-9]+)?)(\.|,|\?|!)?`)

	poundsRe  = regexp.MustCompile(`(\(?£)([0-9.]*[0-9]+)(\.|,|\?|!)?`)
	yenRe     = regexp.MustCompile(`(\(?¥)([0-9]+)(\.|,|\?|!)?`)
	euroRe    = regexp.MustCompile(`(\(?€)([0-9.]*[0-9]+)(\.|,|\?|!)?`)
	dollarsRe = regexp.MustCompile(`(\(?\$)([0-9,]*\.?[0-9]+)([.|,?!)]+)?`)

	// Currency with an abbreviated magnitude, e.g. $5B or $1.2 billion.
	currAbbrevRe = regexp.MustCompile(`(\(?[$£¥€])([0-9]*\.?[0-9]+)([BKMT]| [BMbmTtr]+illion)([.|,?!)]+)?`)

	mlRe = regexp.MustCompile(`([0-9.]*[0-9]+)(ml)(\.|,|\?|!)?`)
	clRe = regexp.MustCompile(`([0-9.]*[0-9]+)(cl)(\.|,|\?|!)?`)
	gRe  = regexp.MustCompile(`([0-9.]*[0-9]+)(g)(\.|,|\?|!)?`)
	lRe  = regexp.MustCompile(`([0-9.]*[0-9]+)(l)(\.|,|\?|!)?`)
	mRe  = regexp.MustCompile(`([0-9.]*[0-9]+)(m)(\.|,|\?|!)?`)
	kgRe = regexp.MustCompile(`([0-9.]*[0-9]+)(kg)(\.|,|\?|!)?`)
	mmRe = regexp.MustCompile(`([0-9.]*[0-9]+)(mm)(\.|,|\?|!)?`)
	cmRe = regexp.MustCompile(`([0-9.]*[0-9]+)(cm)(\.|,|\?|!)?`)
	kmRe = regexp.MustCompile(`([0-9.]*[0-9]+)(km)(\.|,|\?|!)?`)
	inRe = regexp.MustCompile(`([0-9.]*[0-9]+)(in)(\.|,|\?|!)?`)
	ftRe = regexp.MustCompile(`([0-9.]*[0-9]+)(ft)(\.|,|\?|!)?`)
	ydRe = regexp.MustCompile(`([0-9.]*[0-9]+)(yds?)(\.|,|\?|!)?`)
	sRe  = regexp.MustCompile(`([0-9.]*[0-9]+)(s[ecs]*)(\.|,|\?|!)?`)

	ordinalRe = regexp.MustCompile(`([0-9]+)(st|nd|rd|th)`)
	numberRe  = regexp.MustCompile(`([0-9]+)(\.|,|\?|!)?`)
	yearRe    = regexp.MustCompile(`([Ff]rom|[Aa]fter|[Bb]efore|[Bb]y|[Uu]ntil)(\s)(1[1-9]|20)([0-9]{2})(\.|,|\?|!)?($|\s)`)
	timeRe    = regexp.MustCompile(`([0-2]?[0-9]):([0-9]{2})(am|pm)?(\.|,|\?|!)?($|\s)`)

	digitsRe = regexp.MustCompile(`[0-9]+`)
)

var unitsWords = []string{
	"", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
	"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
	"seventeen", "eighteen", "nineteen",
}

var tensWords = []string{
	"", "ten", "twenty", "thirty", "forty", "fifty",
	"sixty", "seventy", "eighty", "ninety",
}

var digitGroupWords = []string{
	"", "thousand", "million", "billion", "trillion", "quadrillion",
}

var ordinalSuffixes = []struct {
	suffix, replacement string
}{
	{"one", "first"},
	{"two", "second"},
	{"three", "third"},
	{"five", "fifth"},
	{"eight", "eighth"},
	{"nine", "ninth"},
	{"twelve", "twelfth"},
	{"ty", "tieth"},
}

var subTenNums = map[string]bool{
	"00": true, "01": true, "02": true, "03": true, "04": true,
	"05": true, "06": true, "07": true, "08": true, "09": true,
}

var currWords = map[string]string{
	"$": "dollars",
	"£": "pounds",
	"¥": "yen",
	"€": "euros",
}

var magnitudeWords = map[string]string{
	"B": "billion",
	"K": "thousand",
	"M": "million",
	"T": "trillion",
}

type wordEntry struct {
	text string
	m    slicemap.Map
}

type numberRule func(text string, entries []wordEntry) (string, []wordEntry, error)

var numberRules = []numberRule{
	removeCommas,
	expandYears,
	expandAbbreviatedCurrencyUnits,
	otherCurrency(poundsRe, "pound", "pounds"),
	otherCurrency(yenRe, "yen", "yen"),
	otherCurrency(euroRe, "euro", "euros"),
	otherUnit(mlRe, "milliliter", "milliliters"),
	otherUnit(clRe, "centiliter", "centiliters"),
	otherUnit(gRe, "gram", "grams"),
	otherUnit(kgRe, "kilogram", "kilograms"),
	otherUnit(mmRe, "millimeter", "millimeters"),
	otherUnit(cmRe, "centimeter", "centimeters"),
	otherUnit(kmRe, "kilometer", "kilometers"),
	otherUnit(inRe, "inch", "inches"),
	otherUnit(ftRe, "foot", "feet"),
	otherUnit(lRe, "liter", "liters"),
	otherUnit(mRe, "meter", "meters"),
	otherUnit(ydRe, "yard", "yards"),
	otherUnit(sRe, "second", "seconds"),
	expandDollars,
	convertHash,
	expandDecimalPoints,
	expandTimes,
	expandOrdinals,
	expandNumbers,
}

// NormalizeNumbers expands digits, currencies, units, times and ordinals
// into words. The rules only cover English.
func NormalizeNumbers(text string) ([]Chunk, error) {
	words := splitKeepWhitespace(text)
	entries := make([]wordEntry, len(words))
	for i, word := range words {
		entries[i] = wordEntry{text: word, m: slicemap.Identity(utf8.RuneCountInString(word))}
	}

	var err error
	for _, rule := range numberRules {
		text, entries, err = rule(text, entries)
		if err != nil {
			return nil, err
		}
	}

	chunks := make([]Chunk, len(entries))
	for i, e := range entries {
		chunks[i] = Chunk{Text: e.text, Map: e.m}
	}
	return chunks, nil
}

func joinWords(entries []wordEntry) string {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(e.text)
	}
	return sb.String()
}

// replaceEqualWords swaps every word currently equal to raw for the
// replacement, interpolating the word's original length onto the new one.
func replaceEqualWords(entries []wordEntry, raw, replacement string) {
	for i, e := range entries {
		if e.text == raw {
			entries[i] = wordEntry{
				text: replacement,
				m:    slicemap.Lerp(e.m.SourceLen(), utf8.RuneCountInString(replacement)),
			}
		}
	}
}

// spaceOut joins the runes of s with single spaces, e.g. "50" to "5 0".
func spaceOut(s string) string {
	runes := []rune(s)
	parts := make([]string, len(runes))
	for i, r := range runes {
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}

func removeCommas(text string, entries []wordEntry) (string, []wordEntry, error) {
	for _, m := range commaNumberRe.FindAllStringSubmatch(text, -1) {
		replacement := strings.ReplaceAll(m[2], ",", "") + m[3]
		replaceEqualWords(entries, m[0], replacement)
	}
	return joinWords(entries), entries, nil
}

func expandYears(text string, entries []wordEntry) (string, []wordEntry, error) {
	for _, m := range yearRe.FindAllStringSubmatch(text, -1) {
		prep, millCent, decYear, post := m[1], m[3], m[4], m[5]

		var yearOut string
		switch {
		case millCent == "20" && subTenNums[decYear]:
			// 2000-2009 read as plain numbers.
			yearOut = millCent + decYear
		case subTenNums[decYear]:
			yearOut = millCent + " oh " + decYear[len(decYear)-1:]
		default:
			mc, err := strconv.Atoi(millCent)
			if err != nil {
				return "", nil, err
			}
			dy, err := strconv.Atoi(decYear)
			if err != nil {
				return "", nil, err
			}
			yearOut = numberToWords(mc) + " " + numberToWords(dy)
		}
		yearOut += post

		// Only rewrite the year when it directly follows the matched
		// preposition, two words back across the whitespace entry.
		raw := millCent + decYear + post
		for i, e := range entries {
			if e.text == raw && i >= 2 && entries[i-2].text == prep {
				entries[i] = wordEntry{
					text: yearOut,
					m:    slicemap.Lerp(e.m.SourceLen(), utf8.RuneCountInString(yearOut)),
				}
			}
		}
	}
	return joinWords(entries), entries, nil
}

func expandAbbreviatedCurrencyUnits(text string, entries []wordEntry) (string, []wordEntry, error) {
	toRemove := make(map[int]bool)

	for _, m := range currAbbrevRe.FindAllStringSubmatch(text, -1) {
		curr := strings.TrimPrefix(m[1], "(")
		val, unit, punc := m[2], m[3], m[4]

		valParts := strings.SplitN(val, ".", 2)
		valOut := valParts[0]
		if len(valParts) > 1 {
			valOut += " point " + spaceOut(valParts[1])
		}

		unitWord, ok := magnitudeWords[unit]
		if !ok {
			unitWord = unit
		}
		out := valOut + " " + unitWord + " " + currWords[curr] + punc

		for i := range entries {
			if entries[i].text == m[0] {
				entries[i] = wordEntry{
					text: out,
					m:    slicemap.Lerp(entries[i].m.SourceLen(), utf8.RuneCountInString(out)),
				}
			}
			// The magnitude word may sit across the following whitespace,
			// e.g. "$1 billion" spans three entries. Merge them into one.
			if i+2 < len(entries) {
				joined := entries[i].text + entries[i+1].text + entries[i+2].text
				if joined == m[0] {
					entries[i] = wordEntry{
						text: out,
						m:    slicemap.Lerp(utf8.RuneCountInString(m[0]), utf8.RuneCountInString(out)),
					}
					toRemove[i+1] = true
					toRemove[i+2] = true
				}
			}
		}
	}

	if len(toRemove) > 0 {
		kept := entries[:0]
		for i, e := range entries {
			if !toRemove[i] {
				kept = append(kept, e)
			}
		}
		entries = kept
	}
	return joinWords(entries), entries, nil
}

func otherCurrency(re *regexp.Regexp, one, many string) numberRule {
	return func(text string, entries []wordEntry) (string, []wordEntry, error) {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			parts := strings.SplitN(m[2], ".", 2)
			n, err := strconv.Atoi(parts[0])
			if err != nil {
				return "", nil, err
			}
			curr := many
			if n == 1 {
				curr = one
			}
			out := parts[0] + " " + curr
			if len(parts) > 1 {
				out += " " + parts[1]
			}
			replaceEqualWords(entries, m[0], out)
		}
		return joinWords(entries), entries, nil
	}
}

func otherUnit(re *regexp.Regexp, one, many string) numberRule {
	return func(text string, entries []wordEntry) (string, []wordEntry, error) {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			parts := strings.SplitN(m[1], ".", 2)
			var out string
			if len(parts) > 1 {
				// Decimals read digit by digit, always with the plural unit.
				dec := ""
				for _, r := range parts[1] {
					dec += string(r) + " "
				}
				out = parts[0] + " point " + dec + many
			} else {
				unit := many
				if parts[0] == "1" {
					unit = one
				}
				out = parts[0] + " " + unit
			}
			out += m[3]
			replaceEqualWords(entries, m[0], out)
		}
		return joinWords(entries), entries, nil
	}
}

func expandDollars(text string, entries []wordEntry) (string, []wordEntry, error) {
	for _, m := range dollarsRe.FindAllStringSubmatch(text, -1) {
		parts := strings.SplitN(m[2], ".", 2)
		var dollars, cents int
		var err error
		if parts[0] != "" {
			if dollars, err = strconv.Atoi(parts[0]); err != nil {
				return "", nil, err
			}
		}
		if len(parts) > 1 && parts[1] != "" {
			if cents, err = strconv.Atoi(parts[1]); err != nil {
				return "", nil, err
			}
		}

		var out string
		switch {
		case dollars != 0 && cents != 0:
			out = fmt.Sprintf("%d %s, %d %s", dollars, plural(dollars, "dollar"), cents, plural(cents, "cent"))
		case dollars != 0:
			out = fmt.Sprintf("%d %s", dollars, plural(dollars, "dollar"))
		case cents != 0:
			out = fmt.Sprintf("%d %s", cents, plural(cents, "cent"))
		default:
			out = "zero dollars"
		}
		out += m[3]
		replaceEqualWords(entries, m[0], out)
	}
	return joinWords(entries), entries, nil
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

func convertHash(text string, entries []wordEntry) (string, []wordEntry, error) {
	for _, m := range hashNumberRe.FindAllStringSubmatch(text, -1) {
		replaceEqualWords(entries, m[0], "number "+m[2]+m[3])
	}
	return joinWords(entries), entries, nil
}

func expandDecimalPoints(text string, entries []wordEntry) (string, []wordEntry, error) {
	for _, m := range decimalNumberRe.FindAllStringSubmatch(text, -1) {
		out := m[1] + strings.ReplaceAll(m[2], ".", " point ") + m[3]
		replaceEqualWords(entries, m[0], out)
	}
	return joinWords(entries), entries, nil
}

func expandTimes(text string, entries []wordEntry) (string, []wordEntry, error) {
	for _, m := range timeRe.FindAllStringSubmatch(text, -1) {
		hour := strings.Trim(m[1], "0")
		minute := m[2]
		switch {
		case minute == "00":
			minute = ""
		case minute[0] == '0':
			minute = "oh " + minute[1:]
		}

		var out string
		if m[3] != "" {
			out = strings.Join([]string{hour, minute, spaceOut(m[3])}, " ")
		} else {
			out = strings.Join([]string{hour, minute}, " ")
		}
		out += m[4]

		raw := m[1] + ":" + m[2] + m[3] + m[4]
		replaceEqualWords(entries, raw, out)
	}
	return joinWords(entries), entries, nil
}

func expandOrdinals(text string, entries []wordEntry) (string, []wordEntry, error) {
	for _, m := range ordinalRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return "", nil, err
		}
		numWord := numberToWords(n)
		out := numWord + "th"
		for _, s := range ordinalSuffixes {
			if strings.HasSuffix(numWord, s.suffix) {
				out = numWord[:len(numWord)-len(s.suffix)] + s.replacement
				break
			}
		}
		replaceEqualWords(entries, m[0], out)
	}
	return joinWords(entries), entries, nil
}

func expandNumbers(text string, entries []wordEntry) (string, []wordEntry, error) {
	for _, m := range numberRe.FindAllStringSubmatch(text, -1) {
		out := m[1] + m[2]
		if n, err := strconv.Atoi(m[1]); err == nil {
			out = numberToWords(n) + m[2]
		}

		// Only whole words whose digit run equals the full match get
		// rewritten, so trailing punctuation blocks this rule.
		for i, e := range entries {
			digits := digitsRe.FindString(e.text)
			if digits == "" || digits != m[0] {
				continue
			}
			replaced := strings.ReplaceAll(e.text, m[0], out)
			entries[i] = wordEntry{
				text: replaced,
				m:    slicemap.Lerp(e.m.SourceLen(), utf8.RuneCountInString(replaced)),
			}
		}
	}
	return joinWords(entries), entries, nil
}

func standardNumberToWords(n, digitGroup int) string {
	var parts []string
	if n >= 1000 {
		parts = append(parts, standardNumberToWords(n/1000, digitGroup+1))
		n %= 1000
	}
	if n >= 100 {
		parts = append(parts, unitsWords[n/100]+" hundred")
	}
	if n%100 >= len(unitsWords) {
		parts = append(parts, tensWords[(n%100)/10], unitsWords[n%100%10])
	} else {
		parts = append(parts, unitsWords[n%100])
	}
	if n > 0 {
		parts = append(parts, digitGroupWords[digitGroup])
	}

	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

func numberToWords(n int) string {
	switch {
	case n >= 1000000000000000000:
		// Too large to read out, keep the digits.
		return strconv.Itoa(n)
	case n == 0:
		return "zero"
	case n%100 == 0 && n%1000 != 0 && n < 3000:
		// Round hundreds below three thousand read as "<n> hundred".
		return standardNumberToWords(n/100, 0) + " hundred"
	default:
		return standardNumberToWords(n, 0)
	}
}
