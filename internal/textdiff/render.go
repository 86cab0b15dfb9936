package textdiff

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	comparedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	referenceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
)

// Render formats a diff for terminal output. Matching regions appear
// verbatim; a mismatching region renders as "(compared|reference)", with the
// compared side in red and the reference side in green when withColors is
// set and the terminal supports it.
func Render(regions []Region, withColors bool) string {
	var b strings.Builder
	for _, r := range regions {
		if r.PronunciationMatch {
			b.WriteString(r.ReferenceText)
			continue
		}
		b.WriteString("(")
		if withColors {
			b.WriteString(comparedStyle.Render(r.ComparedText))
		} else {
			b.WriteString(r.ComparedText)
		}
		b.WriteString("|")
		if withColors {
			b.WriteString(referenceStyle.Render(r.ReferenceText))
		} else {
			b.WriteString(r.ReferenceText)
		}
		b.WriteString(")")
	}
	return b.String()
}
