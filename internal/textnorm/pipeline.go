// Package textnorm rewrites transcript text into a canonical spoken form
// while tracking, for every rewrite, a position map from the original text
// to the result. All positions are rune offsets.
package textnorm

import (
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/MrWong99/echodiff/internal/langtag"
	"github.com/MrWong99/echodiff/pkg/slicemap"
	"golang.org/x/text/language"
)

// ErrInconsistentMapping is returned when a stage reports a mapping whose
// dimensions do not agree with the text it consumed and produced.
var ErrInconsistentMapping = errors.New("textnorm: stage returned an inconsistent mapping")

// Chunk is a piece of stage output: the rewritten text for one slice of the
// stage's input and the map from that input slice to Text. Chunks are
// concatenated in order, so their maps must cover the input back to back.
type Chunk struct {
	Text string
	Map  slicemap.Map
}

// StageFunc rewrites text and describes the rewrite as one or more chunks.
// A whole-text rewrite returns a single chunk whose map spans the full
// input.
type StageFunc func(text string) ([]Chunk, error)

// Stage is a named text rewriting step.
type Stage struct {
	Name string
	Fn   StageFunc
}

// Option configures [Apply].
type Option func(*applyConfig)

type applyConfig struct {
	faultTolerant bool
	logger        *slog.Logger
}

// FaultTolerant makes [Apply] skip stages that fail and substitute an even
// interpolation for inconsistent mappings instead of returning an error.
// The resulting text and mapping may then be approximate.
func FaultTolerant() Option {
	return func(c *applyConfig) { c.faultTolerant = true }
}

// WithLogger sets the logger used to report skipped stages in
// fault-tolerant mode. Defaults to [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(c *applyConfig) { c.logger = logger }
}

// Apply runs the stages in order over text and accumulates the mapping from
// the original text to the final result. The returned map always has the
// original rune count as its source length and the result's rune count as
// its target length.
func Apply(text string, stages []Stage, opts ...Option) (string, slicemap.Map, error) {
	cfg := applyConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	orig2new := slicemap.Identity(utf8.RuneCountInString(text))
	for _, stage := range stages {
		chunks, err := stage.Fn(text)
		if err != nil {
			if cfg.faultTolerant {
				cfg.logger.Error("text stage failed, skipping", "stage", stage.Name, "error", err)
				continue
			}
			return "", slicemap.Map{}, fmt.Errorf("textnorm: stage %s: %w", stage.Name, err)
		}

		newText := ""
		transform := slicemap.Empty()
		for _, chunk := range chunks {
			newText += chunk.Text
			transform = transform.Concat(chunk.Map)
		}

		if transform.SourceLen() != utf8.RuneCountInString(text) ||
			transform.TargetLen() != utf8.RuneCountInString(newText) {
			if !cfg.faultTolerant {
				return "", slicemap.Map{}, fmt.Errorf("%w: stage %s mapped %dx%d for %d input and %d output runes",
					ErrInconsistentMapping, stage.Name,
					transform.SourceLen(), transform.TargetLen(),
					utf8.RuneCountInString(text), utf8.RuneCountInString(newText))
			}
			cfg.logger.Error("text stage returned an inconsistent mapping, interpolating",
				"stage", stage.Name)
			transform = slicemap.Lerp(utf8.RuneCountInString(text), utf8.RuneCountInString(newText))
		}

		orig2new, err = orig2new.Compose(transform)
		if err != nil {
			return "", slicemap.Map{}, fmt.Errorf("textnorm: stage %s: %w", stage.Name, err)
		}
		text = newText
	}
	return text, orig2new, nil
}

// Stages returns the rewriting steps applied to transcripts in the given
// language. Character standardization, whitespace collapsing and the final
// reduction to pronounced characters apply to every language; abbreviation
// and number expansion only cover English.
func Stages(tag language.Tag) []Stage {
	stages := []Stage{
		{Name: "standardize_characters", Fn: StandardizeCharacters},
		{Name: "collapse_whitespace", Fn: CollapseWhitespace},
	}
	if langtag.IsEnglish(tag) {
		stages = append(stages,
			Stage{Name: "expand_abbreviations", Fn: ExpandAbbreviations},
			Stage{Name: "normalize_numbers", Fn: NormalizeNumbers},
		)
	}
	// Dropping unpronounced characters can leave adjacent spaces behind,
	// so whitespace collapses once more at the end.
	stages = append(stages,
		Stage{Name: "keep_pronounced_only", Fn: KeepPronouncedOnly},
		Stage{Name: "collapse_whitespace", Fn: CollapseWhitespace},
	)
	return stages
}

// Normalize rewrites raw transcript text into its canonical spoken form and
// returns the mapping from the raw text to the clean text.
func Normalize(rawText string, tag language.Tag, opts ...Option) (string, slicemap.Map, error) {
	return Apply(rawText, Stages(tag), opts...)
}
