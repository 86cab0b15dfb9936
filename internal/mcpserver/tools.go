package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/MrWong99/echodiff/internal/langtag"
	"github.com/MrWong99/echodiff/internal/observe"
	"github.com/MrWong99/echodiff/internal/textdiff"
	"github.com/MrWong99/echodiff/internal/textnorm"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/metric"
)

type DiffTranscriptsArgs struct {
	Reference  []string `json:"reference" jsonschema:"Reference texts (the ground truth)"`
	Hypothesis []string `json:"hypothesis" jsonschema:"Hypothesis texts to compare (one per reference)"`
	Language   string   `json:"language,omitempty" jsonschema:"BCP 47 language tag such as en-US (defaults to the server config)"`
}

// DiffRegion is the wire form of a single diff region.
type DiffRegion struct {
	Reference  string `json:"reference"`
	Hypothesis string `json:"hypothesis"`
	Match      bool   `json:"match"`
}

// PairResult carries the diff for one reference/hypothesis pair.
type PairResult struct {
	Rendered string       `json:"rendered"`
	Regions  []DiffRegion `json:"regions"`
}

type DiffTranscriptsResult struct {
	Pairs []PairResult `json:"pairs"`
}

type NormalizeTextArgs struct {
	Text     string `json:"text" jsonschema:"Text to normalize"`
	Language string `json:"language,omitempty" jsonschema:"BCP 47 language tag such as en-US (defaults to the server config)"`
}

type NormalizeTextResult struct {
	Normalized string `json:"normalized"`
}

func (s *Server) handleDiffTranscripts(ctx context.Context, req *sdk.CallToolRequest, args DiffTranscriptsArgs) (*sdk.CallToolResult, DiffTranscriptsResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.ToolExecutionDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(observe.Attr("tool", "diff_transcripts")))
	}()

	defaultLang, _, differ := s.defaults()
	lang := args.Language
	if lang == "" {
		lang = defaultLang
	}

	diffs, err := differ.Diff(ctx, args.Reference, args.Hypothesis, lang)
	if err != nil {
		return nil, DiffTranscriptsResult{}, fmt.Errorf("diff failed: %w", err)
	}

	result := DiffTranscriptsResult{Pairs: make([]PairResult, len(diffs))}
	content := make([]sdk.Content, len(diffs))
	for i, regions := range diffs {
		pair := PairResult{
			Rendered: textdiff.Render(regions, false),
			Regions:  make([]DiffRegion, len(regions)),
		}
		for j, r := range regions {
			pair.Regions[j] = DiffRegion{
				Reference:  r.ReferenceText,
				Hypothesis: r.ComparedText,
				Match:      r.PronunciationMatch,
			}
		}
		result.Pairs[i] = pair
		content[i] = &sdk.TextContent{Text: pair.Rendered}
	}

	return &sdk.CallToolResult{Content: content}, result, nil
}

func (s *Server) handleNormalizeText(ctx context.Context, req *sdk.CallToolRequest, args NormalizeTextArgs) (*sdk.CallToolResult, NormalizeTextResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.ToolExecutionDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(observe.Attr("tool", "normalize_text")))
	}()

	defaultLang, faultTolerant, _ := s.defaults()
	lang := args.Language
	if lang == "" {
		lang = defaultLang
	}
	tag, err := langtag.Resolve(lang)
	if err != nil {
		return nil, NormalizeTextResult{}, fmt.Errorf("invalid language %q: %w", lang, err)
	}

	var opts []textnorm.Option
	if faultTolerant {
		opts = append(opts, textnorm.FaultTolerant(), textnorm.WithLogger(s.logger))
	}
	normalized, _, err := textnorm.Normalize(args.Text, tag, opts...)
	if err != nil {
		return nil, NormalizeTextResult{}, fmt.Errorf("normalization failed: %w", err)
	}

	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: normalized}},
	}, NormalizeTextResult{Normalized: normalized}, nil
}
