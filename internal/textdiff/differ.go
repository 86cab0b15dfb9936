package textdiff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/MrWong99/echodiff/internal/langtag"
	"github.com/MrWong99/echodiff/internal/observe"
	"github.com/MrWong99/echodiff/internal/textnorm"
	"github.com/MrWong99/echodiff/pkg/align"
)

// ErrPairCountMismatch is returned by [Differ.Diff] when the reference and
// compared slices have different lengths.
var ErrPairCountMismatch = errors.New("textdiff: reference and compared text counts differ")

// DifferOption configures a [Differ].
type DifferOption func(*Differ)

// WithAligner sets the word aligner. Defaults to a Needleman-Wunsch aligner
// with Jaro-Winkler scoring.
func WithAligner(a align.Aligner) DifferOption {
	return func(d *Differ) { d.aligner = a }
}

// WithWorkers caps the number of pairs diffed concurrently. Defaults to
// [runtime.GOMAXPROCS].
func WithWorkers(n int) DifferOption {
	return func(d *Differ) { d.workers = n }
}

// WithLogger sets the logger. Defaults to [slog.Default].
func WithLogger(logger *slog.Logger) DifferOption {
	return func(d *Differ) { d.logger = logger }
}

// FaultTolerant makes normalization substitute a uniform map for stages that
// misreport their position mapping instead of failing the pair.
func FaultTolerant() DifferOption {
	return func(d *Differ) { d.faultTolerant = true }
}

// Differ diffs batches of (reference, compared) text pairs. The zero value
// is not usable, construct with [NewDiffer].
type Differ struct {
	aligner       align.Aligner
	workers       int
	logger        *slog.Logger
	metrics       *observe.Metrics
	faultTolerant bool
}

// NewDiffer returns a Differ ready for use.
func NewDiffer(opts ...DifferOption) *Differ {
	d := &Differ{
		aligner: align.NewNeedlemanWunsch(),
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.Default(),
		metrics: observe.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Diff diffs refs[i] against comps[i] for every i and returns one region list
// per pair, in input order, expressed over the original texts.
//
// Pairs are processed concurrently. A failing pair never affects the others:
// its slot in the result is nil and its error is joined into the returned
// error alongside any other failures.
func (d *Differ) Diff(ctx context.Context, refs, comps []string, langTag string) ([][]Region, error) {
	if len(refs) != len(comps) {
		return nil, fmt.Errorf("%w: %d references, %d compared", ErrPairCountMismatch, len(refs), len(comps))
	}
	tag, err := langtag.Resolve(langTag)
	if err != nil {
		return nil, err
	}

	results := make([][]Region, len(refs))
	errs := make([]error, len(refs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i := range refs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			regions, err := d.diffPair(ctx, refs[i], comps[i], tag)
			if err != nil {
				d.logger.ErrorContext(ctx, "diffing pair failed",
					slog.Int("pair", i), slog.String("error", err.Error()))
				d.metrics.RecordPairDiffed(ctx, "error")
				errs[i] = fmt.Errorf("pair %d: %w", i, err)
				return nil
			}
			d.metrics.RecordPairDiffed(ctx, "ok")
			results[i] = regions
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}

// DiffPair diffs a single (reference, compared) pair.
func (d *Differ) DiffPair(ctx context.Context, ref, comp, langTag string) ([]Region, error) {
	diffs, err := d.Diff(ctx, []string{ref}, []string{comp}, langTag)
	if err != nil {
		return nil, err
	}
	return diffs[0], nil
}

func (d *Differ) diffPair(ctx context.Context, ref, comp string, tag language.Tag) ([]Region, error) {
	ctx, span := observe.StartSpan(ctx, "textdiff.pair")
	defer span.End()
	start := time.Now()

	var normOpts []textnorm.Option
	if d.faultTolerant {
		normOpts = append(normOpts, textnorm.FaultTolerant(), textnorm.WithLogger(d.logger))
	}

	cleanRef, ref2clean, err := textnorm.Normalize(ref, tag, normOpts...)
	if err != nil {
		return nil, fmt.Errorf("normalizing reference: %w", err)
	}
	cleanComp, comp2clean, err := textnorm.Normalize(comp, tag, normOpts...)
	if err != nil {
		return nil, fmt.Errorf("normalizing compared text: %w", err)
	}

	regions, err := ProjectRegions(
		CleanDiff(cleanRef, cleanComp, d.aligner),
		ref, comp, ref2clean, comp2clean,
	)
	if err != nil {
		return nil, err
	}

	var mismatches int64
	for _, r := range regions {
		if !r.PronunciationMatch {
			mismatches++
		}
	}
	d.metrics.MismatchRegions.Add(ctx, mismatches)
	d.metrics.DiffDuration.Record(ctx, time.Since(start).Seconds())

	return regions, nil
}
