// Package align provides global sequence alignment of token lists.
package align

import (
	"github.com/antzucaro/matchr"
)

// Slot is one position of a global alignment: either a token from the input
// sequence or a gap where the other sequence has an unmatched token.
type Slot struct {
	Token string
	Gap   bool
}

// Aligner produces a global alignment of two token sequences. The returned
// slices always have equal length; a gap in one marks an insertion in the
// other.
type Aligner interface {
	Align(a, b []string) ([]Slot, []Slot)
}

// Scorer rates the similarity of two tokens. A perfect match scores 1, a
// complete mismatch -1.
type Scorer func(a, b string) float64

// ExactScorer scores 1 for identical tokens and -1 otherwise.
func ExactScorer(a, b string) float64 {
	if a == b {
		return 1
	}
	return -1
}

// JaroWinklerScorer scales Jaro-Winkler string similarity from [0, 1] into
// the [-1, 1] scoring range, so nearly identical words align against each
// other in preference to opening gaps.
func JaroWinklerScorer(a, b string) float64 {
	return 2*matchr.JaroWinkler(a, b, false) - 1
}

// Option configures a [NeedlemanWunsch] aligner.
type Option func(*NeedlemanWunsch)

// WithGapPenalty sets the score added for every gap. Must be negative to be
// meaningful. Defaults to -1.
func WithGapPenalty(penalty float64) Option {
	return func(nw *NeedlemanWunsch) { nw.gapPenalty = penalty }
}

// WithScorer sets the token similarity scorer. Defaults to
// [JaroWinklerScorer].
func WithScorer(scorer Scorer) Option {
	return func(nw *NeedlemanWunsch) { nw.scorer = scorer }
}

// NeedlemanWunsch is a global aligner using the Needleman-Wunsch dynamic
// programming algorithm.
type NeedlemanWunsch struct {
	gapPenalty float64
	scorer     Scorer
}

var _ Aligner = (*NeedlemanWunsch)(nil)

// NewNeedlemanWunsch returns a ready-to-use aligner.
func NewNeedlemanWunsch(opts ...Option) *NeedlemanWunsch {
	nw := &NeedlemanWunsch{
		gapPenalty: -1,
		scorer:     JaroWinklerScorer,
	}
	for _, opt := range opts {
		opt(nw)
	}
	return nw
}

// Align computes the highest-scoring global alignment of a and b. Ties
// resolve deterministically, preferring substitution over gaps and gaps in
// b over gaps in a.
func (nw *NeedlemanWunsch) Align(a, b []string) ([]Slot, []Slot) {
	m, n := len(a), len(b)

	score := make([][]float64, m+1)
	for i := range score {
		score[i] = make([]float64, n+1)
	}
	for i := 1; i <= m; i++ {
		score[i][0] = float64(i) * nw.gapPenalty
	}
	for j := 1; j <= n; j++ {
		score[0][j] = float64(j) * nw.gapPenalty
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			diag := score[i-1][j-1] + nw.scorer(a[i-1], b[j-1])
			up := score[i-1][j] + nw.gapPenalty
			left := score[i][j-1] + nw.gapPenalty
			score[i][j] = max(diag, up, left)
		}
	}

	// Traceback from the bottom-right corner.
	var outA, outB []Slot
	i, j := m, n
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && score[i][j] == score[i-1][j-1]+nw.scorer(a[i-1], b[j-1]):
			outA = append(outA, Slot{Token: a[i-1]})
			outB = append(outB, Slot{Token: b[j-1]})
			i--
			j--
		case i > 0 && score[i][j] == score[i-1][j]+nw.gapPenalty:
			outA = append(outA, Slot{Token: a[i-1]})
			outB = append(outB, Slot{Gap: true})
			i--
		default:
			outA = append(outA, Slot{Gap: true})
			outB = append(outB, Slot{Token: b[j-1]})
			j--
		}
	}

	reverse(outA)
	reverse(outB)
	return outA, outB
}

func reverse(slots []Slot) {
	for i, j := 0, len(slots)-1; i < j; i, j = i+1, j-1 {
		slots[i], slots[j] = slots[j], slots[i]
	}
}
