// Package slicemap implements monotone, possibly many-to-many mappings
// between two discrete index spaces.
//
// A [Map] from a source space X of size SourceLen to a target space Y of size
// TargetLen associates every source index with a [Span] of consecutive target
// indices:
//
//   - X[i] maps to Y[m.At(i)]
//   - X[i:j] maps to Y[m.Range(i, j)], the span from the leftmost target
//     index of X[i] to the rightmost target index of X[j-1]
//
// Spans may be empty (Stop <= Start), which encodes a source element that maps
// to nothing — a deleted character, for example — while still being anchored
// at a definite target position. The anchor is load-bearing: [Map.Inverse] and
// [Map.Concat] rely on it to round-trip correctly, so empty spans are never
// canonicalised to a single "empty" representation.
//
// Maps are immutable values. Every operation returns a new Map and the zero
// value is the valid 0x0 mapping. The algebra closes under [Map.Compose]
// (sequential application), [Map.Concat] (side-by-side joining of both
// spaces), and [Map.Inverse] (role swap, bijective even across gaps and
// overlaps).
//
// The primary consumer is the text-normalization pipeline, which tracks how
// rune offsets of a raw transcript move through a chain of rewrites; all the
// position arithmetic needed to project alignment results back onto the raw
// text lives here.
package slicemap

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidMap is returned when span bounds escape the target space or the
// span sequence is not monotone. It indicates a programming error in the
// caller constructing the map and is never recovered from.
var ErrInvalidMap = errors.New("slicemap: invalid map")

// ErrDimensionMismatch is returned by [Map.Compose] when the left map's
// target space differs in size from the right map's source space, and by
// [Project] via [ErrLengthMismatch] semantics for data of the wrong length.
var ErrDimensionMismatch = errors.New("slicemap: dimension mismatch")

// ErrLengthMismatch is returned by [Project] when the data length does not
// equal the map's source length.
var ErrLengthMismatch = errors.New("slicemap: length mismatch")

// ErrUnsupportedStep is returned by [Map.RangeStep] for any step other than 1.
var ErrUnsupportedStep = errors.New("slicemap: only steps of 1 are supported")

// Span is a half-open range [Start, Stop) of target indices. A Span with
// Stop <= Start is empty but remains anchored at its position; Stop < Start
// is legal inside a [Map] and must not be treated as malformed.
type Span struct {
	Start int
	Stop  int
}

// Len returns the number of indices covered by the span. Empty spans
// (Stop <= Start) have length 0.
func (s Span) Len() int {
	if s.Stop <= s.Start {
		return 0
	}
	return s.Stop - s.Start
}

// IsEmpty reports whether the span covers no indices.
func (s Span) IsEmpty() bool { return s.Stop <= s.Start }

// String returns the span in start:stop notation.
func (s Span) String() string { return fmt.Sprintf("%d:%d", s.Start, s.Stop) }

// Map is an immutable mapping from a source index space to a target index
// space. The zero value is the valid 0x0 map, identical to [Empty].
type Map struct {
	spans     []Span
	targetLen int
}

// New builds a [Map] from one span per source index. It returns
// [ErrInvalidMap] unless every span satisfies 0 <= Start <= targetLen and
// 0 <= Stop <= targetLen, and both the Start and the Stop columns are
// non-decreasing across the span sequence. Consecutive overlapping spans
// (e.g. 0:2, 0:2) are allowed, as are empty spans (Stop <= Start).
//
// The input slice is copied; the caller keeps ownership of spans.
func New(spans []Span, targetLen int) (Map, error) {
	if targetLen < 0 {
		return Map{}, fmt.Errorf("%w: negative target length %d", ErrInvalidMap, targetLen)
	}
	for i, sp := range spans {
		if sp.Start < 0 || sp.Start > targetLen || sp.Stop < 0 || sp.Stop > targetLen {
			return Map{}, fmt.Errorf("%w: span %d (%v) out of bounds for target length %d",
				ErrInvalidMap, i, sp, targetLen)
		}
		if i > 0 {
			prev := spans[i-1]
			if sp.Start < prev.Start || sp.Stop < prev.Stop {
				return Map{}, fmt.Errorf("%w: span %d (%v) decreases below span %d (%v)",
					ErrInvalidMap, i, sp, i-1, prev)
			}
		}
	}
	return Map{spans: slices.Clone(spans), targetLen: targetLen}, nil
}

// SourceLen returns the size of the source space.
func (m Map) SourceLen() int { return len(m.spans) }

// TargetLen returns the size of the target space.
func (m Map) TargetLen() int { return m.targetLen }

// Spans returns a copy of the per-source-index span sequence.
func (m Map) Spans() []Span { return slices.Clone(m.spans) }

// At returns the target span for source index i, equivalent to
// m.Range(i, i+1). Out-of-range indices yield an anchored empty span, never
// a panic.
func (m Map) At(i int) Span { return m.Range(i, i+1) }

// Range returns the target span covered by the source range [i, j). Both
// bounds are clamped into [0, SourceLen]. An empty source range yields an
// empty target span anchored consistently with its neighbours: the span
// starts where the element at the clamped position starts (or at TargetLen
// past the end) and stops where the preceding element stops, clamped so that
// Stop >= Start.
func (m Map) Range(i, j int) Span {
	lo := clamp(i, 0, len(m.spans))
	hi := clamp(j, 0, len(m.spans))
	if hi > lo {
		return Span{Start: m.spans[lo].Start, Stop: m.spans[hi-1].Stop}
	}

	// Empty view: derive an anchored empty span from the nearest neighbours.
	start := m.targetLen
	if lo < len(m.spans) {
		start = m.spans[lo].Start
	}
	stop := 0
	if lo > 0 {
		stop = m.spans[lo-1].Stop
	}
	if stop < start {
		stop = start
	}
	return Span{Start: start, Stop: stop}
}

// RangeStep is [Map.Range] with an explicit step argument. Only step 1 is
// supported; any other value returns [ErrUnsupportedStep].
func (m Map) RangeStep(i, j, step int) (Span, error) {
	if step != 1 {
		return Span{}, fmt.Errorf("%w: got step %d", ErrUnsupportedStep, step)
	}
	return m.Range(i, j), nil
}

// Project maps data from the source space into the target space. Every
// source index writes its value into all target positions of its span;
// where spans overlap, the higher source index wins. Target positions not
// covered by any span receive fill.
//
// Returns [ErrLengthMismatch] unless len(data) == m.SourceLen().
func Project[T any](m Map, data []T, fill T) ([]T, error) {
	if len(data) != len(m.spans) {
		return nil, fmt.Errorf("%w: data length %d, source length %d",
			ErrLengthMismatch, len(data), len(m.spans))
	}
	out := make([]T, m.targetLen)
	for i := range out {
		out[i] = fill
	}
	for i, sp := range m.spans {
		for t := sp.Start; t < sp.Stop; t++ {
			out[t] = data[i]
		}
	}
	return out, nil
}

// Inverse returns the mapping in the opposite direction, swapping the source
// and target roles. The operation is bijective even in the presence of gaps
// (target positions nothing maps to) and overlaps (target positions several
// source indices map to): m.Inverse().Inverse() is structurally equal to m.
//
// The algorithm finds the points of interest — the indices where the Start or
// Stop column changes value — and assigns each run of target positions to the
// source index whose span produced that boundary.
func (m Map) Inverse() Map {
	n := len(m.spans)

	// Append a terminal sentinel span so the final run is bounded.
	bounded := make([]Span, n+1)
	copy(bounded, m.spans)
	bounded[n] = Span{Start: m.targetLen, Stop: m.targetLen}

	var startPOIs, stopPOIs []int
	prev := Span{}
	for k, sp := range bounded {
		if sp.Stop != prev.Stop {
			startPOIs = append(startPOIs, k)
		}
		if sp.Start != prev.Start {
			stopPOIs = append(stopPOIs, k)
		}
		prev = sp
	}

	starts := repeatByDelta(startPOIs, bounded, func(s Span) int { return s.Stop }, m.targetLen)
	stops := repeatByDelta(stopPOIs, bounded, func(s Span) int { return s.Start }, m.targetLen)

	inv := make([]Span, m.targetLen)
	for t := range inv {
		inv[t] = Span{Start: starts[t], Stop: stops[t]}
	}
	return Map{spans: inv, targetLen: n}
}

// repeatByDelta expands each point of interest k into (col(bounded[k]) -
// previous column value) copies of k, producing exactly total entries.
func repeatByDelta(pois []int, bounded []Span, col func(Span) int, total int) []int {
	out := make([]int, 0, total)
	prev := 0
	for _, k := range pois {
		v := col(bounded[k])
		for range v - prev {
			out = append(out, k)
		}
		prev = v
	}
	return out
}

// Compose returns the sequential composition of m (X→Y) with other (Y→Z),
// producing the X→Z map. Returns [ErrDimensionMismatch] unless
// m.TargetLen() == other.SourceLen().
func (m Map) Compose(other Map) (Map, error) {
	if m.targetLen != other.SourceLen() {
		return Map{}, fmt.Errorf("%w: cannot compose %dx%d map with %dx%d map",
			ErrDimensionMismatch, m.SourceLen(), m.targetLen, other.SourceLen(), other.targetLen)
	}
	spans := make([]Span, len(m.spans))
	for i, sp := range m.spans {
		spans[i] = other.Range(sp.Start, sp.Stop)
	}
	return New(spans, other.targetLen)
}

// Concat joins two maps side by side: with m mapping X1→Y1 and other mapping
// X2→Y2, the result maps the concatenated source space X1++X2 to the
// concatenated target space Y1++Y2. Spans of other are shifted by
// m.TargetLen().
func (m Map) Concat(other Map) Map {
	spans := make([]Span, 0, len(m.spans)+other.SourceLen())
	spans = append(spans, m.spans...)
	for _, sp := range other.spans {
		spans = append(spans, Span{Start: sp.Start + m.targetLen, Stop: sp.Stop + m.targetLen})
	}
	return Map{spans: spans, targetLen: m.targetLen + other.targetLen}
}

// Equal reports structural equality: same source length, same target length,
// and an identical span sequence (anchors of empty spans included).
func (m Map) Equal(other Map) bool {
	return m.targetLen == other.targetLen && slices.Equal(m.spans, other.spans)
}

// String renders the map dimensions and span list for debugging.
func (m Map) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<%dx%d map:", len(m.spans), m.targetLen)
	for _, sp := range m.spans {
		fmt.Fprintf(&b, " %v", sp)
	}
	b.WriteString(">")
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
