package slicemap

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrNoPath is returned by [ComposeByName] when no chain of maps leads from
// the requested source name to the requested target name.
var ErrNoPath = errors.New("slicemap: no composition path found")

// ErrCycle is returned by [ComposeByName] when following the chain revisits
// a map, which would otherwise loop forever.
var ErrCycle = errors.New("slicemap: cycle detected")

// Empty returns the 0x0 map. It is the neutral element of [Map.Concat].
func Empty() Map { return Map{} }

// Identity returns the n×n map where every index maps to itself.
func Identity(n int) Map {
	spans := make([]Span, n)
	for i := range spans {
		spans[i] = Span{Start: i, Stop: i + 1}
	}
	return Map{spans: spans, targetLen: n}
}

// Full returns the map where every source index maps to the entire target
// range. It models a stretch of text that collapsed into (or expanded from)
// a single replacement unit.
func Full(sourceLen, targetLen int) Map {
	spans := make([]Span, sourceLen)
	for i := range spans {
		spans[i] = Span{Start: 0, Stop: targetLen}
	}
	return Map{spans: spans, targetLen: targetLen}
}

// Lerp returns a map that linearly interpolates between spaces of the given
// sizes, spreading the indices of the smaller space as evenly as possible
// across the larger one. For example Lerp(6, 12) maps source range 2:3 to
// target range 4:6.
//
// The spread is balanced: over all source indices, the number of source
// indices landing in any one target position differs by at most 1 between
// the most- and least-covered positions.
func Lerp(sourceLen, targetLen int) Map {
	low := min(sourceLen, targetLen)
	high := max(sourceLen, targetLen)

	// Unit spans over evenly spaced breakpoints, always built in the
	// larger→smaller direction, then inverted if the target is the larger.
	spans := make([]Span, high)
	for k := range spans {
		idx := k * low / high
		spans[k] = Span{Start: idx, Stop: min(idx+1, low)}
	}
	m := Map{spans: spans, targetLen: low}

	if targetLen == low {
		return m
	}
	return m.Inverse()
}

// Window returns a map whose source indices map one-to-one onto the
// sub-range [start, stop) of a target space of the given size. It is the
// inverse of [Eye]. Returns [ErrInvalidMap] unless
// 0 <= start <= stop <= targetLen.
func Window(start, stop, targetLen int) (Map, error) {
	if start < 0 || start > stop || stop > targetLen {
		return Map{}, fmt.Errorf("%w: window %d:%d in target length %d",
			ErrInvalidMap, start, stop, targetLen)
	}
	spans := make([]Span, stop-start)
	for i := range spans {
		spans[i] = Span{Start: start + i, Stop: start + i + 1}
	}
	return Map{spans: spans, targetLen: targetLen}, nil
}

// Eye returns a map over a source space of the given length where the
// indices before start map to nothing, the indices in [start, stop) map
// one-to-one onto the target space, and the indices from stop on map to
// nothing. It is the inverse of [Window]. Returns [ErrInvalidMap] unless
// 0 <= start <= stop <= length.
func Eye(start, stop, length int) (Map, error) {
	if start < 0 || start > stop || stop > length {
		return Map{}, fmt.Errorf("%w: eye %d:%d in length %d", ErrInvalidMap, start, stop, length)
	}
	return Full(start, 0).Concat(Identity(stop - start)).Concat(Full(length-stop, 0)), nil
}

// FromOneToOne builds a map where source index i covers exactly the unit
// span positions[i] : positions[i]+1. The positions must be non-decreasing
// and within the target space; violations return [ErrInvalidMap].
func FromOneToOne(positions []int, targetLen int) (Map, error) {
	spans := make([]Span, len(positions))
	for i, p := range positions {
		spans[i] = Span{Start: p, Stop: p + 1}
	}
	return New(spans, targetLen)
}

// FromRanges builds a map from the non-cumulative run-length form: source
// index i covers the next lengths[i] target positions, ranges laid out
// back to back. The target length is the sum of all lengths. Negative
// lengths return [ErrInvalidMap].
func FromRanges(lengths []int) (Map, error) {
	spans := make([]Span, len(lengths))
	pos := 0
	for i, n := range lengths {
		spans[i] = Span{Start: pos, Stop: pos + n}
		pos += n
	}
	return New(spans, pos)
}

// ComposeByName composes maps transitively based on their names. Every key
// in mappings must follow the "source2target" convention (exactly one '2'),
// and name requests the composition to build: ComposeByName("a2c", {"a2b":
// ab, "b2c": bc}) returns ab.Compose(bc).
//
// The chain is walked from the requested source name, at each step picking
// the map (first in lexical key order, for determinism) whose source name
// matches the current position. Returns [ErrNoPath] when the target name is
// unreachable and [ErrCycle] when a map is revisited. Unused maps are
// ignored.
func ComposeByName(name string, mappings map[string]Map) (Map, error) {
	source, target, err := splitMapName(name)
	if err != nil {
		return Map{}, err
	}

	type edge struct {
		src, dst string
		m        Map
	}
	keys := slices.Sorted(maps.Keys(mappings))
	edges := make([]edge, 0, len(keys))
	for _, k := range keys {
		s, t, err := splitMapName(k)
		if err != nil {
			return Map{}, err
		}
		edges = append(edges, edge{src: s, dst: t, m: mappings[k]})
	}

	if source == target {
		return Map{}, fmt.Errorf("%w: source %q equals target %q", ErrNoPath, source, target)
	}
	if !slices.ContainsFunc(edges, func(e edge) bool { return e.dst == target }) {
		return Map{}, fmt.Errorf("%w: target name %q not found", ErrNoPath, target)
	}

	var composed Map
	have := false
	seen := make(map[string]bool, len(edges))
	dim := source
	for dim != target {
		idx := slices.IndexFunc(edges, func(e edge) bool { return e.src == dim })
		if idx < 0 {
			return Map{}, fmt.Errorf("%w: no map with source name %q", ErrNoPath, dim)
		}
		key := edges[idx].src + "2" + edges[idx].dst
		if seen[key] {
			return Map{}, fmt.Errorf("%w: revisited map %q", ErrCycle, key)
		}
		seen[key] = true

		if !have {
			composed = edges[idx].m
			have = true
		} else {
			composed, err = composed.Compose(edges[idx].m)
			if err != nil {
				return Map{}, err
			}
		}
		dim = edges[idx].dst
	}
	return composed, nil
}

func splitMapName(name string) (source, target string, err error) {
	parts := strings.Split(name, "2")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("slicemap: map name %q does not follow the source2target convention", name)
	}
	return parts[0], parts[1], nil
}
