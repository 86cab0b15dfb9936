package slicemap_test

import (
	"errors"
	"testing"

	"github.com/MrWong99/echodiff/pkg/slicemap"
)

// sp is shorthand for a span literal.
func sp(start, stop int) slicemap.Span {
	return slicemap.Span{Start: start, Stop: stop}
}

// mustNew builds a map or fails the test.
func mustNew(t *testing.T, spans []slicemap.Span, targetLen int) slicemap.Map {
	t.Helper()
	m, err := slicemap.New(spans, targetLen)
	if err != nil {
		t.Fatalf("New(%v, %d): %v", spans, targetLen, err)
	}
	return m
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		spans     []slicemap.Span
		targetLen int
		wantErr   bool
	}{
		{"negative stop", []slicemap.Span{sp(0, -1)}, 10, true},
		{"stop beyond target", []slicemap.Span{sp(0, 1), sp(1, 2)}, 1, true},
		{"decreasing starts", []slicemap.Span{sp(1, 1), sp(0, 2)}, 2, true},
		{"decreasing stops", []slicemap.Span{sp(0, 2), sp(0, 1)}, 2, true},
		{"consecutive overlaps allowed", []slicemap.Span{sp(0, 2), sp(0, 2)}, 2, false},
		{"anchored empty span allowed", []slicemap.Span{sp(2, 1)}, 2, false},
		{"map to nothing", []slicemap.Span{sp(0, 0), sp(0, 0)}, 0, false},
		{"map from nothing", nil, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := slicemap.New(tt.spans, tt.targetLen)
			if tt.wantErr && !errors.Is(err, slicemap.ErrInvalidMap) {
				t.Errorf("New(%v, %d): err = %v, want ErrInvalidMap", tt.spans, tt.targetLen, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("New(%v, %d): unexpected error %v", tt.spans, tt.targetLen, err)
			}
		})
	}
}

func TestMap_AtAndRange(t *testing.T) {
	t.Parallel()

	// X[i] maps to the span of entry i.
	m := mustNew(t, []slicemap.Span{sp(0, 1), sp(1, 2)}, 2)
	if got := m.At(1); got != sp(1, 2) {
		t.Errorf("At(1) = %v, want 1:2", got)
	}

	// X[i:j] maps from entry i's start to entry j-1's stop.
	m = mustNew(t, []slicemap.Span{sp(0, 1), sp(0, 2), sp(3, 3)}, 3)
	for _, tt := range []struct {
		i, j int
		want slicemap.Span
	}{
		{0, 1, sp(0, 1)},
		{0, 2, sp(0, 2)},
		{1, 2, sp(0, 2)},
		{1, 3, sp(0, 3)},
	} {
		if got := m.Range(tt.i, tt.j); got != tt.want {
			t.Errorf("Range(%d, %d) = %v, want %v", tt.i, tt.j, got, tt.want)
		}
	}

	m = mustNew(t, []slicemap.Span{sp(0, 1), sp(1, 1), sp(1, 2), sp(3, 4)}, 5)

	// Integer lookup is a unit range.
	for i := range m.SourceLen() {
		if m.At(i) != m.Range(i, i+1) {
			t.Errorf("At(%d) = %v, Range(%d, %d) = %v; want equal", i, m.At(i), i, i+1, m.Range(i, i+1))
		}
	}

	// Index that maps to nothing yields an empty span.
	if got := m.At(1); got.Len() != 0 {
		t.Errorf("At(1) = %v, want empty", got)
	}

	// Ranges bridge gaps in the target space.
	if got := m.Range(2, m.SourceLen()); got != sp(1, 4) {
		t.Errorf("Range(2, end) = %v, want 1:4", got)
	}

	// Empty source ranges yield anchored empty spans everywhere.
	for i := range m.SourceLen() + 1 {
		if got := m.Range(i, i); got.Len() != 0 {
			t.Errorf("Range(%d, %d) = %v, want empty", i, i, got)
		}
	}

	// Ranges entirely beyond the source space are clamped to empty.
	if got := m.Range(10, 20); got.Len() != 0 {
		t.Errorf("Range(10, 20) = %v, want empty", got)
	}
}

func TestMap_RangeStep(t *testing.T) {
	t.Parallel()

	m := mustNew(t, []slicemap.Span{sp(0, 1), sp(1, 2)}, 2)
	if _, err := m.RangeStep(0, 2, 2); !errors.Is(err, slicemap.ErrUnsupportedStep) {
		t.Errorf("RangeStep(0, 2, 2): err = %v, want ErrUnsupportedStep", err)
	}
	got, err := m.RangeStep(0, 2, 1)
	if err != nil {
		t.Fatalf("RangeStep(0, 2, 1): %v", err)
	}
	if got != sp(0, 2) {
		t.Errorf("RangeStep(0, 2, 1) = %v, want 0:2", got)
	}
}

func TestProject(t *testing.T) {
	t.Parallel()

	// Length must match.
	m := mustNew(t, []slicemap.Span{sp(0, 1), sp(1, 2), sp(2, 3)}, 3)
	if _, err := slicemap.Project(m, []string{"a", "b"}, ""); !errors.Is(err, slicemap.ErrLengthMismatch) {
		t.Errorf("Project with short data: err = %v, want ErrLengthMismatch", err)
	}
	if _, err := slicemap.Project(m, []string{"a", "b", "c", "d"}, ""); !errors.Is(err, slicemap.ErrLengthMismatch) {
		t.Errorf("Project with long data: err = %v, want ErrLengthMismatch", err)
	}

	tests := []struct {
		name      string
		spans     []slicemap.Span
		targetLen int
		data      []string
		want      []string
	}{
		{"empty", nil, 0, nil, []string{}},
		{"map to nothing", []slicemap.Span{sp(0, 0), sp(0, 0)}, 0, []string{"a", "b"}, []string{}},
		{"map from nothing", nil, 2, nil, []string{"?", "?"}},
		{"identity", []slicemap.Span{sp(0, 1), sp(1, 2), sp(2, 3)}, 3, []string{"a", "b", "c"}, []string{"a", "b", "c"}},
		{"span covering multiple slots", []slicemap.Span{sp(0, 1), sp(1, 3), sp(3, 4)}, 4, []string{"a", "b", "c"}, []string{"a", "b", "b", "c"}},
		{"gap in target space", []slicemap.Span{sp(0, 1), sp(1, 1), sp(1, 2)}, 2, []string{"a", "b", "c"}, []string{"a", "c"}},
		{"gap in source space", []slicemap.Span{sp(0, 1), sp(2, 3)}, 3, []string{"a", "b"}, []string{"a", "?", "b"}},
		{"overlap keeps last", []slicemap.Span{sp(0, 1), sp(0, 1)}, 1, []string{"a", "b"}, []string{"b"}},
		{"overlap spanning slots", []slicemap.Span{sp(0, 2), sp(0, 2)}, 2, []string{"a", "b"}, []string{"b", "b"}},
		{"overlap with step", []slicemap.Span{sp(0, 2), sp(1, 3)}, 3, []string{"a", "b"}, []string{"a", "b", "b"}},
		{
			"combination",
			[]slicemap.Span{sp(0, 1), sp(1, 1), sp(1, 2), sp(3, 5), sp(4, 6)}, 7,
			[]string{"a", "b", "c", "d", "e"},
			[]string{"a", "c", "?", "d", "e", "e", "?"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := mustNew(t, tt.spans, tt.targetLen)
			got, err := slicemap.Project(m, tt.data, "?")
			if err != nil {
				t.Fatalf("Project: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Project = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Project = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestInverse(t *testing.T) {
	t.Parallel()

	if !slicemap.Empty().Inverse().Equal(slicemap.Empty()) {
		t.Error("Empty().Inverse() should equal Empty()")
	}

	roundTrips := []struct {
		name      string
		spans     []slicemap.Span
		targetLen int
	}{
		{"map to nothing", []slicemap.Span{sp(0, 0), sp(0, 0)}, 0},
		{"map from nothing", nil, 2},
		{"identity", []slicemap.Span{sp(0, 1), sp(1, 2), sp(2, 3)}, 3},
		{"spanning multiple slots", []slicemap.Span{sp(0, 1), sp(1, 3), sp(3, 4)}, 4},
		{"gap in target space", []slicemap.Span{sp(0, 1), sp(1, 1), sp(1, 2)}, 2},
		{"gap in source space", []slicemap.Span{sp(0, 1), sp(2, 3)}, 3},
		{"gaps both sides", []slicemap.Span{sp(0, 1), sp(1, 1), sp(1, 2), sp(3, 4)}, 5},
		{"overlap", []slicemap.Span{sp(0, 1), sp(0, 1)}, 1},
		{"overlap spanning slots", []slicemap.Span{sp(0, 2), sp(0, 2)}, 2},
		{"overlap with step", []slicemap.Span{sp(0, 2), sp(1, 3)}, 3},
		{"combination", []slicemap.Span{sp(0, 1), sp(1, 1), sp(1, 2), sp(3, 5), sp(4, 6)}, 7},
	}
	for _, tt := range roundTrips {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := mustNew(t, tt.spans, tt.targetLen)
			if got := m.Inverse().Inverse(); !got.Equal(m) {
				t.Errorf("double inverse = %v, want %v", got, m)
			}
		})
	}

	// Inverse projection reconstructs multiplicities.
	m := mustNew(t, []slicemap.Span{sp(0, 1), sp(1, 3), sp(3, 4)}, 4)
	got, err := slicemap.Project(m.Inverse(), []string{"a", "b", "b", "c"}, "?")
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if want := []string{"a", "b", "c"}; !equalSlices(got, want) {
		t.Errorf("inverse projection = %v, want %v", got, want)
	}

	// Gapped target positions recover an empty span at the right anchor.
	m = mustNew(t, []slicemap.Span{sp(0, 1), sp(1, 1), sp(1, 2)}, 2)
	got, err = slicemap.Project(m.Inverse(), []string{"a", "c"}, "?")
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if want := []string{"a", "?", "c"}; !equalSlices(got, want) {
		t.Errorf("inverse projection = %v, want %v", got, want)
	}

	// Gaps on both sides.
	m = mustNew(t, []slicemap.Span{sp(0, 1), sp(1, 1), sp(1, 2), sp(3, 4)}, 5)
	got, err = slicemap.Project(m.Inverse(), []string{"a", "c", "?", "d", "?"}, "?")
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if want := []string{"a", "?", "c", "d"}; !equalSlices(got, want) {
		t.Errorf("inverse projection = %v, want %v", got, want)
	}

	// Gap in the source space drops the unmapped slot on the way back.
	m = mustNew(t, []slicemap.Span{sp(0, 1), sp(2, 3)}, 3)
	got, err = slicemap.Project(m.Inverse(), []string{"a", "?", "b"}, "?")
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if want := []string{"a", "b"}; !equalSlices(got, want) {
		t.Errorf("inverse projection = %v, want %v", got, want)
	}

	// Simple overlap inverts to a single covering span.
	m = mustNew(t, []slicemap.Span{sp(0, 1), sp(0, 1)}, 1)
	want := mustNew(t, []slicemap.Span{sp(0, 2)}, 2)
	if got := m.Inverse(); !got.Equal(want) {
		t.Errorf("Inverse() = %v, want %v", got, want)
	}

	// Overlap with offset: the structural result from the axioms.
	m = mustNew(t, []slicemap.Span{sp(0, 2), sp(1, 3)}, 3)
	want = mustNew(t, []slicemap.Span{sp(0, 1), sp(0, 2), sp(1, 2)}, 2)
	if got := m.Inverse(); !got.Equal(want) {
		t.Errorf("Inverse() = %v, want %v", got, want)
	}

	// Full overlap inverts to full overlap.
	m = mustNew(t, []slicemap.Span{sp(0, 2), sp(0, 2)}, 2)
	if got := m.Inverse(); !got.Equal(m) {
		t.Errorf("Inverse() = %v, want %v", got, m)
	}

	// Combination case, checked structurally and through projection.
	m = mustNew(t, []slicemap.Span{sp(0, 1), sp(1, 1), sp(1, 2), sp(3, 5), sp(4, 6)}, 7)
	want = mustNew(t, []slicemap.Span{
		sp(0, 1), sp(2, 3), sp(3, 3), sp(3, 4), sp(3, 5), sp(4, 5), sp(5, 5),
	}, 5)
	if got := m.Inverse(); !got.Equal(want) {
		t.Errorf("Inverse() = %v, want %v", got, want)
	}
	got, err = slicemap.Project(m.Inverse(), []string{"a", "b", "c", "d", "e", "f", "g"}, "?")
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if want := []string{"a", "?", "b", "e", "f"}; !equalSlices(got, want) {
		t.Errorf("inverse projection = %v, want %v", got, want)
	}
}

func TestCompose(t *testing.T) {
	t.Parallel()

	// Dimension mismatch is rejected.
	m1 := mustNew(t, []slicemap.Span{sp(0, 1)}, 1)
	m2 := mustNew(t, []slicemap.Span{sp(0, 1), sp(1, 2)}, 2)
	if _, err := m1.Compose(m2); !errors.Is(err, slicemap.ErrDimensionMismatch) {
		t.Errorf("Compose with mismatched dims: err = %v, want ErrDimensionMismatch", err)
	}

	// Empty composes with empty.
	e, err := slicemap.Empty().Compose(slicemap.Empty())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !e.Equal(slicemap.Empty()) {
		t.Error("Empty*Empty should equal Empty")
	}

	compose := func(a, b slicemap.Map) slicemap.Map {
		t.Helper()
		m, err := a.Compose(b)
		if err != nil {
			t.Fatalf("Compose: %v", err)
		}
		return m
	}

	// Map to nothing absorbs.
	m1 = mustNew(t, []slicemap.Span{sp(0, 1), sp(1, 2)}, 2)
	m2 = mustNew(t, []slicemap.Span{sp(0, 0), sp(0, 0)}, 0)
	if got := compose(m1, m2); !got.Equal(m2) {
		t.Errorf("compose to nothing = %v, want %v", got, m2)
	}

	// Map from nothing stays empty-sourced.
	m1 = mustNew(t, nil, 2)
	m2 = mustNew(t, []slicemap.Span{sp(0, 1), sp(1, 2)}, 2)
	if got := compose(m1, m2); !got.Equal(m1) {
		t.Errorf("compose from nothing = %v, want %v", got, m1)
	}

	// Identity is idempotent.
	id := mustNew(t, []slicemap.Span{sp(0, 1), sp(1, 2), sp(2, 3)}, 3)
	if got := compose(id, id); !got.Equal(id) {
		t.Errorf("identity composed with itself = %v, want %v", got, id)
	}

	// Gap and overlap interactions, verified through projection.
	projTests := []struct {
		name           string
		s1             []slicemap.Span
		t1             int
		s2             []slicemap.Span
		t2             int
		data, expected []string
	}{
		{
			"source gap then source gap",
			[]slicemap.Span{sp(0, 1), sp(2, 3)}, 3,
			[]slicemap.Span{sp(1, 2), sp(2, 3), sp(3, 4)}, 4,
			[]string{"a", "b"}, []string{"?", "a", "?", "b"},
		},
		{
			"source gap then target gap",
			[]slicemap.Span{sp(0, 1), sp(2, 3)}, 3,
			[]slicemap.Span{sp(0, 1), sp(1, 1), sp(1, 2)}, 2,
			[]string{"a", "b"}, []string{"a", "b"},
		},
		{
			"target gap then target gap",
			[]slicemap.Span{sp(0, 1), sp(1, 1), sp(1, 2)}, 2,
			[]slicemap.Span{sp(0, 0), sp(0, 1)}, 1,
			[]string{"a", "b", "c"}, []string{"c"},
		},
		{
			"target gap then source gap",
			[]slicemap.Span{sp(0, 1), sp(1, 1), sp(1, 2)}, 2,
			[]slicemap.Span{sp(0, 1), sp(2, 3)}, 3,
			[]string{"a", "b", "c"}, []string{"a", "?", "c"},
		},
		{
			"source gap then overlap",
			[]slicemap.Span{sp(0, 1), sp(2, 3)}, 3,
			[]slicemap.Span{sp(0, 2), sp(0, 2), sp(0, 2)}, 2,
			[]string{"a", "c"}, []string{"c", "c"},
		},
		{
			"target gap then overlap",
			[]slicemap.Span{sp(0, 1), sp(1, 1), sp(1, 2)}, 2,
			[]slicemap.Span{sp(0, 2), sp(0, 2)}, 2,
			[]string{"a", "b", "c"}, []string{"c", "c"},
		},
		{
			"overlap then source gap",
			[]slicemap.Span{sp(0, 2), sp(0, 2), sp(0, 2)}, 2,
			[]slicemap.Span{sp(0, 1), sp(2, 3)}, 3,
			[]string{"a", "b", "c"}, []string{"c", "c", "c"},
		},
		{
			"overlap then target gap",
			[]slicemap.Span{sp(0, 2), sp(0, 2), sp(0, 2)}, 3,
			[]slicemap.Span{sp(0, 1), sp(1, 1), sp(1, 2)}, 2,
			[]string{"a", "b", "c"}, []string{"c", "?"},
		},
	}
	for _, tt := range projTests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m1 := mustNew(t, tt.s1, tt.t1)
			m2 := mustNew(t, tt.s2, tt.t2)
			composed, err := m1.Compose(m2)
			if err != nil {
				t.Fatalf("Compose: %v", err)
			}
			got, err := slicemap.Project(composed, tt.data, "?")
			if err != nil {
				t.Fatalf("Project: %v", err)
			}
			if !equalSlices(got, tt.expected) {
				t.Errorf("projected composition = %v, want %v", got, tt.expected)
			}
		})
	}

	// Anchored gaps at the edges of the source space survive a lerp compose.
	m := mustNew(t, []slicemap.Span{sp(0, 1), sp(1, 1)}, 1)
	if got := compose(m, slicemap.Lerp(1, 1)); !got.Equal(m) {
		t.Errorf("compose with Lerp(1,1) = %v, want %v", got, m)
	}
	m = mustNew(t, []slicemap.Span{sp(0, 0), sp(0, 1)}, 1)
	if got := compose(m, slicemap.Lerp(1, 1)); !got.Equal(m) {
		t.Errorf("compose with Lerp(1,1) = %v, want %v", got, m)
	}

	// Overlap composed with overlap.
	m1 = mustNew(t, []slicemap.Span{sp(0, 2), sp(0, 2)}, 2)
	m2 = mustNew(t, []slicemap.Span{sp(1, 3), sp(1, 3)}, 3)
	if got := compose(m1, m2); !got.Equal(m2) {
		t.Errorf("overlap composed with overlap = %v, want %v", got, m2)
	}
}

func TestCompose_IdentityLaws(t *testing.T) {
	t.Parallel()

	maps := []slicemap.Map{
		slicemap.Empty(),
		slicemap.Identity(4),
		mustNew(t, []slicemap.Span{sp(0, 1), sp(1, 1), sp(1, 2), sp(3, 5), sp(4, 6)}, 7),
		mustNew(t, []slicemap.Span{sp(0, 2), sp(1, 3)}, 3),
		slicemap.Full(3, 2),
	}
	for _, m := range maps {
		right, err := m.Compose(slicemap.Identity(m.TargetLen()))
		if err != nil {
			t.Fatalf("Compose: %v", err)
		}
		if !right.Equal(m) {
			t.Errorf("%v composed with identity = %v, want unchanged", m, right)
		}
		left, err := slicemap.Identity(m.SourceLen()).Compose(m)
		if err != nil {
			t.Fatalf("Compose: %v", err)
		}
		if !left.Equal(m) {
			t.Errorf("identity composed with %v = %v, want unchanged", m, left)
		}
	}
}

func TestConcat(t *testing.T) {
	t.Parallel()

	if !slicemap.Empty().Concat(slicemap.Empty()).Equal(slicemap.Empty()) {
		t.Error("Empty + Empty should equal Empty")
	}

	// Map-to-nothing keeps its anchors on either side.
	m1 := mustNew(t, []slicemap.Span{sp(0, 1), sp(1, 2)}, 2)
	m2 := mustNew(t, []slicemap.Span{sp(0, 0), sp(0, 0)}, 0)
	want := mustNew(t, []slicemap.Span{sp(0, 1), sp(1, 2), sp(2, 2), sp(2, 2)}, 2)
	if got := m1.Concat(m2); !got.Equal(want) {
		t.Errorf("Concat = %v, want %v", got, want)
	}
	want = mustNew(t, []slicemap.Span{sp(0, 0), sp(0, 0), sp(0, 1), sp(1, 2)}, 2)
	if got := m2.Concat(m1); !got.Equal(want) {
		t.Errorf("Concat = %v, want %v", got, want)
	}

	// Map-from-nothing shifts the other side's target space.
	m1 = mustNew(t, nil, 2)
	m2 = mustNew(t, []slicemap.Span{sp(0, 1), sp(1, 2)}, 2)
	want = mustNew(t, []slicemap.Span{sp(2, 3), sp(3, 4)}, 4)
	if got := m1.Concat(m2); !got.Equal(want) {
		t.Errorf("Concat = %v, want %v", got, want)
	}
	want = mustNew(t, []slicemap.Span{sp(0, 1), sp(1, 2)}, 4)
	if got := m2.Concat(m1); !got.Equal(want) {
		t.Errorf("Concat = %v, want %v", got, want)
	}

	// Identity concatenated with itself is the doubled identity.
	if got := slicemap.Identity(2).Concat(slicemap.Identity(2)); !got.Equal(slicemap.Identity(4)) {
		t.Errorf("Identity(2)+Identity(2) = %v, want Identity(4)", got)
	}
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
