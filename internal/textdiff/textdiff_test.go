package textdiff_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MrWong99/echodiff/internal/textdiff"
	"github.com/MrWong99/echodiff/pkg/align"
	"github.com/MrWong99/echodiff/pkg/slicemap"
)

func mustNew(t *testing.T, spans []slicemap.Span, targetLen int) slicemap.Map {
	t.Helper()
	m, err := slicemap.New(spans, targetLen)
	if err != nil {
		t.Fatalf("New(%v, %d): %v", spans, targetLen, err)
	}
	return m
}

func TestCleanDiff_Substitution(t *testing.T) {
	t.Parallel()
	got := textdiff.CleanDiff("the cat sat", "the cats sat", align.NewNeedlemanWunsch())
	want := []textdiff.Region{
		{ReferenceText: "the ", ComparedText: "the ", PronunciationMatch: true},
		{ReferenceText: "cat", ComparedText: "cats", PronunciationMatch: false},
		{ReferenceText: " sat", ComparedText: " sat", PronunciationMatch: true},
	}
	assertRegions(t, got, want)
}

func TestCleanDiff_Insertion(t *testing.T) {
	t.Parallel()
	got := textdiff.CleanDiff("a b", "a x b", align.NewNeedlemanWunsch())
	want := []textdiff.Region{
		{ReferenceText: "a ", ComparedText: "a ", PronunciationMatch: true},
		{ReferenceText: "", ComparedText: "x", PronunciationMatch: false},
		{ReferenceText: " b", ComparedText: " b", PronunciationMatch: true},
	}
	assertRegions(t, got, want)
}

func TestCleanDiff_Identical(t *testing.T) {
	t.Parallel()
	got := textdiff.CleanDiff("same text here", "same text here", align.NewNeedlemanWunsch())
	want := []textdiff.Region{
		{ReferenceText: "same text here", ComparedText: "same text here", PronunciationMatch: true},
	}
	assertRegions(t, got, want)
}

func TestCleanDiff_Empty(t *testing.T) {
	t.Parallel()
	got := textdiff.CleanDiff("", "", align.NewNeedlemanWunsch())
	want := []textdiff.Region{
		{ReferenceText: "", ComparedText: "", PronunciationMatch: true},
	}
	assertRegions(t, got, want)
}

func TestProjectRegions_Identity(t *testing.T) {
	t.Parallel()
	regions := []textdiff.Region{
		{ReferenceText: "a", ComparedText: "a", PronunciationMatch: true},
		{ReferenceText: "b", ComparedText: "b", PronunciationMatch: false},
	}
	got, err := textdiff.ProjectRegions(regions, "ab", "ab", slicemap.Identity(2), slicemap.Identity(2))
	if err != nil {
		t.Fatalf("ProjectRegions: %v", err)
	}
	assertRegions(t, got, regions)
}

func TestProjectRegions_ErasedCharacters(t *testing.T) {
	t.Parallel()

	// Raw "a.b" normalized to "ab": the dot has an empty (anchored) span,
	// so the inverse map never covers raw position 1. The last region must
	// still pick it up.
	ref2clean := mustNew(t, []slicemap.Span{{Start: 0, Stop: 1}, {Start: 1, Stop: 1}, {Start: 1, Stop: 2}}, 2)
	regions := []textdiff.Region{
		{ReferenceText: "a", ComparedText: "a", PronunciationMatch: true},
		{ReferenceText: "b", ComparedText: "b", PronunciationMatch: false},
	}
	got, err := textdiff.ProjectRegions(regions, "a.b", "ab", ref2clean, slicemap.Identity(2))
	if err != nil {
		t.Fatalf("ProjectRegions: %v", err)
	}
	want := []textdiff.Region{
		{ReferenceText: "a", ComparedText: "a", PronunciationMatch: true},
		{ReferenceText: ".b", ComparedText: "b", PronunciationMatch: false},
	}
	assertRegions(t, got, want)
}

func TestProjectRegions_CoverageMismatch(t *testing.T) {
	t.Parallel()
	regions := []textdiff.Region{
		{ReferenceText: "a", ComparedText: "ab", PronunciationMatch: true},
	}
	_, err := textdiff.ProjectRegions(regions, "ab", "ab", slicemap.Identity(2), slicemap.Identity(2))
	if !errors.Is(err, textdiff.ErrRegionCoverage) {
		t.Fatalf("err = %v, want ErrRegionCoverage", err)
	}
}

func TestDiffer_Diff(t *testing.T) {
	t.Parallel()
	d := textdiff.NewDiffer()

	diffs, err := d.Diff(context.Background(), []string{"the cat sat."}, []string{"the cats sat"}, "en")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(diffs) != 1 {
		t.Fatalf("got %d diffs, want 1", len(diffs))
	}
	want := []textdiff.Region{
		{ReferenceText: "the ", ComparedText: "the ", PronunciationMatch: true},
		{ReferenceText: "cat", ComparedText: "cats", PronunciationMatch: false},
		{ReferenceText: " sat.", ComparedText: " sat", PronunciationMatch: true},
	}
	assertRegions(t, diffs[0], want)
}

func TestDiffer_Diff_ReproducesRawTexts(t *testing.T) {
	t.Parallel()
	d := textdiff.NewDiffer()

	ref := "Mrs. Smith paid $5!"
	comp := "misess smith paid five dollars"
	regions, err := d.DiffPair(context.Background(), ref, comp, "en")
	if err != nil {
		t.Fatalf("DiffPair: %v", err)
	}

	var refOut, compOut strings.Builder
	for _, r := range regions {
		refOut.WriteString(r.ReferenceText)
		compOut.WriteString(r.ComparedText)
		if !r.PronunciationMatch {
			t.Errorf("unexpected mismatch region %+v", r)
		}
	}
	if got := refOut.String(); got != ref {
		t.Errorf("concatenated reference = %q, want %q", got, ref)
	}
	if got := compOut.String(); got != comp {
		t.Errorf("concatenated compared = %q, want %q", got, comp)
	}
}

func TestDiffer_Diff_PairCountMismatch(t *testing.T) {
	t.Parallel()
	d := textdiff.NewDiffer()
	_, err := d.Diff(context.Background(), []string{"a", "b"}, []string{"a"}, "en")
	if !errors.Is(err, textdiff.ErrPairCountMismatch) {
		t.Fatalf("err = %v, want ErrPairCountMismatch", err)
	}
}

func TestDiffer_Diff_BadLanguage(t *testing.T) {
	t.Parallel()
	d := textdiff.NewDiffer()
	if _, err := d.Diff(context.Background(), []string{"a"}, []string{"a"}, "no tag"); err == nil {
		t.Fatal("expected error for malformed language tag")
	}
}

// flakyAligner fails (by returning no alignment) whenever the reference
// starts with "boom", and otherwise delegates to a real aligner.
type flakyAligner struct {
	real align.Aligner
}

func (f flakyAligner) Align(a, b []string) ([]align.Slot, []align.Slot) {
	if len(a) > 0 && a[0] == "boom" {
		return nil, nil
	}
	return f.real.Align(a, b)
}

func TestDiffer_Diff_PairIsolation(t *testing.T) {
	t.Parallel()
	d := textdiff.NewDiffer(textdiff.WithAligner(flakyAligner{real: align.NewNeedlemanWunsch()}))

	diffs, err := d.Diff(context.Background(),
		[]string{"all good here", "boom goes the pair"},
		[]string{"all good here", "whatever"},
		"en")
	if !errors.Is(err, textdiff.ErrRegionCoverage) {
		t.Fatalf("err = %v, want ErrRegionCoverage", err)
	}
	if diffs[0] == nil {
		t.Error("healthy pair result missing")
	}
	if diffs[1] != nil {
		t.Errorf("failed pair result = %v, want nil", diffs[1])
	}
}

func TestRender(t *testing.T) {
	t.Parallel()
	regions := []textdiff.Region{
		{ReferenceText: "The ", ComparedText: "The ", PronunciationMatch: true},
		{ReferenceText: "cat", ComparedText: "cats", PronunciationMatch: false},
		{ReferenceText: " end", ComparedText: " end", PronunciationMatch: true},
	}

	if got, want := textdiff.Render(regions, false), "The (cats|cat) end"; got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}

	colored := textdiff.Render(regions, true)
	for _, part := range []string{"(", "cats", "|", "cat", ")", "The ", " end"} {
		if !strings.Contains(colored, part) {
			t.Errorf("colored output missing %q: %q", part, colored)
		}
	}
}

func assertRegions(t *testing.T, got, want []textdiff.Region) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d regions %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("region %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
