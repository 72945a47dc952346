package interval

import (
	"reflect"
	"testing"
)

func TestMergeEmpty(t *testing.T) {
	if got := Merge(nil, nil); got != nil {
		t.Errorf("Merge(nil, nil) = %v, want nil", got)
	}
}

func TestMergeAdjacentStaySeparate(t *testing.T) {
	a := []Interval{
		{Start: 0, End: 10, Tag: TagBlackFrame, Confidence: 0.5},
		{Start: 10, End: 20, Tag: TagSilence, Confidence: 0.6},
	}
	got := Merge(a, nil)
	if len(got) != 2 {
		t.Fatalf("merged %d intervals, want 2: %v", len(got), got)
	}
	if got[0].End != 10 || got[1].Start != 10 {
		t.Errorf("touching endpoints were merged: %v", got)
	}
}

func TestMergeManualPrecedence(t *testing.T) {
	detected := []Interval{{Start: 0, End: 10, Tag: TagBlackFrame, Confidence: 0.4}}
	manual := []Interval{{Start: 8, End: 15, Tag: TagManual, Confidence: 1.0}}

	got := Merge(detected, manual)
	if len(got) != 1 {
		t.Fatalf("merged %d intervals, want 1: %v", len(got), got)
	}
	want := Interval{Start: 0, End: 15, Tag: TagManual, Confidence: 1.0, Note: "merged overlapping sections"}
	if got[0] != want {
		t.Errorf("Merge() = %+v, want %+v", got[0], want)
	}
}

func TestMergeKeepsEarlierTagAndMaxConfidence(t *testing.T) {
	detected := []Interval{
		{Start: 0, End: 10, Tag: TagBlackFrame, Confidence: 0.3},
		{Start: 5, End: 12, Tag: TagSilence, Confidence: 0.8},
	}
	got := Merge(detected, nil)
	if len(got) != 1 {
		t.Fatalf("merged %d intervals, want 1: %v", len(got), got)
	}
	if got[0].Tag != TagBlackFrame {
		t.Errorf("Tag = %q, want earlier tag %q", got[0].Tag, TagBlackFrame)
	}
	if got[0].Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", got[0].Confidence)
	}
	if got[0].Start != 0 || got[0].End != 12 {
		t.Errorf("range = [%v, %v), want [0, 12)", got[0].Start, got[0].End)
	}
}

func TestMergeContainedInterval(t *testing.T) {
	detected := []Interval{
		{Start: 0, End: 20, Tag: TagSilence, Confidence: 0.9},
		{Start: 5, End: 10, Tag: TagBlackFrame, Confidence: 0.2},
	}
	got := Merge(detected, nil)
	if len(got) != 1 {
		t.Fatalf("merged %d intervals, want 1: %v", len(got), got)
	}
	if got[0].End != 20 {
		t.Errorf("End = %v, want 20 (containment must not shrink the range)", got[0].End)
	}
}

func TestMergeIdempotent(t *testing.T) {
	detected := []Interval{
		{Start: 30, End: 40, Tag: TagSilence, Confidence: 0.7},
		{Start: 0, End: 10, Tag: TagBlackFrame, Confidence: 0.5},
		{Start: 8, End: 12, Tag: TagSilence, Confidence: 0.9},
	}
	manual := []Interval{
		{Start: 35, End: 50, Tag: TagManual, Confidence: 1.0},
		{Start: 60, End: 61, Tag: TagManual, Confidence: 1.0},
	}

	once := Merge(detected, manual)
	twice := Merge(once, nil)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("merge is not idempotent:\nonce:  %v\ntwice: %v", once, twice)
	}
}

func TestMergeSortsOutput(t *testing.T) {
	detected := []Interval{
		{Start: 50, End: 55, Tag: TagSilence, Confidence: 0.5},
		{Start: 0, End: 5, Tag: TagBlackFrame, Confidence: 0.5},
		{Start: 20, End: 25, Tag: TagSilence, Confidence: 0.5},
	}
	got := Merge(detected, nil)
	for i := 1; i < len(got); i++ {
		if got[i].Start < got[i-1].Start {
			t.Fatalf("output not sorted by start: %v", got)
		}
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                       string
		s1, e1, s2, e2             float64
		want                       bool
	}{
		{"strict overlap", 0, 10, 5, 15, true},
		{"containment", 0, 20, 5, 10, true},
		{"touching end-start", 0, 10, 10, 20, false},
		{"touching start-end", 10, 20, 0, 10, false},
		{"disjoint", 0, 5, 10, 15, false},
		{"identical", 3, 7, 3, 7, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.s1, tt.e1, tt.s2, tt.e2); got != tt.want {
				t.Errorf("Overlaps(%v,%v,%v,%v) = %v, want %v", tt.s1, tt.e1, tt.s2, tt.e2, got, tt.want)
			}
		})
	}
}

func TestTotalDuration(t *testing.T) {
	ivs := []Interval{
		{Start: 0, End: 10},
		{Start: 20, End: 25.5},
	}
	if got := TotalDuration(ivs); got != 15.5 {
		t.Errorf("TotalDuration() = %v, want 15.5", got)
	}
	if got := TotalDuration(nil); got != 0 {
		t.Errorf("TotalDuration(nil) = %v, want 0", got)
	}
}
