package chunker

import (
	"errors"
	"math"
	"testing"
)

// assertChunks compares boundaries and indices; Chunk carries a slice field
// and cannot be compared with ==.
func assertChunks(t *testing.T, chunks, want []Chunk) {
	t.Helper()
	if len(chunks) != len(want) {
		t.Fatalf("planned %d chunks, want %d: %v", len(chunks), len(want), chunks)
	}
	for i := range want {
		if chunks[i].Start != want[i].Start || chunks[i].End != want[i].End || chunks[i].Index != want[i].Index {
			t.Errorf("chunk %d = %+v, want %+v", i, chunks[i], want[i])
		}
	}
}

func TestNewPlannerRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name           string
		chunk, overlap float64
	}{
		{"zero chunk", 0, 0},
		{"negative chunk", -10, 0},
		{"negative overlap", 30, -1},
		{"overlap equals chunk", 30, 30},
		{"overlap exceeds chunk", 30, 31},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPlanner(tt.chunk, tt.overlap)
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("NewPlanner(%v, %v) error = %v, want ErrConfiguration", tt.chunk, tt.overlap, err)
			}
		})
	}
}

func TestPlanExampleCoverage(t *testing.T) {
	p, err := NewPlanner(30, 5)
	if err != nil {
		t.Fatal(err)
	}
	chunks, err := p.Plan(60)
	if err != nil {
		t.Fatal(err)
	}

	assertChunks(t, chunks, []Chunk{
		{Start: 0, End: 30, Index: 0},
		{Start: 25, End: 55, Index: 1},
		{Start: 50, End: 60, Index: 2},
	})
}

func TestPlanSingleChunkWhenShort(t *testing.T) {
	p, _ := NewPlanner(30, 5)
	chunks, err := p.Plan(12.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("planned %d chunks, want 1", len(chunks))
	}
	if chunks[0].Start != 0 || chunks[0].End != 12.5 {
		t.Errorf("chunk = %+v, want [0, 12.5)", chunks[0])
	}
}

func TestPlanLastChunkEndsExactly(t *testing.T) {
	p, _ := NewPlanner(30, 5)
	for _, total := range []float64{31, 59.9, 60, 61.2, 300, 0.001} {
		chunks, err := p.Plan(total)
		if err != nil {
			t.Fatalf("Plan(%v): %v", total, err)
		}
		if chunks[0].Start != 0 {
			t.Errorf("Plan(%v): first chunk starts at %v, want 0", total, chunks[0].Start)
		}
		last := chunks[len(chunks)-1]
		if last.End != total {
			t.Errorf("Plan(%v): last chunk ends at %v, want exactly %v", total, last.End, total)
		}
		for i := 1; i < len(chunks); i++ {
			gotStep := chunks[i].Start - chunks[i-1].Start
			if math.Abs(gotStep-25) > 1e-9 {
				t.Errorf("Plan(%v): step between chunks %d and %d = %v, want 25", total, i-1, i, gotStep)
			}
		}
	}
}

func TestPlanRejectsNonPositiveDuration(t *testing.T) {
	p, _ := NewPlanner(30, 5)
	for _, total := range []float64{0, -5} {
		if _, err := p.Plan(total); !errors.Is(err, ErrConfiguration) {
			t.Errorf("Plan(%v) error = %v, want ErrConfiguration", total, err)
		}
	}
}

func TestPlanZeroOverlap(t *testing.T) {
	p, _ := NewPlanner(10, 0)
	chunks, err := p.Plan(25)
	if err != nil {
		t.Fatal(err)
	}
	assertChunks(t, chunks, []Chunk{
		{Start: 0, End: 10, Index: 0},
		{Start: 10, End: 20, Index: 1},
		{Start: 20, End: 25, Index: 2},
	})
}
