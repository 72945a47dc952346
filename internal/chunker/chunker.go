// Package chunker plans overlapping analysis windows over a video and
// detects scene changes inside each window.
package chunker

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks invalid static parameters. It is raised at
// construction, never retried; the caller must fix its configuration.
var ErrConfiguration = errors.New("invalid configuration")

// SceneChange marks a visual discontinuity inside a chunk's window.
type SceneChange struct {
	Timestamp  float64 `json:"timestamp"`
	Confidence float64 `json:"confidence"`
}

// Chunk is one analysis window [Start, End). Chunks are transient: they live
// for a single chunking pass and are recomputed per run.
type Chunk struct {
	Start          float64       `json:"start"`
	End            float64       `json:"end"`
	Index          int           `json:"index"`
	HasSceneChange bool          `json:"has_scene_change"`
	SceneChanges   []SceneChange `json:"scene_changes,omitempty"`
}

// Duration returns End-Start.
func (c Chunk) Duration() float64 { return c.End - c.Start }

// Planner computes overlapping chunk boundaries covering a duration.
type Planner struct {
	chunkDuration   float64
	overlapDuration float64
}

func NewPlanner(chunkDuration, overlapDuration float64) (*Planner, error) {
	if chunkDuration <= 0 {
		return nil, fmt.Errorf("%w: chunk duration must be positive, got %v", ErrConfiguration, chunkDuration)
	}
	if overlapDuration < 0 {
		return nil, fmt.Errorf("%w: overlap duration must be non-negative, got %v", ErrConfiguration, overlapDuration)
	}
	if overlapDuration >= chunkDuration {
		return nil, fmt.Errorf("%w: overlap duration %v must be less than chunk duration %v",
			ErrConfiguration, overlapDuration, chunkDuration)
	}
	return &Planner{chunkDuration: chunkDuration, overlapDuration: overlapDuration}, nil
}

// Plan emits chunks of the configured duration stepping by chunk-overlap,
// starting at 0. The final chunk's end equals totalDuration exactly. When
// totalDuration fits inside one chunk, a single chunk covering the whole
// video is returned.
func (p *Planner) Plan(totalDuration float64) ([]Chunk, error) {
	if totalDuration <= 0 {
		return nil, fmt.Errorf("%w: total duration must be positive, got %v", ErrConfiguration, totalDuration)
	}

	step := p.chunkDuration - p.overlapDuration
	var chunks []Chunk

	for t, i := 0.0, 0; t < totalDuration; t, i = t+step, i+1 {
		end := t + p.chunkDuration
		if end > totalDuration {
			end = totalDuration
		}
		chunks = append(chunks, Chunk{Start: t, End: end, Index: i})
	}

	return chunks, nil
}
