package chunker

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/rs/zerolog"

	"github.com/lesserevil/miniscope/internal/media"
)

// FrameOpener opens a decoded-frame source for one time window of a file.
// *media.Decoder satisfies it.
type FrameOpener interface {
	OpenFrames(ctx context.Context, filePath string, start, end float64) (media.FrameSource, error)
}

// SceneDetector flags visual discontinuities by comparing the brightness
// histograms of consecutive frames. It holds no cross-window state, so one
// detector is safe to run concurrently over different chunks.
type SceneDetector struct {
	frames    FrameOpener
	threshold float64
	log       zerolog.Logger
}

func NewSceneDetector(frames FrameOpener, threshold float64, logger zerolog.Logger) (*SceneDetector, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: scene threshold must be in [0, 1], got %v", ErrConfiguration, threshold)
	}
	return &SceneDetector{frames: frames, threshold: threshold, log: logger}, nil
}

// DetectWindow returns scene changes inside [chunk.Start, chunk.End), ordered
// by time. Each consecutive frame pair is scored by histogram correlation;
// a change is emitted at the later frame's timestamp whenever
// 1 - max(0, correlation) exceeds the threshold. The first frame of a window
// has no predecessor and never produces a change. An unreadable source
// degrades to no detections.
func (d *SceneDetector) DetectWindow(ctx context.Context, filePath string, chunk Chunk) []SceneChange {
	src, err := d.frames.OpenFrames(ctx, filePath, chunk.Start, chunk.End)
	if err != nil {
		d.log.Warn().Err(err).Str("file", filePath).Int("chunk", chunk.Index).
			Msg("could not open frame source, skipping scene detection")
		return nil
	}
	defer src.Close()

	var changes []SceneChange
	var prevHist []float64

	for {
		frame, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			d.log.Warn().Err(err).Str("file", filePath).Int("chunk", chunk.Index).
				Msg("frame read failed, stopping scene detection for window")
			break
		}

		hist := grayHistogram(frame.Pixels)
		if prevHist != nil {
			difference := 1.0 - math.Max(0, correlate(prevHist, hist))
			if difference > d.threshold {
				changes = append(changes, SceneChange{
					Timestamp:  frame.Timestamp,
					Confidence: difference,
				})
			}
		}
		prevHist = hist
	}

	return changes
}

// grayHistogram builds a 256-bin brightness histogram normalized to unit sum.
func grayHistogram(pixels []byte) []float64 {
	hist := make([]float64, 256)
	if len(pixels) == 0 {
		return hist
	}
	for _, p := range pixels {
		hist[p]++
	}
	n := float64(len(pixels))
	for i := range hist {
		hist[i] /= n
	}
	return hist
}

// correlate computes the Pearson correlation of two histograms. Identical
// histograms score 1; flat (zero-variance) pairs are treated as identical so
// an unchanged solid frame never registers as a scene change.
func correlate(a, b []float64) float64 {
	var meanA, meanB float64
	for i := range a {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= float64(len(a))
	meanB /= float64(len(b))

	var num, denA, denB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		num += da * db
		denA += da * da
		denB += db * db
	}

	den := math.Sqrt(denA * denB)
	if den == 0 {
		return 1
	}
	return num / den
}
