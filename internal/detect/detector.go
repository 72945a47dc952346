// Package detect finds skippable intervals in a video by run-length scanning
// decoded frames for black sequences and decoded audio for silence. Both
// heuristics are best-effort: an unreadable source degrades to an empty
// result instead of failing the run.
package detect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/rs/zerolog"

	"github.com/lesserevil/miniscope/internal/interval"
	"github.com/lesserevil/miniscope/internal/media"
)

// ErrConfiguration marks invalid static detector parameters.
var ErrConfiguration = errors.New("invalid configuration")

// The two detectors normalize confidence with different constants. The source
// heuristics were tuned independently; they are deliberately kept as separate
// knobs rather than unified.
const (
	// DefaultBlackConfidenceWindow is the seconds-worth of black frames
	// that counts as full confidence.
	DefaultBlackConfidenceWindow = 2.0
	// DefaultSilenceConfidenceDivisor is the run duration in seconds that
	// counts as full confidence.
	DefaultSilenceConfidenceDivisor = 5.0
)

// DefaultAudioWindow is the fixed duration of one silence-analysis window.
const DefaultAudioWindow = 0.5

// Config holds the detection thresholds.
type Config struct {
	// BlackFrameThreshold is the mean-luma value below which a frame is
	// considered black, in [1, 255].
	BlackFrameThreshold int
	// SilenceThresholdDB is the level below which an audio window is
	// considered silent. Must be <= 0.
	SilenceThresholdDB float64
	// MinRunDuration is the shortest run (seconds) worth emitting. A run
	// exactly this long is emitted.
	MinRunDuration float64

	BlackConfidenceWindow    float64
	SilenceConfidenceDivisor float64
	AudioWindow              float64
}

// DefaultConfig mirrors the tuned defaults: luma 20, -40 dB, 1 s minimum run.
func DefaultConfig() Config {
	return Config{
		BlackFrameThreshold:      20,
		SilenceThresholdDB:       -40,
		MinRunDuration:           1.0,
		BlackConfidenceWindow:    DefaultBlackConfidenceWindow,
		SilenceConfidenceDivisor: DefaultSilenceConfidenceDivisor,
		AudioWindow:              DefaultAudioWindow,
	}
}

// Opener opens decoded frame and audio sources for a time range of a file.
// *media.Decoder satisfies it.
type Opener interface {
	OpenFrames(ctx context.Context, filePath string, start, end float64) (media.FrameSource, error)
	OpenAudio(ctx context.Context, filePath string, start, end, window float64) (media.AudioSource, error)
}

// Detector runs the black-frame and silence heuristics. All run-tracking
// state is local to a single scan, so one Detector is safe to use
// concurrently across different windows of the same video.
type Detector struct {
	media Opener
	cfg   Config
	log   zerolog.Logger
}

func New(opener Opener, cfg Config, logger zerolog.Logger) (*Detector, error) {
	if cfg.BlackFrameThreshold < 1 || cfg.BlackFrameThreshold > 255 {
		return nil, fmt.Errorf("%w: black frame threshold must be in [1, 255], got %d", ErrConfiguration, cfg.BlackFrameThreshold)
	}
	if cfg.SilenceThresholdDB > 0 {
		return nil, fmt.Errorf("%w: silence threshold must be <= 0 dB, got %v", ErrConfiguration, cfg.SilenceThresholdDB)
	}
	if cfg.MinRunDuration <= 0 {
		return nil, fmt.Errorf("%w: min run duration must be positive, got %v", ErrConfiguration, cfg.MinRunDuration)
	}
	if cfg.BlackConfidenceWindow <= 0 {
		cfg.BlackConfidenceWindow = DefaultBlackConfidenceWindow
	}
	if cfg.SilenceConfidenceDivisor <= 0 {
		cfg.SilenceConfidenceDivisor = DefaultSilenceConfidenceDivisor
	}
	if cfg.AudioWindow <= 0 {
		cfg.AudioWindow = DefaultAudioWindow
	}
	return &Detector{media: opener, cfg: cfg, log: logger}, nil
}

// DetectBlackFrames scans [start, end) for runs of frames whose mean luma is
// below the threshold and returns them as black-frame intervals, ordered by
// time. Runs shorter than MinRunDuration are dropped; a run still open at
// end-of-stream is closed and emitted.
func (d *Detector) DetectBlackFrames(ctx context.Context, filePath string, start, end float64) []interval.Interval {
	src, err := d.media.OpenFrames(ctx, filePath, start, end)
	if err != nil {
		d.log.Warn().Err(err).Str("file", filePath).Msg("could not open video for black frame detection")
		return nil
	}
	defer src.Close()

	fps := src.FPS()
	frameDur := 1.0 / fps

	var sections []interval.Interval
	runStart := -1.0
	blackCount := 0
	lastTS := start

	emit := func(runEnd float64) {
		if runEnd-runStart >= d.cfg.MinRunDuration {
			sections = append(sections, interval.Interval{
				Start:      runStart,
				End:        runEnd,
				Tag:        interval.TagBlackFrame,
				Confidence: math.Min(1.0, float64(blackCount)/(fps*d.cfg.BlackConfidenceWindow)),
				Note:       fmt.Sprintf("detected %d black frames", blackCount),
			})
		}
		runStart = -1
		blackCount = 0
	}

	for {
		frame, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			d.log.Warn().Err(err).Str("file", filePath).Msg("frame read failed during black frame detection")
			break
		}
		lastTS = frame.Timestamp

		if media.MeanLuma(frame.Pixels) < float64(d.cfg.BlackFrameThreshold) {
			if runStart < 0 {
				runStart = frame.Timestamp
			}
			blackCount++
		} else if runStart >= 0 {
			emit(frame.Timestamp)
		}
	}

	// Stream ended while still inside a black run.
	if runStart >= 0 {
		emit(lastTS + frameDur)
	}

	d.log.Debug().Str("file", filePath).Int("sections", len(sections)).
		Msg("black frame detection complete")
	return sections
}

// DetectSilence scans the audio of [start, end) in fixed windows, converting
// each to a mono RMS level in dB, and returns runs of windows below the
// threshold as silence intervals. A file with no audio track yields nothing.
func (d *Detector) DetectSilence(ctx context.Context, filePath string, start, end float64) []interval.Interval {
	src, err := d.media.OpenAudio(ctx, filePath, start, end, d.cfg.AudioWindow)
	if err != nil {
		if errors.Is(err, media.ErrNoAudio) {
			d.log.Info().Str("file", filePath).Msg("video has no audio, skipping silence detection")
		} else {
			d.log.Warn().Err(err).Str("file", filePath).Msg("could not open audio for silence detection")
		}
		return nil
	}
	defer src.Close()

	channels := src.Channels()

	var sections []interval.Interval
	silenceStart := -1.0
	lastDB := 0.0
	cursor := start

	emit := func(runEnd float64, note string) {
		duration := runEnd - silenceStart
		if duration >= d.cfg.MinRunDuration {
			sections = append(sections, interval.Interval{
				Start:      silenceStart,
				End:        runEnd,
				Tag:        interval.TagSilence,
				Confidence: math.Min(1.0, duration/d.cfg.SilenceConfidenceDivisor),
				Note:       note,
			})
		}
		silenceStart = -1
	}

	for {
		samples, winStart, err := src.NextWindow()
		if err == io.EOF {
			break
		}
		if err != nil {
			d.log.Warn().Err(err).Str("file", filePath).Msg("audio read failed during silence detection")
			break
		}
		if len(samples) == 0 {
			continue
		}

		winEnd := winStart + d.cfg.AudioWindow
		if winEnd > end {
			winEnd = end
		}
		cursor = winEnd

		db := windowLevelDB(samples, channels)
		if db < d.cfg.SilenceThresholdDB {
			if silenceStart < 0 {
				silenceStart = winStart
			}
			lastDB = db
		} else if silenceStart >= 0 {
			emit(winStart, fmt.Sprintf("silent section (%.1f dB)", lastDB))
		}
	}

	if silenceStart >= 0 {
		emit(cursor, "silent section at end")
	}

	d.log.Debug().Str("file", filePath).Int("sections", len(sections)).
		Msg("silence detection complete")
	return sections
}

// windowLevelDB folds interleaved samples to mono by channel average, then
// returns the RMS level in dB. Levels below 1e-10 RMS clamp to -120 dB so a
// digitally silent window never hits log(0).
func windowLevelDB(samples []float64, channels int) float64 {
	if channels < 1 {
		channels = 1
	}
	frames := len(samples) / channels
	if frames == 0 {
		return -120.0
	}

	var sumSquares float64
	for f := 0; f < frames; f++ {
		var mono float64
		for c := 0; c < channels; c++ {
			mono += samples[f*channels+c]
		}
		mono /= float64(channels)
		sumSquares += mono * mono
	}

	rms := math.Sqrt(sumSquares / float64(frames))
	if rms < 1e-10 {
		return -120.0
	}
	return 20 * math.Log10(rms)
}
