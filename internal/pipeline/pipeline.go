// Package pipeline orchestrates one processing run: probe, chunk, detect,
// merge, transcribe, filter, generate.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lesserevil/miniscope/internal/chunker"
	"github.com/lesserevil/miniscope/internal/interval"
	"github.com/lesserevil/miniscope/internal/media"
	"github.com/lesserevil/miniscope/internal/models"
	"github.com/lesserevil/miniscope/internal/script"
	"github.com/lesserevil/miniscope/internal/transcribe"
)

// MediaProber reads container metadata. *media.Prober satisfies it.
type MediaProber interface {
	Probe(ctx context.Context, filePath string) (*media.ProbeResult, error)
}

// AudioExtractor writes a mono WAV for a time range. *media.Decoder
// satisfies it.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, filePath, outPath string, start, end float64) error
}

// SceneDetector flags visual discontinuities in one chunk's window.
// *chunker.SceneDetector satisfies it.
type SceneDetector interface {
	DetectWindow(ctx context.Context, filePath string, chunk chunker.Chunk) []chunker.SceneChange
}

// IntervalDetector finds skippable intervals in one window.
type IntervalDetector interface {
	DetectBlackFrames(ctx context.Context, filePath string, start, end float64) []interval.Interval
	DetectSilence(ctx context.Context, filePath string, start, end float64) []interval.Interval
}

// SectionStore reads the persisted user sections of a job.
type SectionStore interface {
	ListByJob(jobID uuid.UUID) ([]*models.SkipSection, error)
}

// ProgressFunc receives progress updates as the run advances.
type ProgressFunc func(jobID uuid.UUID, progress int, stage string)

// Processor runs the full video-to-script pipeline.
type Processor struct {
	prober      MediaProber
	extractor   AudioExtractor
	scenes      SceneDetector
	detector    IntervalDetector
	transcriber transcribe.Transcriber
	assembler   *script.Assembler
	sections    SectionStore

	chunkDuration   float64
	overlapDuration float64
	workers         int
	workDir         string
	log             zerolog.Logger
}

type Options struct {
	ChunkDuration   float64
	OverlapDuration float64
	Workers         int
	WorkDir         string
}

func NewProcessor(prober MediaProber, extractor AudioExtractor, scenes SceneDetector,
	detector IntervalDetector, transcriber transcribe.Transcriber, assembler *script.Assembler,
	sections SectionStore, opts Options, logger zerolog.Logger) *Processor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Processor{
		prober:          prober,
		extractor:       extractor,
		scenes:          scenes,
		detector:        detector,
		transcriber:     transcriber,
		assembler:       assembler,
		sections:        sections,
		chunkDuration:   opts.ChunkDuration,
		overlapDuration: opts.OverlapDuration,
		workers:         opts.Workers,
		workDir:         opts.WorkDir,
		log:             logger,
	}
}

// ModelName returns the generation model identifier.
func (p *Processor) ModelName() string { return p.assembler.ModelName() }

// Result is everything a run produced.
type Result struct {
	Probe      *media.ProbeResult
	Chunks     []chunker.Chunk
	Intervals  []interval.Interval
	Transcript string
	Context    script.Context
	Script     string
}

// Process runs the pipeline for one job. Detection failures degrade to empty
// results; probe, transcription, and generation failures abort the run.
func (p *Processor) Process(ctx context.Context, jobID, videoID uuid.UUID, filePath string, progress ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(uuid.UUID, int, string) {}
	}

	probe, err := p.prober.Probe(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", filePath, err)
	}
	duration := probe.DurationSeconds()
	if duration <= 0 {
		return nil, fmt.Errorf("video %s has no duration", filePath)
	}
	progress(jobID, 5, "probe")

	planner, err := chunker.NewPlanner(p.chunkDuration, p.overlapDuration)
	if err != nil {
		return nil, err
	}
	chunks, err := planner.Plan(duration)
	if err != nil {
		return nil, err
	}
	progress(jobID, 10, "chunking")

	detected := p.detectAll(ctx, filePath, chunks, func(done, total int) {
		progress(jobID, 10+40*done/total, "detecting")
	})

	manual, err := p.loadManualIntervals(jobID)
	if err != nil {
		return nil, fmt.Errorf("load skip sections: %w", err)
	}
	merged := interval.Merge(detected, manual)
	progress(jobID, 55, "merging")

	transcript, err := p.transcribeAll(ctx, filePath, chunks, func(done, total int) {
		progress(jobID, 55+30*done/total, "transcribing")
	})
	if err != nil {
		return nil, err
	}

	filtered := script.FilterTranscript(transcript, merged)
	info := script.BuildContext(videoID, len(chunks), duration, merged)
	progress(jobID, 90, "generating")

	text, err := p.assembler.Generate(ctx, filtered, info)
	if err != nil {
		return nil, err
	}
	progress(jobID, 100, "done")

	return &Result{
		Probe:      probe,
		Chunks:     chunks,
		Intervals:  merged,
		Transcript: filtered,
		Context:    info,
		Script:     text,
	}, nil
}

// detectAll runs scene, black-frame, and silence detection over every chunk
// with bounded parallelism. Chunks are independent windows, so the only
// shared state is the guarded result slices.
func (p *Processor) detectAll(ctx context.Context, filePath string, chunks []chunker.Chunk, report func(done, total int)) []interval.Interval {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		detected []interval.Interval
		done     int
	)
	sem := make(chan struct{}, p.workers)

	for i := range chunks {
		wg.Add(1)
		sem <- struct{}{}
		go func(c *chunker.Chunk) {
			defer wg.Done()
			defer func() { <-sem }()

			changes := p.scenes.DetectWindow(ctx, filePath, *c)
			black := p.detector.DetectBlackFrames(ctx, filePath, c.Start, c.End)
			silence := p.detector.DetectSilence(ctx, filePath, c.Start, c.End)

			mu.Lock()
			c.SceneChanges = changes
			c.HasSceneChange = len(changes) > 0
			detected = append(detected, black...)
			detected = append(detected, silence...)
			done++
			report(done, len(chunks))
			mu.Unlock()
		}(&chunks[i])
	}
	wg.Wait()

	sort.SliceStable(detected, func(i, j int) bool { return detected[i].Start < detected[j].Start })
	return detected
}

// loadManualIntervals converts the job's stored skip sections to intervals.
// Stored sections are user-authored, so they carry the manual tag regardless
// of how they were originally suggested.
func (p *Processor) loadManualIntervals(jobID uuid.UUID) ([]interval.Interval, error) {
	sections, err := p.sections.ListByJob(jobID)
	if err != nil {
		return nil, err
	}
	intervals := make([]interval.Interval, 0, len(sections))
	for _, s := range sections {
		intervals = append(intervals, interval.Interval{
			Start:      s.StartSeconds,
			End:        s.EndSeconds,
			Tag:        interval.TagManual,
			Confidence: 1.0,
			Note:       s.Note,
		})
	}
	return intervals, nil
}

// transcribeAll extracts and transcribes each chunk's audio in order, shifts
// segment times onto the video timeline, and drops segments already covered
// by an earlier chunk's overlap.
func (p *Processor) transcribeAll(ctx context.Context, filePath string, chunks []chunker.Chunk, report func(done, total int)) ([]transcribe.Segment, error) {
	var segments []transcribe.Segment
	coveredEnd := 0.0

	for i, c := range chunks {
		audioPath := filepath.Join(p.workDir, fmt.Sprintf("chunk-%s-%d.wav", uuid.NewString()[:8], c.Index))
		if err := p.extractor.ExtractAudio(ctx, filePath, audioPath, c.Start, c.End); err != nil {
			return nil, fmt.Errorf("extract audio for chunk %d: %w", c.Index, err)
		}

		chunkSegments, err := p.transcriber.TranscribeFile(ctx, audioPath)
		os.Remove(audioPath)
		if err != nil {
			return nil, fmt.Errorf("transcribe chunk %d: %w", c.Index, err)
		}

		for _, seg := range transcribe.Shift(chunkSegments, c.Start) {
			if seg.Start < coveredEnd {
				continue
			}
			segments = append(segments, seg)
		}
		coveredEnd = c.End
		report(i+1, len(chunks))
	}
	return segments, nil
}
