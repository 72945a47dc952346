// Package transcribe converts extracted audio into timestamped transcript
// segments by shelling out to the whisper CLI.
package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Segment is one timestamped span of recognized speech. Times are relative
// to the start of the transcribed audio file.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcriber turns an audio file into transcript segments.
type Transcriber interface {
	TranscribeFile(ctx context.Context, audioPath string) ([]Segment, error)
}

// WhisperCLI runs the whisper command-line tool with JSON output.
type WhisperCLI struct {
	command string
	model   string
	log     zerolog.Logger
}

func NewWhisperCLI(command, model string, logger zerolog.Logger) *WhisperCLI {
	if command == "" {
		command = "whisper"
	}
	if model == "" {
		model = "base"
	}
	return &WhisperCLI{command: command, model: model, log: logger}
}

// whisperOutput matches the whisper CLI's JSON output file.
type whisperOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		ID    int     `json:"id"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// TranscribeFile runs whisper on one audio file and returns its segments in
// file-relative time. Whisper writes its JSON next to a temp directory that
// is removed before returning.
func (w *WhisperCLI) TranscribeFile(ctx context.Context, audioPath string) ([]Segment, error) {
	outDir, err := os.MkdirTemp("", "whisper-out-")
	if err != nil {
		return nil, fmt.Errorf("create whisper output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	absPath, err := filepath.Abs(audioPath)
	if err != nil {
		return nil, fmt.Errorf("resolve audio path: %w", err)
	}

	cmd := exec.CommandContext(ctx, w.command,
		absPath,
		"--model", w.model,
		"--output_dir", outDir,
		"--output_format", "json",
		"--fp16", "False",
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("whisper failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(outDir, baseName+".json")
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}

	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}

	segments := make([]Segment, 0, len(out.Segments))
	for _, s := range out.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		segments = append(segments, Segment{Text: text, Start: s.Start, End: s.End})
	}

	w.log.Debug().Str("file", audioPath).Int("segments", len(segments)).
		Str("language", out.Language).Msg("transcription complete")
	return segments, nil
}

// Shift returns a copy of segments with both timestamps moved by offset.
// Chunk transcripts are file-relative; shifting by the chunk start puts them
// on the whole-video timeline.
func Shift(segments []Segment, offset float64) []Segment {
	if len(segments) == 0 {
		return nil
	}
	shifted := make([]Segment, len(segments))
	for i, s := range segments {
		shifted[i] = Segment{Text: s.Text, Start: s.Start + offset, End: s.End + offset}
	}
	return shifted
}
