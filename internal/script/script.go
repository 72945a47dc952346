// Package script filters transcripts against skip intervals and turns the
// remainder into a screenplay through a text-generation model.
package script

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lesserevil/miniscope/internal/interval"
	"github.com/lesserevil/miniscope/internal/llm"
	"github.com/lesserevil/miniscope/internal/transcribe"
)

// Context accompanies the filtered transcript to the generation model.
type Context struct {
	VideoID          uuid.UUID `json:"video_id"`
	TotalChunks      int       `json:"total_chunks"`
	TotalDuration    float64   `json:"total_duration"`
	FilteredSections int       `json:"filtered_sections,omitempty"`
}

// FilterTranscript drops every segment that strictly overlaps any interval
// and joins the survivors' text with single spaces, in original order.
// Touching endpoints do not count as overlap. All-filtered input yields "".
func FilterTranscript(segments []transcribe.Segment, intervals []interval.Interval) string {
	var kept []string
	for _, seg := range segments {
		dropped := false
		for _, iv := range intervals {
			if interval.Overlaps(seg.Start, seg.End, iv.Start, iv.End) {
				dropped = true
				break
			}
		}
		if !dropped {
			kept = append(kept, seg.Text)
		}
	}
	return strings.Join(kept, " ")
}

// BuildContext summarizes one processing run for the generation prompt.
func BuildContext(videoID uuid.UUID, totalChunks int, totalDuration float64, intervals []interval.Interval) Context {
	return Context{
		VideoID:          videoID,
		TotalChunks:      totalChunks,
		TotalDuration:    totalDuration,
		FilteredSections: len(intervals),
	}
}

// Generator produces text from a chat exchange. *llm.Client satisfies it.
type Generator interface {
	Chat(ctx context.Context, messages []llm.Message) (string, error)
	Model() string
}

// Assembler turns a filtered transcript into screenplay text.
type Assembler struct {
	gen Generator
	log zerolog.Logger
}

func NewAssembler(gen Generator, logger zerolog.Logger) *Assembler {
	return &Assembler{gen: gen, log: logger}
}

// ModelName returns the generator's model identifier for bookkeeping.
func (a *Assembler) ModelName() string { return a.gen.Model() }

const systemPrompt = `You are a professional screenwriter. Convert the spoken transcript of a video into a properly formatted screenplay: scene headings, action lines, and dialogue. Preserve the order and meaning of the dialogue. Do not invent events that are not in the transcript.`

// Generate builds the prompt from the filtered transcript and context and
// returns the generated screenplay. An empty transcript short-circuits to an
// empty script without calling the model.
func (a *Assembler) Generate(ctx context.Context, transcript string, info Context) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		a.log.Info().Str("video_id", info.VideoID.String()).Msg("empty transcript, skipping generation")
		return "", nil
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Video duration: %.1f seconds across %d chunks.\n", info.TotalDuration, info.TotalChunks)
	if info.FilteredSections > 0 {
		fmt.Fprintf(&prompt, "%d sections were removed as credits, silence, or skipped ranges.\n", info.FilteredSections)
	}
	prompt.WriteString("\nTranscript:\n")
	prompt.WriteString(transcript)

	out, err := a.gen.Chat(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt.String()},
	})
	if err != nil {
		return "", fmt.Errorf("script generation: %w", err)
	}
	return strings.TrimSpace(out), nil
}
