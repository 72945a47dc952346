package script

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lesserevil/miniscope/internal/interval"
	"github.com/lesserevil/miniscope/internal/llm"
	"github.com/lesserevil/miniscope/internal/transcribe"
)

func seg(text string, start, end float64) transcribe.Segment {
	return transcribe.Segment{Text: text, Start: start, End: end}
}

func TestFilterTranscriptDropsOverlapping(t *testing.T) {
	segments := []transcribe.Segment{
		seg("A", 0, 2),
		seg("B", 2, 4),
		seg("C", 4, 6),
	}
	intervals := []interval.Interval{{Start: 2, End: 4, Tag: interval.TagManual}}

	if got := FilterTranscript(segments, intervals); got != "A C" {
		t.Errorf("FilterTranscript() = %q, want %q", got, "A C")
	}
}

func TestFilterTranscriptTouchingKept(t *testing.T) {
	segments := []transcribe.Segment{seg("A", 2, 4)}

	// Interval ends where segment starts: kept.
	if got := FilterTranscript(segments, []interval.Interval{{Start: 0, End: 2}}); got != "A" {
		t.Errorf("touching before = %q, want %q", got, "A")
	}
	// Interval starts where segment ends: kept.
	if got := FilterTranscript(segments, []interval.Interval{{Start: 4, End: 6}}); got != "A" {
		t.Errorf("touching after = %q, want %q", got, "A")
	}
	// Strict overlap: dropped.
	if got := FilterTranscript(segments, []interval.Interval{{Start: 3, End: 5}}); got != "" {
		t.Errorf("overlapping = %q, want empty", got)
	}
}

func TestFilterTranscriptEmptyInputs(t *testing.T) {
	if got := FilterTranscript(nil, nil); got != "" {
		t.Errorf("nil segments = %q, want empty", got)
	}
	if got := FilterTranscript(nil, []interval.Interval{{Start: 0, End: 10}}); got != "" {
		t.Errorf("no segments = %q, want empty", got)
	}
	segments := []transcribe.Segment{seg("A", 0, 2)}
	if got := FilterTranscript(segments, nil); got != "A" {
		t.Errorf("no intervals = %q, want %q", got, "A")
	}
}

func TestFilterTranscriptAllFiltered(t *testing.T) {
	segments := []transcribe.Segment{seg("A", 0, 2), seg("B", 2, 4)}
	intervals := []interval.Interval{{Start: 0, End: 10}}
	if got := FilterTranscript(segments, intervals); got != "" {
		t.Errorf("all filtered = %q, want empty", got)
	}
}

func TestBuildContext(t *testing.T) {
	id := uuid.New()
	intervals := []interval.Interval{
		{Start: 0, End: 5, Tag: interval.TagBlackFrame},
		{Start: 50, End: 60, Tag: interval.TagManual},
	}
	got := BuildContext(id, 3, 65, intervals)
	if got.VideoID != id || got.TotalChunks != 3 || got.TotalDuration != 65 || got.FilteredSections != 2 {
		t.Errorf("BuildContext() = %+v", got)
	}
}

// ──────────────────── assembler ────────────────────

type fakeGenerator struct {
	gotMessages []llm.Message
	reply       string
	err         error
	calls       int
}

func (g *fakeGenerator) Chat(_ context.Context, messages []llm.Message) (string, error) {
	g.calls++
	g.gotMessages = messages
	return g.reply, g.err
}

func (g *fakeGenerator) Model() string { return "fake" }

func TestAssemblerGenerate(t *testing.T) {
	gen := &fakeGenerator{reply: "FADE IN.\n"}
	a := NewAssembler(gen, zerolog.Nop())

	got, err := a.Generate(context.Background(), "hello world", Context{TotalChunks: 2, TotalDuration: 60, FilteredSections: 1})
	if err != nil {
		t.Fatal(err)
	}
	if got != "FADE IN." {
		t.Errorf("Generate() = %q, want trimmed reply", got)
	}
	if len(gen.gotMessages) != 2 || gen.gotMessages[0].Role != "system" {
		t.Fatalf("messages = %+v, want system+user", gen.gotMessages)
	}
	if !strings.Contains(gen.gotMessages[1].Content, "hello world") {
		t.Error("user message must carry the transcript")
	}
	if !strings.Contains(gen.gotMessages[1].Content, "1 sections were removed") {
		t.Error("user message must mention removed sections")
	}
}

func TestAssemblerEmptyTranscriptSkipsModel(t *testing.T) {
	gen := &fakeGenerator{reply: "should not be used"}
	a := NewAssembler(gen, zerolog.Nop())

	got, err := a.Generate(context.Background(), "   ", Context{})
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("Generate() = %q, want empty", got)
	}
	if gen.calls != 0 {
		t.Error("model must not be called for an empty transcript")
	}
}

func TestAssemblerPropagatesError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model offline")}
	a := NewAssembler(gen, zerolog.Nop())

	if _, err := a.Generate(context.Background(), "text", Context{}); err == nil {
		t.Fatal("expected error from generator")
	}
}
