package chunker

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/lesserevil/miniscope/internal/media"
)

type fakeFrameSource struct {
	frames []*media.Frame
	fps    float64
	pos    int
}

func (s *fakeFrameSource) Next() (*media.Frame, error) {
	if s.pos >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *fakeFrameSource) FPS() float64 { return s.fps }
func (s *fakeFrameSource) Close() error { return nil }

type fakeFrameOpener struct {
	src *fakeFrameSource
	err error
}

func (o *fakeFrameOpener) OpenFrames(_ context.Context, _ string, _, _ float64) (media.FrameSource, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.src, nil
}

func solidFrame(ts float64, luma byte) *media.Frame {
	pixels := make([]byte, 64)
	for i := range pixels {
		pixels[i] = luma
	}
	return &media.Frame{Timestamp: ts, Pixels: pixels}
}

func newSceneDetector(t *testing.T, opener FrameOpener, threshold float64) *SceneDetector {
	t.Helper()
	d, err := NewSceneDetector(opener, threshold, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestSceneDetectorIdenticalFramesNoChanges(t *testing.T) {
	opener := &fakeFrameOpener{src: &fakeFrameSource{
		fps: 10,
		frames: []*media.Frame{
			solidFrame(0.0, 120),
			solidFrame(0.1, 120),
			solidFrame(0.2, 120),
		},
	}}
	d := newSceneDetector(t, opener, 0.3)

	changes := d.DetectWindow(context.Background(), "clip.mp4", Chunk{Start: 0, End: 1})
	if len(changes) != 0 {
		t.Errorf("identical frames produced %d changes: %v", len(changes), changes)
	}
}

func TestSceneDetectorFlagsDiscontinuity(t *testing.T) {
	opener := &fakeFrameOpener{src: &fakeFrameSource{
		fps: 10,
		frames: []*media.Frame{
			solidFrame(0.0, 20),
			solidFrame(0.1, 20),
			solidFrame(0.2, 230), // hard cut
			solidFrame(0.3, 230),
		},
	}}
	d := newSceneDetector(t, opener, 0.3)

	changes := d.DetectWindow(context.Background(), "clip.mp4", Chunk{Start: 0, End: 1})
	if len(changes) != 1 {
		t.Fatalf("got %d changes, want 1: %v", len(changes), changes)
	}
	if changes[0].Timestamp != 0.2 {
		t.Errorf("change at %v, want 0.2 (timestamp of the later frame)", changes[0].Timestamp)
	}
	if changes[0].Confidence <= 0.3 || changes[0].Confidence > 1 {
		t.Errorf("confidence = %v, want in (0.3, 1]", changes[0].Confidence)
	}
}

func TestSceneDetectorFirstFrameNeverEmits(t *testing.T) {
	opener := &fakeFrameOpener{src: &fakeFrameSource{
		fps:    10,
		frames: []*media.Frame{solidFrame(0.0, 200)},
	}}
	d := newSceneDetector(t, opener, 0.0)

	changes := d.DetectWindow(context.Background(), "clip.mp4", Chunk{Start: 0, End: 1})
	if len(changes) != 0 {
		t.Errorf("single frame produced %d changes: %v", len(changes), changes)
	}
}

func TestSceneDetectorUnreadableSourceDegrades(t *testing.T) {
	opener := &fakeFrameOpener{err: errors.New("no such file")}
	d := newSceneDetector(t, opener, 0.3)

	changes := d.DetectWindow(context.Background(), "missing.mp4", Chunk{Start: 0, End: 1})
	if changes != nil {
		t.Errorf("unreadable source should yield empty result, got %v", changes)
	}
}

func TestNewSceneDetectorRejectsBadThreshold(t *testing.T) {
	for _, th := range []float64{-0.1, 1.1} {
		if _, err := NewSceneDetector(&fakeFrameOpener{}, th, zerolog.Nop()); !errors.Is(err, ErrConfiguration) {
			t.Errorf("NewSceneDetector(threshold=%v) error = %v, want ErrConfiguration", th, err)
		}
	}
}
