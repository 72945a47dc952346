package media

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/rs/zerolog"
)

// Frame is a single decoded grayscale frame. Pixels is row-major, one byte of
// luma per pixel.
type Frame struct {
	Timestamp float64
	Pixels    []byte
}

// FrameSource yields consecutive decoded frames for one time window.
type FrameSource interface {
	// Next returns the next frame, or io.EOF once the window is exhausted.
	Next() (*Frame, error)
	FPS() float64
	Close() error
}

// AudioSource yields consecutive fixed-duration windows of decoded PCM
// samples for one time range. Samples are interleaved across channels, scaled
// to [-1, 1].
type AudioSource interface {
	// NextWindow returns the samples of the next window and the window's
	// start time, or io.EOF once the range is exhausted. The final window
	// may be shorter than the configured duration.
	NextWindow() (samples []float64, start float64, err error)
	Channels() int
	Close() error
}

// ErrNoAudio is returned by OpenAudio when the file carries no audio stream.
var ErrNoAudio = errors.New("no audio track present")

// Decoder opens frame and audio sources by shelling out to ffmpeg.
type Decoder struct {
	ffmpegPath string
	prober     *Prober
	log        zerolog.Logger
}

func NewDecoder(ffmpegPath string, prober *Prober, logger zerolog.Logger) *Decoder {
	return &Decoder{ffmpegPath: ffmpegPath, prober: prober, log: logger}
}

// OpenFrames starts an ffmpeg process decoding [start, end) of the file into
// raw grayscale frames at native resolution.
func (d *Decoder) OpenFrames(ctx context.Context, filePath string, start, end float64) (FrameSource, error) {
	probe, err := d.prober.Probe(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", filePath, err)
	}
	vs, ok := probe.VideoStream()
	if !ok {
		return nil, fmt.Errorf("no video stream in %s", filePath)
	}
	fps := probe.FPS()
	if fps <= 0 || vs.Width <= 0 || vs.Height <= 0 {
		return nil, fmt.Errorf("unusable video stream in %s (fps=%v %dx%d)", filePath, fps, vs.Width, vs.Height)
	}

	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-v", "error",
		"-ss", fmt.Sprintf("%.3f", start),
		"-t", fmt.Sprintf("%.3f", end-start),
		"-i", filePath,
		"-f", "rawvideo",
		"-pix_fmt", "gray",
		"-an",
		"pipe:1",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	d.log.Debug().Str("file", filePath).Float64("start", start).Float64("end", end).
		Float64("fps", fps).Msg("frame source opened")

	return &frameSource{
		cmd:       cmd,
		r:         bufio.NewReaderSize(stdout, vs.Width*vs.Height),
		frameSize: vs.Width * vs.Height,
		fps:       fps,
		start:     start,
	}, nil
}

type frameSource struct {
	cmd       *exec.Cmd
	r         *bufio.Reader
	frameSize int
	fps       float64
	start     float64
	index     int
}

func (s *frameSource) Next() (*Frame, error) {
	buf := make([]byte, s.frameSize)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, io.EOF
		}
		return nil, err
	}
	frame := &Frame{
		Timestamp: s.start + float64(s.index)/s.fps,
		Pixels:    buf,
	}
	s.index++
	return frame, nil
}

func (s *frameSource) FPS() float64 { return s.fps }

func (s *frameSource) Close() error {
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	return s.cmd.Wait()
}

// MeanLuma returns the average brightness of a frame in [0, 255].
func MeanLuma(pixels []byte) float64 {
	if len(pixels) == 0 {
		return 0
	}
	var sum uint64
	for _, p := range pixels {
		sum += uint64(p)
	}
	return float64(sum) / float64(len(pixels))
}
