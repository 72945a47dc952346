package media

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"
)

// audioSampleRate is the rate audio is resampled to for analysis and
// transcription. 16 kHz mono-compatible PCM is what whisper expects.
const audioSampleRate = 16000

// OpenAudio starts an ffmpeg process decoding [start, end) of the file's
// audio into signed 16-bit PCM at the native channel count, windowed into
// fixed-duration chunks. Returns ErrNoAudio when the file has no audio
// stream.
func (d *Decoder) OpenAudio(ctx context.Context, filePath string, start, end, window float64) (AudioSource, error) {
	probe, err := d.prober.Probe(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", filePath, err)
	}
	as, ok := probe.AudioStream()
	if !ok {
		return nil, ErrNoAudio
	}
	channels := as.Channels
	if channels <= 0 {
		channels = 1
	}

	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-v", "error",
		"-ss", fmt.Sprintf("%.3f", start),
		"-t", fmt.Sprintf("%.3f", end-start),
		"-i", filePath,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprintf("%d", audioSampleRate),
		"-ac", fmt.Sprintf("%d", channels),
		"-vn",
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
		Int("channels", channels).Msg("audio source opened")

	return &audioSource{
		cmd:      cmd,
		r:        bufio.NewReader(stdout),
		channels: channels,
		window:   window,
		cursor:   start,
	}, nil
}

type audioSource struct {
	cmd      *exec.Cmd
	r        *bufio.Reader
	channels int
	window   float64
	cursor   float64
}

func (s *audioSource) NextWindow() ([]float64, float64, error) {
	sampleCount := int(s.window*audioSampleRate) * s.channels
	buf := make([]byte, sampleCount*2)

	n, err := io.ReadFull(s.r, buf)
	if n == 0 {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, 0, io.EOF
		}
		return nil, 0, err
	}
	// A short final read is a valid partial window.
	n -= n % (2 * s.channels)

	samples := make([]float64, n/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(buf[2*i:]))
		samples[i] = float64(v) / 32768.0
	}

	start := s.cursor
	s.cursor += float64(len(samples)/s.channels) / audioSampleRate
	return samples, start, nil
}

func (s *audioSource) Channels() int { return s.channels }

func (s *audioSource) Close() error {
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	return s.cmd.Wait()
}

// ExtractAudio writes [start, end) of the file's audio to a mono 16 kHz WAV,
// the format the transcriber consumes.
func (d *Decoder) ExtractAudio(ctx context.Context, filePath, outPath string, start, end float64) error {
	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-v", "error",
		"-y",
		"-ss", fmt.Sprintf("%.3f", start),
		"-t", fmt.Sprintf("%.3f", end-start),
		"-i", filePath,
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprintf("%d", audioSampleRate),
		"-ac", "1",
		"-vn",
		outPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("extract audio: %w: %s", err, output)
	}
	return nil
}
