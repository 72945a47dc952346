// Package media provides decoded access to video files through ffmpeg and
// ffprobe: stream metadata, a grayscale frame source and a PCM audio source,
// both addressable by time range.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type Prober struct{ Path string }

func NewProber(path string) *Prober { return &Prober{Path: path} }

type ProbeResult struct {
	Format  FormatInfo   `json:"format"`
	Streams []StreamInfo `json:"streams"`
}

type FormatInfo struct {
	Filename string `json:"filename"`
	Duration string `json:"duration"`
	Size     string `json:"size"`
	Bitrate  string `json:"bit_rate"`
}

type StreamInfo struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Channels   int    `json:"channels"`
	SampleRate string `json:"sample_rate"`
	RFrameRate string `json:"r_frame_rate"`
}

func (p *Prober) Probe(ctx context.Context, filePath string) (*ProbeResult, error) {
	cmd := exec.CommandContext(ctx, p.Path, "-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", filePath)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return &result, nil
}

func (r *ProbeResult) DurationSeconds() float64 {
	duration, _ := strconv.ParseFloat(r.Format.Duration, 64)
	return duration
}

func (r *ProbeResult) VideoStream() (*StreamInfo, bool) {
	for i := range r.Streams {
		if r.Streams[i].CodecType == "video" {
			return &r.Streams[i], true
		}
	}
	return nil, false
}

func (r *ProbeResult) AudioStream() (*StreamInfo, bool) {
	for i := range r.Streams {
		if r.Streams[i].CodecType == "audio" {
			return &r.Streams[i], true
		}
	}
	return nil, false
}

// FPS returns the video frame rate, parsing ffprobe's fractional form
// ("30000/1001"). Returns 0 when the file has no video stream.
func (r *ProbeResult) FPS() float64 {
	s, ok := r.VideoStream()
	if !ok {
		return 0
	}
	return parseFrameRate(s.RFrameRate)
}

func parseFrameRate(rate string) float64 {
	if rate == "" {
		return 0
	}
	parts := strings.SplitN(rate, "/", 2)
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0
	}
	if len(parts) == 1 {
		return num
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 {
		return 0
	}
	return num / den
}
