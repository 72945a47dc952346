package media

import (
	"encoding/json"
	"testing"
)

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"25/1", 25},
		{"30", 30},
		{"30000/1001", 30000.0 / 1001.0},
		{"0/0", 0},
		{"", 0},
		{"garbage", 0},
	}
	for _, tt := range tests {
		if got := parseFrameRate(tt.in); got != tt.want {
			t.Errorf("parseFrameRate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestProbeResultHelpers(t *testing.T) {
	raw := `{
		"format": {"filename": "clip.mp4", "duration": "62.5"},
		"streams": [
			{"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "r_frame_rate": "25/1"},
			{"codec_type": "audio", "codec_name": "aac", "channels": 2, "sample_rate": "48000"}
		]
	}`
	var result ProbeResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got := result.DurationSeconds(); got != 62.5 {
		t.Errorf("DurationSeconds() = %v, want 62.5", got)
	}
	if got := result.FPS(); got != 25 {
		t.Errorf("FPS() = %v, want 25", got)
	}
	vs, ok := result.VideoStream()
	if !ok || vs.Width != 1920 {
		t.Errorf("VideoStream() = %+v, %v", vs, ok)
	}
	as, ok := result.AudioStream()
	if !ok || as.Channels != 2 {
		t.Errorf("AudioStream() = %+v, %v", as, ok)
	}
}

func TestProbeResultNoStreams(t *testing.T) {
	var result ProbeResult
	if _, ok := result.VideoStream(); ok {
		t.Error("VideoStream() on empty result should report not found")
	}
	if result.FPS() != 0 {
		t.Errorf("FPS() = %v, want 0", result.FPS())
	}
}

func TestMeanLuma(t *testing.T) {
	if got := MeanLuma(nil); got != 0 {
		t.Errorf("MeanLuma(nil) = %v, want 0", got)
	}
	if got := MeanLuma([]byte{0, 0, 0, 0}); got != 0 {
		t.Errorf("MeanLuma(black) = %v, want 0", got)
	}
	if got := MeanLuma([]byte{255, 255}); got != 255 {
		t.Errorf("MeanLuma(white) = %v, want 255", got)
	}
	if got := MeanLuma([]byte{0, 100, 200}); got != 100 {
		t.Errorf("MeanLuma() = %v, want 100", got)
	}
}
