package config

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"zero chunk duration", func(c *Config) { c.ChunkDuration = 0 }, true},
		{"negative overlap", func(c *Config) { c.OverlapDuration = -1 }, true},
		{"overlap equals chunk", func(c *Config) { c.OverlapDuration = c.ChunkDuration }, true},
		{"zero workers", func(c *Config) { c.ChunkWorkers = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("MINISCOPE_TEST_STR", "hello")
	t.Setenv("MINISCOPE_TEST_INT", "42")
	t.Setenv("MINISCOPE_TEST_FLOAT", "2.5")
	t.Setenv("MINISCOPE_TEST_BAD", "not-a-number")

	if got := env("MINISCOPE_TEST_STR", "x"); got != "hello" {
		t.Errorf("env = %q", got)
	}
	if got := env("MINISCOPE_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("env fallback = %q", got)
	}
	if got := envInt("MINISCOPE_TEST_INT", 0); got != 42 {
		t.Errorf("envInt = %d", got)
	}
	if got := envInt("MINISCOPE_TEST_BAD", 7); got != 7 {
		t.Errorf("envInt bad value = %d, want fallback", got)
	}
	if got := envFloat("MINISCOPE_TEST_FLOAT", 0); got != 2.5 {
		t.Errorf("envFloat = %v", got)
	}
	if got := envFloat("MINISCOPE_TEST_BAD", 1.5); got != 1.5 {
		t.Errorf("envFloat bad value = %v, want fallback", got)
	}
}
