package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.CandidateThreshold != 0.7 {
		t.Errorf("CandidateThreshold = %v, want 0.7", cfg.CandidateThreshold)
	}
	if cfg.AcceptThreshold != 0.9 {
		t.Errorf("AcceptThreshold = %v, want 0.9", cfg.AcceptThreshold)
	}
	if cfg.MaxObservations != 2 {
		t.Errorf("MaxObservations = %d, want 2", cfg.MaxObservations)
	}
	if cfg.MaxHands != 1 {
		t.Errorf("MaxHands = %d, want 1", cfg.MaxHands)
	}
	if cfg.Radius != 5 {
		t.Errorf("Radius = %d, want 5", cfg.Radius)
	}
	if cfg.ErrorPolicy != "skip" {
		t.Errorf("ErrorPolicy = %q, want skip", cfg.ErrorPolicy)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"addr": ":9090", "preset": "medium", "error_policy": "stop", "camera_id": 2}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(EnvAddr, ":7070")
	t.Setenv(EnvAcceptThreshold, "0.95")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != ":7070" {
		t.Errorf("Addr = %q, want env override :7070", cfg.Addr)
	}
	if cfg.Preset != "medium" {
		t.Errorf("Preset = %q, want medium from file", cfg.Preset)
	}
	if cfg.ErrorPolicy != "stop" {
		t.Errorf("ErrorPolicy = %q, want stop from file", cfg.ErrorPolicy)
	}
	if cfg.CameraID != 2 {
		t.Errorf("CameraID = %d, want 2", cfg.CameraID)
	}
	if cfg.AcceptThreshold != 0.95 {
		t.Errorf("AcceptThreshold = %v, want 0.95", cfg.AcceptThreshold)
	}
}

func TestLoad_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv(EnvCameraID, "front")

	if _, err := Load(""); err == nil {
		t.Error("expected error for non-numeric camera id")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"candidate above 1", func(c *Config) { c.CandidateThreshold = 1.5 }},
		{"accept below 0", func(c *Config) { c.AcceptThreshold = -0.1 }},
		{"zero observations", func(c *Config) { c.MaxObservations = 0 }},
		{"zero hands", func(c *Config) { c.MaxHands = 0 }},
		{"zero radius", func(c *Config) { c.Radius = 0 }},
		{"zero stable frames", func(c *Config) { c.StableFrames = 0 }},
		{"unknown preset", func(c *Config) { c.Preset = "ultra" }},
		{"unknown orientation", func(c *Config) { c.Orientation = "sideways" }},
		{"unknown policy", func(c *Config) { c.ErrorPolicy = "retry" }},
		{"unknown gravity", func(c *Config) { c.Gravity = "stretch" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestDBPath(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/tmp/jj"

	if got := cfg.DBPath(); got != filepath.Join("/tmp/jj", "jajanken.db") {
		t.Errorf("DBPath() = %q", got)
	}
}
