// Package config loads JaJanken settings from defaults, an optional JSON
// file and JAJANKEN_* environment variables, in that order.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid config")

// Environment variable names.
const (
	EnvAddr               = "JAJANKEN_ADDR"
	EnvDataDir            = "JAJANKEN_DATA_DIR"
	EnvCameraID           = "JAJANKEN_CAMERA_ID"
	EnvPreset             = "JAJANKEN_PRESET"
	EnvOrientation        = "JAJANKEN_ORIENTATION"
	EnvCandidateThreshold = "JAJANKEN_CANDIDATE_THRESHOLD"
	EnvAcceptThreshold    = "JAJANKEN_ACCEPT_THRESHOLD"
	EnvErrorPolicy        = "JAJANKEN_ERROR_POLICY"
	EnvLogLevel           = "JAJANKEN_LOG_LEVEL"
	EnvStaticDir          = "JAJANKEN_STATIC_DIR"
)

// Config holds every tunable of the capture pipeline and its shells.
type Config struct {
	Addr      string `json:"addr"`
	DataDir   string `json:"data_dir"`
	StaticDir string `json:"static_dir"`
	LogLevel  string `json:"log_level"`

	// Camera
	CameraID    int    `json:"camera_id"`
	Preset      string `json:"preset"`      // "high", "medium", "low"
	Orientation string `json:"orientation"` // "up", "down", "left", "right"

	// Extraction
	CandidateThreshold float64 `json:"candidate_threshold"`
	AcceptThreshold    float64 `json:"accept_threshold"`
	MaxObservations    int     `json:"max_observations"`
	MaxHands           int     `json:"max_hands"`
	ErrorPolicy        string  `json:"error_policy"` // "skip" or "stop"

	// Overlay
	Radius  int    `json:"radius"`
	Gravity string `json:"gravity"` // "resize", "aspect", "aspect_fill"
	Mirror  bool   `json:"mirror"`

	// Game
	StableFrames int `json:"stable_frames"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	dataDir := ".jajanken"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".jajanken")
	}

	return &Config{
		Addr:               ":8080",
		DataDir:            dataDir,
		LogLevel:           "info",
		CameraID:           0,
		Preset:             "high",
		Orientation:        "up",
		CandidateThreshold: 0.7,
		AcceptThreshold:    0.9,
		MaxObservations:    2,
		MaxHands:           1,
		ErrorPolicy:        "skip",
		Radius:             5,
		Gravity:            "aspect",
		StableFrames:       5,
	}
}

// Load builds a Config from defaults, the JSON file at path (skipped when
// path is empty or the file does not exist) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Addr = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvStaticDir); v != "" {
		c.StaticDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvPreset); v != "" {
		c.Preset = v
	}
	if v := os.Getenv(EnvOrientation); v != "" {
		c.Orientation = v
	}
	if v := os.Getenv(EnvErrorPolicy); v != "" {
		c.ErrorPolicy = v
	}
	if v := os.Getenv(EnvCameraID); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCameraID, err)
		}
		c.CameraID = id
	}
	if v := os.Getenv(EnvCandidateThreshold); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCandidateThreshold, err)
		}
		c.CandidateThreshold = f
	}
	if v := os.Getenv(EnvAcceptThreshold); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAcceptThreshold, err)
		}
		c.AcceptThreshold = f
	}
	return nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.CandidateThreshold < 0 || c.CandidateThreshold > 1 {
		return fmt.Errorf("%w: candidate_threshold %v outside [0,1]", ErrInvalid, c.CandidateThreshold)
	}
	if c.AcceptThreshold < 0 || c.AcceptThreshold > 1 {
		return fmt.Errorf("%w: accept_threshold %v outside [0,1]", ErrInvalid, c.AcceptThreshold)
	}
	if c.MaxObservations < 1 {
		return fmt.Errorf("%w: max_observations must be at least 1", ErrInvalid)
	}
	if c.MaxHands < 1 {
		return fmt.Errorf("%w: max_hands must be at least 1", ErrInvalid)
	}
	if c.Radius < 1 {
		return fmt.Errorf("%w: radius must be at least 1", ErrInvalid)
	}
	if c.StableFrames < 1 {
		return fmt.Errorf("%w: stable_frames must be at least 1", ErrInvalid)
	}
	if !oneOf(c.Preset, "high", "medium", "low") {
		return fmt.Errorf("%w: unknown preset %q", ErrInvalid, c.Preset)
	}
	if !oneOf(c.Orientation, "up", "down", "left", "right") {
		return fmt.Errorf("%w: unknown orientation %q", ErrInvalid, c.Orientation)
	}
	if !oneOf(c.ErrorPolicy, "skip", "stop") {
		return fmt.Errorf("%w: unknown error_policy %q", ErrInvalid, c.ErrorPolicy)
	}
	if !oneOf(c.Gravity, "resize", "aspect", "aspect_fill") {
		return fmt.Errorf("%w: unknown gravity %q", ErrInvalid, c.Gravity)
	}
	return nil
}

// DBPath returns the SQLite file inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "jajanken.db")
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
