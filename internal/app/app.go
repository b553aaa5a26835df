// Package app wires the capture session, the fingertip extractor, the overlay
// renderer and the referee into the running JaJanken pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ayusman/jajanken/internal/capture"
	"github.com/ayusman/jajanken/internal/config"
	"github.com/ayusman/jajanken/internal/detector"
	"github.com/ayusman/jajanken/internal/fingertip"
	"github.com/ayusman/jajanken/internal/game"
	"github.com/ayusman/jajanken/internal/log"
	"github.com/ayusman/jajanken/internal/overlay"
	"github.com/ayusman/jajanken/internal/store"
)

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("app: closed")

// State is the pipeline lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateStopped State = "stopped"
	StateFailed  State = "failed"
)

// ErrorPolicy decides what a detector failure does to the session.
type ErrorPolicy int

const (
	// SkipOnError drops the failed frame and keeps capturing.
	SkipOnError ErrorPolicy = iota

	// StopOnError stops the session on the first failure.
	StopOnError
)

func (p ErrorPolicy) String() string {
	if p == StopOnError {
		return "stop"
	}
	return "skip"
}

// ParseErrorPolicy parses "skip" or "stop".
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(s) {
	case "", "skip":
		return SkipOnError, nil
	case "stop":
		return StopOnError, nil
	}
	return SkipOnError, fmt.Errorf("unknown error policy %q", s)
}

// Config holds the collaborators and settings of an App.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector

	// Store is optional; without it rounds are refereed but not saved.
	Store *store.Store

	Session capture.SessionConfig
	Extract fingertip.Config
	Preview overlay.PreviewConfig
	Policy  ErrorPolicy

	StableFrames int
	Opponent     game.Opponent
}

// App is the running pipeline.
type App struct {
	cfg       Config
	session   *capture.Session
	extractor *fingertip.Extractor
	renderer  *overlay.Renderer
	preview   *overlay.Preview
	referee   *game.Referee

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu serializes Start, Stop and Close.
	mu         sync.Mutex
	renderOnce sync.Once
	closed     bool

	stateMu  sync.Mutex
	started  bool
	setupErr error

	skipped atomic.Uint64
	rounds  atomic.Uint64

	roundMu   sync.RWMutex
	onRound   []func(*store.Round)
	lastRound *store.Round
}

// New creates an App. Nothing runs until Start.
func New(cfg Config) (*App, error) {
	if cfg.Camera == nil {
		return nil, errors.New("app: camera is required")
	}
	if cfg.Detector == nil {
		return nil, errors.New("app: detector is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		cfg:       cfg,
		session:   capture.NewSession(cfg.Camera, cfg.Session),
		extractor: fingertip.NewExtractor(cfg.Detector, cfg.Extract),
		renderer:  overlay.NewRenderer(),
		preview:   overlay.NewPreview(cfg.Preview),
		referee:   game.NewReferee(cfg.StableFrames, cfg.Opponent),
		ctx:       ctx,
		cancel:    cancel,
	}

	if err := a.session.Attach(a.processFrame); err != nil {
		cancel()
		return nil, err
	}
	return a, nil
}

// FromConfig builds an App from loaded settings, using the MediaPipe detector
// when its service is installed and a mock detector otherwise.
func FromConfig(c *config.Config, st *store.Store) (*App, error) {
	preset, err := capture.PresetByName(c.Preset)
	if err != nil {
		return nil, err
	}
	orientation, err := capture.ParseOrientation(c.Orientation)
	if err != nil {
		return nil, err
	}
	gravity, err := overlay.ParseGravity(c.Gravity)
	if err != nil {
		return nil, err
	}
	policy, err := ParseErrorPolicy(c.ErrorPolicy)
	if err != nil {
		return nil, err
	}

	dcfg := detector.DefaultConfig()
	dcfg.MaxHands = c.MaxHands

	var det detector.Detector
	if mp, err := detector.NewMediaPipeDetector(dcfg); err == nil {
		det = mp
		log.Info("using MediaPipe hand detection", "max_hands", dcfg.MaxHands)
	} else {
		log.Warn("MediaPipe not available, using mock detector", "err", err)
		det = detector.NewMockDetector()
	}

	return New(Config{
		Camera:   capture.NewCamera(c.CameraID, preset),
		Detector: det,
		Store:    st,
		Session:  capture.SessionConfig{Orientation: orientation},
		Extract: fingertip.Config{
			CandidateThreshold: c.CandidateThreshold,
			AcceptThreshold:    c.AcceptThreshold,
			MaxObservations:    c.MaxObservations,
		},
		Preview: overlay.PreviewConfig{
			Width:   preset.Width,
			Height:  preset.Height,
			Gravity: gravity,
			Mirror:  c.Mirror,
			Radius:  c.Radius,
		},
		Policy:       policy,
		StableFrames: c.StableFrames,
	})
}

// Start launches the renderer on first use and starts capture. A setup
// failure is returned and kept for Status until the next successful Start.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}

	a.renderOnce.Do(func() {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.renderer.Run(a.ctx)
		}()
	})

	wasRunning := a.session.Running()
	if err := a.session.Start(); err != nil {
		a.setState(a.started, err)
		log.Error("capture setup failed", "kind", ErrorKind(err), "err", err)
		return err
	}

	if !wasRunning {
		a.referee.Reset()
	}
	a.setState(true, nil)
	log.Info("capture started", "policy", a.cfg.Policy.String())
	return nil
}

func (a *App) setState(started bool, setupErr error) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	a.started = started
	a.setupErr = setupErr
}

// Stop halts capture. The device stays configured for a quick restart.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.session.Stop()
	log.Info("capture stopped", "stats", a.session.Stats())
}

// Close stops everything and releases the camera and the detector.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	a.session.Stop()
	err := a.session.Close()

	a.cancel()
	a.wg.Wait()

	if derr := a.cfg.Detector.Close(); derr != nil {
		err = errors.Join(err, derr)
	}
	return err
}

// Renderer returns the overlay renderer.
func (a *App) Renderer() *overlay.Renderer {
	return a.renderer
}

// Preview returns the annotated preview.
func (a *App) Preview() *overlay.Preview {
	return a.preview
}

// Store returns the round store, which may be nil.
func (a *App) Store() *store.Store {
	return a.cfg.Store
}

// OnRound registers fn to run after each committed round.
func (a *App) OnRound(fn func(*store.Round)) {
	a.roundMu.Lock()
	defer a.roundMu.Unlock()
	a.onRound = append(a.onRound, fn)
}

// LastRound returns the most recent round of this run, or nil.
func (a *App) LastRound() *store.Round {
	a.roundMu.RLock()
	defer a.roundMu.RUnlock()
	return a.lastRound
}

// Subscribe returns the renderer's update feed.
func (a *App) Subscribe() (<-chan overlay.Update, func()) {
	return a.renderer.Subscribe()
}
