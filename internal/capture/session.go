package capture

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/jajanken/internal/log"
)

// probeAttempts is how many reads configure tries before giving up on input.
const probeAttempts = 3

// FrameHandler consumes one frame on the delivery goroutine. Returning an
// error stops the session; the frame is closed by the session afterwards.
type FrameHandler func(*Frame) error

// SessionConfig configures a Session.
type SessionConfig struct {
	// Orientation is stamped on every delivered frame.
	Orientation Orientation

	// ProbeInterval is the pause between setup probe reads (default 50ms).
	ProbeInterval time.Duration
}

// Stats reports frame counters since the session was created.
type Stats struct {
	Captured  uint64 `json:"captured"`
	Dropped   uint64 `json:"dropped"`
	Processed uint64 `json:"processed"`
}

// Session owns a camera and delivers its frames, one at a time, to a single
// attached handler. Frames captured while the handler is busy replace each
// other in a one-slot mailbox; only the newest is delivered.
type Session struct {
	camera Camera
	cfg    SessionConfig

	mu         sync.Mutex
	handler    FrameHandler
	configured bool
	runCtx     context.Context
	cancel     context.CancelFunc
	mailbox    *Mailbox[*Frame]
	wg         sync.WaitGroup

	seq       atomic.Uint64
	dropped   atomic.Uint64
	processed atomic.Uint64

	errMu sync.Mutex
	err   error
}

// NewSession creates a session over camera. The camera is not opened until
// the first Start.
func NewSession(camera Camera, cfg SessionConfig) *Session {
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = 50 * time.Millisecond
	}
	return &Session{
		camera: camera,
		cfg:    cfg,
	}
}

// Attach sets the frame handler. A session has exactly one output; attaching
// a second one, or a nil handler, fails with ErrOutputAttach.
func (s *Session) Attach(h FrameHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h == nil {
		return &SetupError{Kind: ErrOutputAttach, Err: errors.New("nil frame handler")}
	}
	if s.handler != nil {
		return &SetupError{Kind: ErrOutputAttach, Err: errors.New("output already attached")}
	}
	s.handler = h
	return nil
}

// Start configures the session on first use and begins delivering frames.
// Starting a running session is a no-op. A stopped session restarts without
// reopening the device.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning() {
		return nil
	}

	if s.handler == nil {
		return &SetupError{Kind: ErrOutputAttach, Err: errors.New("no frame handler attached")}
	}

	if !s.configured {
		if err := s.configure(); err != nil {
			return err
		}
		s.configured = true
	}

	// A previous run may have stopped itself on a handler error.
	s.halt()
	s.setErr(nil)

	ctx, cancel := context.WithCancel(context.Background())
	mb := NewMailbox(func(f *Frame) {
		f.Close()
		s.dropped.Add(1)
	})

	s.runCtx = ctx
	s.cancel = cancel
	s.mailbox = mb

	s.wg.Add(2)
	go s.read(ctx, mb)
	go s.deliver(ctx, cancel, mb, s.handler)

	log.Debug("capture session started", "orientation", s.cfg.Orientation.String())
	return nil
}

// Stop halts delivery and returns once no frame is in flight. The device
// stays open so the next Start is cheap. Stop must not be called from the
// frame handler; return an error from the handler instead.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halt()
}

// Close stops the session and releases the camera. A closed session can be
// started again; it will be configured from scratch.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.halt()
	if !s.configured {
		return nil
	}
	s.configured = false
	return s.camera.Close()
}

// Running reports whether frames are being delivered.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning()
}

// Configured reports whether the device has been set up.
func (s *Session) Configured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configured
}

// Err returns the handler error that stopped the last run, if any.
func (s *Session) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Stats returns the frame counters.
func (s *Session) Stats() Stats {
	return Stats{
		Captured:  s.seq.Load(),
		Dropped:   s.dropped.Load(),
		Processed: s.processed.Load(),
	}
}

func (s *Session) isRunning() bool {
	return s.runCtx != nil && s.runCtx.Err() == nil
}

// halt cancels the current run and waits for it. Caller holds s.mu.
func (s *Session) halt() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.mailbox.Close()

	s.runCtx = nil
	s.cancel = nil
	s.mailbox = nil
	log.Debug("capture session stopped", "stats", s.Stats())
}

// configure opens the device and checks that it produces frames.
func (s *Session) configure() error {
	if err := s.camera.Open(); err != nil {
		return &SetupError{Kind: ErrDeviceUnavailable, Err: err}
	}

	var lastErr error
	for i := 0; i < probeAttempts; i++ {
		mat, err := s.camera.ReadFrame()
		if err == nil {
			mat.Close()
			return nil
		}
		lastErr = err
		time.Sleep(s.cfg.ProbeInterval)
	}

	s.camera.Close()
	return &SetupError{Kind: ErrInputAttach, Err: lastErr}
}

// read pulls frames from the camera at its FPS and posts them to the mailbox.
func (s *Session) read(ctx context.Context, mb *Mailbox[*Frame]) {
	defer s.wg.Done()

	fps := s.camera.FPS()
	if fps <= 0 {
		fps = PresetHigh.FPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		mat, err := s.camera.ReadFrame()
		if err != nil {
			log.Debug("read frame", "err", err)
			continue
		}

		frame := &Frame{
			Mat:         *mat,
			Orientation: s.cfg.Orientation,
			Seq:         s.seq.Add(1),
			CapturedAt:  time.Now(),
		}
		if _, err := mb.Put(frame); err != nil {
			return
		}
	}
}

// deliver hands frames to the handler one at a time.
func (s *Session) deliver(ctx context.Context, cancel context.CancelFunc, mb *Mailbox[*Frame], handle FrameHandler) {
	defer s.wg.Done()

	for {
		frame, err := mb.Take(ctx)
		if err != nil {
			return
		}

		herr := handle(frame)
		frame.Close()

		if herr != nil {
			s.setErr(herr)
			log.Warn("capture session stopped by handler", "seq", frame.Seq, "err", herr)
			cancel()
			return
		}
		s.processed.Add(1)
	}
}

func (s *Session) setErr(err error) {
	s.errMu.Lock()
	s.err = err
	s.errMu.Unlock()
}
