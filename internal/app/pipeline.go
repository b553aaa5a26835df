package app

import (
	"errors"

	"github.com/ayusman/jajanken/internal/capture"
	"github.com/ayusman/jajanken/internal/detector"
	"github.com/ayusman/jajanken/internal/log"
	"github.com/ayusman/jajanken/internal/store"
)

// Status is a snapshot of the pipeline for presentation layers.
type Status struct {
	State     State         `json:"state"`
	Error     string        `json:"error,omitempty"`
	ErrorKind string        `json:"error_kind,omitempty"`
	Policy    string        `json:"policy"`
	Frames    capture.Stats `json:"frames"`
	Skipped   uint64        `json:"skipped"`
	Rounds    uint64        `json:"rounds"`
	Watching  bool          `json:"watching"`
}

// Status reports the current state. A setup failure or a fatal detector
// error puts the app in StateFailed until the next successful Start.
func (a *App) Status() Status {
	a.stateMu.Lock()
	started, setupErr := a.started, a.setupErr
	a.stateMu.Unlock()

	st := Status{
		State:    StateIdle,
		Policy:   a.cfg.Policy.String(),
		Frames:   a.session.Stats(),
		Skipped:  a.skipped.Load(),
		Rounds:   a.rounds.Load(),
		Watching: a.preview.Watching(),
	}

	var err error
	switch {
	case setupErr != nil:
		st.State, err = StateFailed, setupErr
	case a.session.Err() != nil:
		st.State, err = StateFailed, a.session.Err()
	case a.session.Running():
		st.State = StateRunning
	case started:
		st.State = StateStopped
	}

	if err != nil {
		st.Error = err.Error()
		st.ErrorKind = ErrorKind(err)
	}
	return st
}

// ErrorKind names the failure class of err for clients: one of
// "device_unavailable", "input_attach", "output_attach", "inference" or
// "internal".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, capture.ErrDeviceUnavailable):
		return "device_unavailable"
	case errors.Is(err, capture.ErrInputAttach):
		return "input_attach"
	case errors.Is(err, capture.ErrOutputAttach):
		return "output_attach"
	case errors.Is(err, detector.ErrInference):
		return "inference"
	}
	return "internal"
}

// processFrame runs on the session's delivery goroutine, one frame at a time.
// It extracts fingertips, hands them to the renderer and waits for the
// renderer to accept them before returning. A returned error stops the
// session.
func (a *App) processFrame(frame *capture.Frame) error {
	res, err := a.extractor.Extract(frame)
	if err != nil {
		if a.cfg.Policy == StopOnError {
			log.Error("detector failed, stopping capture", "seq", frame.Seq, "err", err)
			return err
		}
		n := a.skipped.Add(1)
		log.Warn("detector failed, skipping frame", "seq", frame.Seq, "skipped", n, "err", err)
		return nil
	}

	if err := a.renderer.Handoff(a.ctx, res); err != nil {
		return err
	}

	if err := a.preview.Render(frame.Mat, res.Points); err != nil {
		log.Debug("preview render", "seq", frame.Seq, "err", err)
	}

	if throw, ok := a.referee.Observe(res); ok {
		a.commit(store.NewRound(throw))
	}
	return nil
}

// commit saves a round when a store is configured and notifies listeners.
func (a *App) commit(rd *store.Round) {
	if a.cfg.Store != nil {
		if err := a.cfg.Store.Rounds().Create(rd); err != nil {
			log.Error("save round", "err", err)
		}
	}
	a.rounds.Add(1)
	log.Info("round", "player", rd.Player, "opponent", rd.Opponent, "outcome", rd.Outcome)

	a.roundMu.Lock()
	a.lastRound = rd
	listeners := append([]func(*store.Round)(nil), a.onRound...)
	a.roundMu.Unlock()

	for _, fn := range listeners {
		fn(rd)
	}
}
