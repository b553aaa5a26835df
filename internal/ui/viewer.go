// Package ui is the native preview window: the annotated camera feed, a
// status line and a retry button. Capture follows the window lifecycle, it
// starts when the app comes to the foreground and stops when it leaves.
package ui

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"gocv.io/x/gocv"

	"github.com/ayusman/jajanken/internal/app"
	"github.com/ayusman/jajanken/internal/log"
	"github.com/ayusman/jajanken/internal/overlay"
	"github.com/ayusman/jajanken/internal/store"
)

const statusInterval = 500 * time.Millisecond

// Controller is the part of the app the viewer drives.
type Controller interface {
	Start() error
	Stop()
	Status() app.Status
	Preview() *overlay.Preview
	LastRound() *store.Round
}

// Viewer is the preview window.
type Viewer struct {
	fyneApp fyne.App
	mainWin fyne.Window
	ctrl    Controller

	video  *VideoDisplay
	status *widget.Label
	round  *widget.Label
	retry  *widget.Button

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds the window and hooks capture to the app lifecycle.
func New(a fyne.App, ctrl Controller) *Viewer {
	v := &Viewer{
		fyneApp: a,
		mainWin: a.NewWindow("JaJanken"),
		ctrl:    ctrl,
		video:   NewVideoDisplay(fyne.NewSize(640, 480)),
		status:  widget.NewLabel(""),
		round:   widget.NewLabel(roundText(nil)),
	}

	v.retry = widget.NewButtonWithIcon("Retry", theme.ViewRefreshIcon(), v.Foreground)
	v.retry.Hide()

	header := container.NewHBox(v.status, widget.NewSeparator(), v.round, v.retry)
	v.mainWin.SetContent(container.NewBorder(header, nil, nil, nil, v.video))
	v.mainWin.Resize(fyne.NewSize(800, 600))

	lc := a.Lifecycle()
	lc.SetOnEnteredForeground(v.Foreground)
	lc.SetOnExitedForeground(v.Background)
	lc.SetOnStopped(v.Background)

	v.showStatus(ctrl.Status())
	return v
}

// Run shows the window and blocks until it is closed.
func (v *Viewer) Run() {
	v.mainWin.CenterOnScreen()
	v.mainWin.ShowAndRun()
}

// Foreground starts capture and the preview player. A setup failure is shown
// with a retry button instead.
func (v *Viewer) Foreground() {
	err := v.ctrl.Start()
	v.showStatus(v.ctrl.Status())
	if err != nil {
		log.Warn("viewer could not start capture", "kind", app.ErrorKind(err), "err", err)
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel
	v.wg.Add(2)
	go v.runPlayerLoop(ctx)
	go v.runStatusLoop(ctx)
}

// Background stops the player and capture.
func (v *Viewer) Background() {
	v.mu.Lock()
	cancel := v.cancel
	v.cancel = nil
	v.mu.Unlock()

	if cancel != nil {
		cancel()
		v.wg.Wait()
	}
	v.ctrl.Stop()
	v.showStatus(v.ctrl.Status())
}

// runPlayerLoop decodes each new preview JPEG onto the video display. The
// preview only encodes while this loop watches it.
func (v *Viewer) runPlayerLoop(ctx context.Context) {
	defer v.wg.Done()

	preview := v.ctrl.Preview()
	release := preview.Watch()
	defer release()

	var seq uint64
	for {
		data, next, err := preview.Next(ctx, seq)
		if err != nil {
			return
		}
		seq = next

		img, err := decodeFrame(data)
		if err != nil {
			log.Debug("decode preview frame", "seq", seq, "err", err)
			continue
		}
		fyne.Do(func() {
			v.video.UpdateFrame(img)
		})
	}
}

func (v *Viewer) runStatusLoop(ctx context.Context) {
	defer v.wg.Done()

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := v.ctrl.Status()
			rd := v.ctrl.LastRound()
			fyne.Do(func() {
				v.showStatus(st)
				v.round.SetText(roundText(rd))
			})
		}
	}
}

// showStatus must run on the fyne goroutine.
func (v *Viewer) showStatus(st app.Status) {
	v.status.SetText(statusText(st))
	if st.State == app.StateFailed {
		v.status.Importance = widget.DangerImportance
		v.retry.Show()
	} else {
		v.status.Importance = widget.MediumImportance
		v.retry.Hide()
	}
	v.status.Refresh()
}

func decodeFrame(data []byte) (image.Image, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("empty frame")
	}
	return mat.ToImage()
}

func statusText(st app.Status) string {
	switch st.State {
	case app.StateRunning:
		return fmt.Sprintf("Capturing (%d frames, %d dropped)", st.Frames.Processed, st.Frames.Dropped)
	case app.StateStopped:
		return "Paused"
	case app.StateFailed:
		switch st.ErrorKind {
		case "device_unavailable":
			return "Camera unavailable: " + st.Error
		case "input_attach":
			return "Camera is not delivering frames: " + st.Error
		case "output_attach":
			return "Cannot attach frame output: " + st.Error
		case "inference":
			return "Hand detection failed: " + st.Error
		}
		return "Error: " + st.Error
	}
	return "Starting..."
}

func roundText(rd *store.Round) string {
	if rd == nil {
		return "No rounds yet"
	}
	return fmt.Sprintf("%s vs %s: %s", rd.Player, rd.Opponent, rd.Outcome)
}
