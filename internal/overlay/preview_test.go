package overlay

import (
	"context"
	"errors"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/jajanken/internal/fingertip"
)

func TestPreview_Watch(t *testing.T) {
	p := NewPreview(PreviewConfig{})
	if p.Watching() {
		t.Fatal("new preview should have no watchers")
	}

	release := p.Watch()
	other := p.Watch()
	if !p.Watching() {
		t.Fatal("expected watchers")
	}

	release()
	release()
	if !p.Watching() {
		t.Error("releasing twice must not drop the other watcher")
	}
	other()
	if p.Watching() {
		t.Error("expected no watchers after release")
	}
}

func TestPreview_NextTimesOut(t *testing.T) {
	p := NewPreview(PreviewConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, _, err := p.Next(ctx, 0); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Next() error = %v, want deadline exceeded", err)
	}
}

func TestPreview_Render(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gocv.NewMatWithSize(72, 128, gocv.MatTypeCV8UC3)
	defer frame.Close()

	t.Run("skipped without watchers", func(t *testing.T) {
		p := NewPreview(PreviewConfig{})

		if err := p.Render(frame, fingertip.Set{{X: 0.5, Y: 0.5}}); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if data, seq := p.Latest(); data != nil || seq != 0 {
			t.Error("expected nothing encoded without watchers")
		}
	})

	tests := []struct {
		name    string
		gravity Gravity
		mirror  bool
	}{
		{"resize", GravityResize, false},
		{"aspect", GravityResizeAspect, false},
		{"aspect fill", GravityResizeAspectFill, false},
		{"aspect mirrored", GravityResizeAspect, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPreview(PreviewConfig{Width: 64, Height: 64, Gravity: tt.gravity, Mirror: tt.mirror})
			release := p.Watch()
			defer release()

			done := make(chan []byte, 1)
			go func() {
				data, _, _ := p.Next(context.Background(), 0)
				done <- data
			}()

			if err := p.Render(frame, fingertip.Set{{X: 0.2, Y: 0.7}}); err != nil {
				t.Fatalf("Render() error = %v", err)
			}

			var data []byte
			select {
			case data = <-done:
			case <-time.After(time.Second):
				t.Fatal("Next() did not wake up")
			}

			img, err := gocv.IMDecode(data, gocv.IMReadColor)
			if err != nil {
				t.Fatalf("IMDecode() error = %v", err)
			}
			defer img.Close()

			if img.Cols() != 64 || img.Rows() != 64 {
				t.Errorf("preview size = %dx%d, want 64x64", img.Cols(), img.Rows())
			}
		})
	}
}
