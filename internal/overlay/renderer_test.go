package overlay

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/jajanken/internal/fingertip"
)

func startRenderer(t *testing.T) (*Renderer, context.CancelFunc) {
	t.Helper()
	r := NewRenderer()
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return r, cancel
}

func result(points ...fingertip.Point) fingertip.Result {
	return fingertip.Result{Points: fingertip.Set(points), Hands: 1}
}

func TestRenderer_HandoffReplacesState(t *testing.T) {
	r, _ := startRenderer(t)
	ctx := context.Background()

	if err := r.Handoff(ctx, result(fingertip.Point{X: 0.1, Y: 0.2}, fingertip.Point{X: 0.3, Y: 0.4})); err != nil {
		t.Fatalf("Handoff() error = %v", err)
	}
	if err := r.Handoff(ctx, result(fingertip.Point{X: 0.9, Y: 0.9})); err != nil {
		t.Fatalf("Handoff() error = %v", err)
	}

	// The second hand-off returned only after the first was accepted, so the
	// first is fully processed; wait briefly for the second.
	deadline := time.Now().Add(time.Second)
	for r.Current().Seq < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	cur := r.Current()
	if cur.Seq != 2 {
		t.Fatalf("Seq = %d, want 2", cur.Seq)
	}
	if len(cur.Points) != 1 || cur.Points[0].X != 0.9 {
		t.Errorf("Points = %v, want only the latest set", cur.Points)
	}
}

func TestRenderer_EmptySetIsPublished(t *testing.T) {
	r, _ := startRenderer(t)
	updates, cancel := r.Subscribe()
	defer cancel()
	<-updates // initial state

	if err := r.Handoff(context.Background(), fingertip.Result{}); err != nil {
		t.Fatalf("Handoff() error = %v", err)
	}

	select {
	case u := <-updates:
		if u.Points == nil || len(u.Points) != 0 {
			t.Errorf("expected empty non-nil set, got %#v", u.Points)
		}
		if u.Seq != 1 {
			t.Errorf("Seq = %d, want 1", u.Seq)
		}
	case <-time.After(time.Second):
		t.Fatal("empty set was not published")
	}
}

func TestRenderer_HandoffBlocksUntilAccepted(t *testing.T) {
	r := NewRenderer()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	// Nobody runs the UI loop, so the hand-off cannot complete.
	err := r.Handoff(ctx, result())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Handoff() error = %v, want deadline exceeded", err)
	}
	if r.Current().Seq != 0 {
		t.Error("unaccepted set must not change state")
	}
}

func TestRenderer_HandoffAfterStop(t *testing.T) {
	r := NewRenderer()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}

	if err := r.Handoff(context.Background(), result()); !errors.Is(err, ErrRendererStopped) {
		t.Errorf("Handoff() error = %v, want ErrRendererStopped", err)
	}
	if err := r.Run(context.Background()); !errors.Is(err, ErrRendererStopped) {
		t.Errorf("second Run() = %v, want ErrRendererStopped", err)
	}
}

func TestRenderer_SecondRunRejected(t *testing.T) {
	r, _ := startRenderer(t)

	// Make sure the first Run is active.
	if err := r.Handoff(context.Background(), result()); err != nil {
		t.Fatalf("Handoff() error = %v", err)
	}

	if err := r.Run(context.Background()); !errors.Is(err, ErrRendererRunning) {
		t.Errorf("Run() = %v, want ErrRendererRunning", err)
	}
}

func TestRenderer_SlowSubscriberSeesLatest(t *testing.T) {
	r, _ := startRenderer(t)
	updates, cancel := r.Subscribe()
	defer cancel()

	for i := 1; i <= 10; i++ {
		if err := r.Handoff(context.Background(), result(fingertip.Point{X: float64(i) / 10})); err != nil {
			t.Fatalf("Handoff() error = %v", err)
		}
	}

	deadline := time.After(time.Second)
	for {
		select {
		case u := <-updates:
			if u.Seq == 10 {
				if u.Points[0].X != 1 {
					t.Errorf("latest point = %v", u.Points)
				}
				return
			}
		case <-deadline:
			t.Fatal("subscriber never saw the latest update")
		}
	}
}

func TestRenderer_SubscribeCancel(t *testing.T) {
	r, stop := startRenderer(t)

	updates, cancel := r.Subscribe()
	first := <-updates
	if first.Seq != 0 || first.Points == nil {
		t.Errorf("initial update = %+v", first)
	}

	cancel()
	cancel()
	if _, ok := <-updates; ok {
		t.Error("expected channel closed after cancel")
	}

	other, _ := r.Subscribe()
	<-other
	stop()

	select {
	case _, ok := <-other:
		if ok {
			// A final update may race the close; the next read must see it.
			if _, ok := <-other; ok {
				t.Error("expected channel closed after renderer stops")
			}
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not closed when renderer stopped")
	}
}

func TestDraw(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	mat := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)
	defer mat.Close()
	mat.SetTo(gocv.NewScalar(0, 0, 0, 0))

	size := image.Pt(100, 100)
	Draw(&mat, fingertip.Set{{X: 0.5, Y: 0.5}}, PreviewTransform{Source: size, View: size}, DefaultRadius)

	// The circle stroke passes through (50+5, 50); its center stays empty.
	if got := mat.GetVecbAt(50, 55); got[1] != 255 {
		t.Errorf("expected green stroke at radius, got %v", got)
	}
	if got := mat.GetVecbAt(50, 50); got[1] != 0 {
		t.Errorf("expected untouched center, got %v", got)
	}
}
