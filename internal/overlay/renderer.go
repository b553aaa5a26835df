// Package overlay owns the current fingertip set and draws it over the
// preview. The renderer's Run loop is the UI context: the delivery worker hands
// sets to it synchronously and it fans them out to subscribers.
package overlay

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/jajanken/internal/fingertip"
	"github.com/ayusman/jajanken/internal/log"
)

// ErrRendererStopped is returned by Handoff once Run has exited.
var ErrRendererStopped = errors.New("overlay: renderer stopped")

// ErrRendererRunning is returned by a second concurrent Run.
var ErrRendererRunning = errors.New("overlay: renderer already running")

// DefaultRadius is the marker radius in view pixels.
const DefaultRadius = 5

// MarkerColor is the marker stroke color.
var MarkerColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}

// Update is one accepted fingertip set.
type Update struct {
	Seq    uint64        `json:"seq" cbor:"seq"`
	Points fingertip.Set `json:"points" cbor:"points"`
	Hands  int           `json:"hands" cbor:"hands"`
	At     time.Time     `json:"at" cbor:"at"`
}

type handoff struct {
	res fingertip.Result
}

// Renderer holds the current fingertip set.
type Renderer struct {
	handoff chan handoff

	mu      sync.Mutex
	running bool
	done    chan struct{}
	current Update
	nextID  int
	subs    map[int]chan Update
}

// NewRenderer creates a renderer. Call Run before handing off sets.
func NewRenderer() *Renderer {
	return &Renderer{
		handoff: make(chan handoff),
		done:    make(chan struct{}),
		current: Update{Points: fingertip.Set{}},
		subs:    make(map[int]chan Update),
	}
}

// Run accepts hand-offs until ctx is cancelled. Each accepted set replaces
// the current one and is published to every subscriber.
func (r *Renderer) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrRendererRunning
	}
	select {
	case <-r.done:
		r.mu.Unlock()
		return ErrRendererStopped
	default:
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		close(r.done)
		for id, ch := range r.subs {
			close(ch)
			delete(r.subs, id)
		}
		r.mu.Unlock()
	}()

	log.Debug("renderer started")
	for {
		select {
		case <-ctx.Done():
			log.Debug("renderer stopped")
			return ctx.Err()
		case h := <-r.handoff:
			r.accept(h.res)
		}
	}
}

// Handoff blocks until the renderer has accepted res. It fails if ctx ends
// first or the renderer has stopped.
func (r *Renderer) Handoff(ctx context.Context, res fingertip.Result) error {
	select {
	case r.handoff <- handoff{res: res}:
		return nil
	case <-r.done:
		return ErrRendererStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Renderer) accept(res fingertip.Result) {
	points := res.Points
	if points == nil {
		points = fingertip.Set{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.current = Update{
		Seq:    r.current.Seq + 1,
		Points: points,
		Hands:  res.Hands,
		At:     time.Now(),
	}
	for _, ch := range r.subs {
		offer(ch, r.current)
	}
}

// offer puts u in a one-slot channel, replacing any unread update.
func offer(ch chan Update, u Update) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- u:
	default:
	}
}

// Current returns the latest accepted update.
func (r *Renderer) Current() Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Subscribe returns a channel receiving the newest update, starting with the
// current one. A slow reader only ever sees the latest set. The channel is
// closed by cancel or when the renderer stops.
func (r *Renderer) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 1)

	r.mu.Lock()
	select {
	case <-r.done:
		r.mu.Unlock()
		close(ch)
		return ch, func() {}
	default:
	}
	id := r.nextID
	r.nextID++
	r.subs[id] = ch
	ch <- r.current
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if _, ok := r.subs[id]; ok {
				delete(r.subs, id)
				close(ch)
			}
		})
	}
}

// Draw marks each point of set on dst with a circle of the given radius after
// mapping it through t.
func Draw(dst *gocv.Mat, set fingertip.Set, t PreviewTransform, radius int) {
	for _, p := range set {
		gocv.Circle(dst, t.ImagePoint(p), radius, MarkerColor, 2)
	}
}
