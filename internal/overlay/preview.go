package overlay

import (
	"context"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/jajanken/internal/fingertip"
)

// PreviewConfig configures a Preview. A zero Width or Height keeps the
// capture size.
type PreviewConfig struct {
	Width   int
	Height  int
	Gravity Gravity
	Mirror  bool
	Radius  int
}

// Preview keeps the latest annotated frame as JPEG. Frames are only composed
// and encoded while at least one watcher is registered.
type Preview struct {
	cfg PreviewConfig

	mu       sync.Mutex
	watchers int
	jpeg     []byte
	seq      uint64
	changed  chan struct{}
}

// NewPreview creates an empty preview.
func NewPreview(cfg PreviewConfig) *Preview {
	if cfg.Radius <= 0 {
		cfg.Radius = DefaultRadius
	}
	return &Preview{
		cfg:     cfg,
		changed: make(chan struct{}),
	}
}

// Watch registers a watcher. Call the returned func to unregister.
func (p *Preview) Watch() func() {
	p.mu.Lock()
	p.watchers++
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			p.watchers--
			p.mu.Unlock()
		})
	}
}

// Watching reports whether anyone is watching.
func (p *Preview) Watching() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watchers > 0
}

// Render composes frame into the preview, draws set over it and stores the
// JPEG. It does nothing when nobody is watching.
func (p *Preview) Render(frame gocv.Mat, set fingertip.Set) error {
	if !p.Watching() || frame.Empty() {
		return nil
	}

	t := p.transform(frame)
	view := compose(frame, t)
	defer view.Close()

	Draw(&view, set, t, p.cfg.Radius)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, view)
	if err != nil {
		return err
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	p.mu.Lock()
	p.jpeg = data
	p.seq++
	close(p.changed)
	p.changed = make(chan struct{})
	p.mu.Unlock()
	return nil
}

// Latest returns the newest JPEG and its sequence number, or nil before the
// first render.
func (p *Preview) Latest() ([]byte, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jpeg, p.seq
}

// Next waits for a JPEG newer than after.
func (p *Preview) Next(ctx context.Context, after uint64) ([]byte, uint64, error) {
	for {
		p.mu.Lock()
		if p.seq > after {
			data, seq := p.jpeg, p.seq
			p.mu.Unlock()
			return data, seq, nil
		}
		changed := p.changed
		p.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return nil, after, ctx.Err()
		}
	}
}

func (p *Preview) transform(frame gocv.Mat) PreviewTransform {
	src := image.Pt(frame.Cols(), frame.Rows())
	view := src
	if p.cfg.Width > 0 && p.cfg.Height > 0 {
		view = image.Pt(p.cfg.Width, p.cfg.Height)
	}
	return PreviewTransform{Source: src, View: view, Gravity: p.cfg.Gravity, Mirror: p.cfg.Mirror}
}

// compose fits frame into a view-sized image according to t. The caller
// closes the result.
func compose(frame gocv.Mat, t PreviewTransform) gocv.Mat {
	src := frame
	if t.Mirror {
		flipped := gocv.NewMat()
		defer flipped.Close()
		gocv.Flip(frame, &flipped, 1)
		src = flipped
	}

	size, offset := t.Layout()
	w, h := int(size.X+0.5), int(size.Y+0.5)
	ox, oy := int(offset.X+0.5), int(offset.Y+0.5)

	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Resize(src, &scaled, image.Pt(w, h), 0, 0, gocv.InterpolationLinear)

	if w == t.View.X && h == t.View.Y {
		return scaled.Clone()
	}

	view := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), t.View.Y, t.View.X, frame.Type())
	viewRect := image.Rect(0, 0, t.View.X, t.View.Y)
	dstRect := image.Rect(ox, oy, ox+w, oy+h).Intersect(viewRect)
	if dstRect.Empty() {
		return view
	}
	srcRect := dstRect.Sub(image.Pt(ox, oy))

	from := scaled.Region(srcRect)
	defer from.Close()
	to := view.Region(dstRect)
	defer to.Close()
	from.CopyTo(&to)

	return view
}
