// Package capture provides the camera frame source for the fingertip pipeline
// using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// Preset is a capture quality setting.
type Preset struct {
	Name   string
	Width  int
	Height int
	FPS    int
}

// Quality presets. PresetHigh is the default.
var (
	PresetHigh   = Preset{Name: "high", Width: 1280, Height: 720, FPS: 30}
	PresetMedium = Preset{Name: "medium", Width: 640, Height: 480, FPS: 30}
	PresetLow    = Preset{Name: "low", Width: 320, Height: 240, FPS: 15}
)

// PresetByName looks up a preset by its config name.
func PresetByName(name string) (Preset, error) {
	switch strings.ToLower(name) {
	case "", "high":
		return PresetHigh, nil
	case "medium":
		return PresetMedium, nil
	case "low":
		return PresetLow, nil
	}
	return Preset{}, fmt.Errorf("unknown preset %q", name)
}

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	deviceID int
	preset   Preset
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	running  bool
	fps      int
}

// NewCamera creates a new Camera for the given device and quality preset.
// Device 0 is the built-in, user-facing camera on laptops.
func NewCamera(deviceID int, preset Preset) Camera {
	fps := preset.FPS
	if fps <= 0 {
		fps = PresetHigh.FPS
	}
	return &cameraImpl{
		deviceID: deviceID,
		preset:   preset,
		fps:      fps,
	}
}

// Open opens the camera and applies the preset resolution.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("open device %d: %w", c.deviceID, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("open device %d: not opened", c.deviceID)
	}

	if c.preset.Width > 0 && c.preset.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(c.preset.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(c.preset.Height))
	}
	capture.Set(gocv.VideoCaptureFPS, float64(c.fps))

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the camera is currently open.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
