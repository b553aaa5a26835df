package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/jajanken/internal/capture"
	"github.com/ayusman/jajanken/internal/log"
)

const (
	backendMediaPipe = "mediapipe"
	scriptName       = "hand_service.py"
	idleTimeout      = 30 * time.Second
)

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
// Frames go to the process as length-prefixed JPEG on stdin; each frame is
// answered by one JSON line on stdout.
type MediaPipeDetector struct {
	config    Config
	script    string
	python    string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
	lastUsed  time.Time
	logger    *slog.Logger
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	if config.MaxHands <= 0 {
		config.MaxHands = DefaultConfig().MaxHands
	}

	script := config.ScriptPath
	if script == "" {
		script = findScript()
	}
	if script == "" {
		return nil, fmt.Errorf("%s not found", scriptName)
	}

	python := config.Python
	if python == "" {
		python = findVenvPython()
	}
	if python == "" {
		python = "python3"
	}

	return &MediaPipeDetector{
		config: config,
		script: script,
		python: python,
		logger: log.With("backend", backendMediaPipe),
	}, nil
}

// Detect rotates the frame upright, sends it to the hand service and returns
// the observed hands in detector space of the frame as captured.
func (d *MediaPipeDetector) Detect(frame *capture.Frame) ([]Observation, error) {
	if frame == nil || frame.Mat.Empty() {
		return nil, &InferenceError{Backend: backendMediaPipe, Err: errors.New("empty frame")}
	}

	data, err := encodeUpright(frame)
	if err != nil {
		return nil, &InferenceError{Backend: backendMediaPipe, Err: err}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, &InferenceError{Backend: backendMediaPipe, Err: err}
	}

	line, err := d.roundTrip(data)
	if err != nil {
		// The stream is out of sync or the process died; restart next time.
		d.shutdown()
		return nil, &InferenceError{Backend: backendMediaPipe, Err: err}
	}

	obs, err := parseResponse(line, frame.Orientation)
	if err != nil {
		return nil, &InferenceError{Backend: backendMediaPipe, Err: err}
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()
	return obs, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) roundTrip(data []byte) ([]byte, error) {
	// Write length (4 bytes big-endian) + data
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return line, nil
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	d.cmd = exec.Command(d.python, d.script,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start hand service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	d.logger.Info("hand service started", "pid", d.cmd.Process.Pid, "max_hands", d.config.MaxHands)
	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	d.logger.Debug("hand service stopped", "err", err)
	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleTimeout, d.idle)
}

// idle shuts the service down unless a detection ran after the timer was
// armed. A callback that fired while Detect held the lock finds a fresh
// lastUsed and leaves the process alone.
func (d *MediaPipeDetector) idle() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !idleExpired(d.lastUsed, time.Now()) {
		return
	}
	d.shutdown()
}

func idleExpired(lastUsed, now time.Time) bool {
	return now.Sub(lastUsed) >= idleTimeout
}

// encodeUpright rotates the frame so its top is up and encodes it as JPEG.
func encodeUpright(frame *capture.Frame) ([]byte, error) {
	src := frame.Mat
	if flag, ok := rotation(frame.Orientation); ok {
		rotated := gocv.NewMat()
		defer rotated.Close()
		gocv.Rotate(frame.Mat, &rotated, flag)
		src = rotated
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, src)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// rotation returns the rotation that brings an image with orientation o
// upright. Upright images need none.
func rotation(o capture.Orientation) (gocv.RotateFlag, bool) {
	switch o {
	case capture.OrientationDown:
		return gocv.Rotate180Clockwise, true
	case capture.OrientationLeft:
		return gocv.Rotate90Clockwise, true
	case capture.OrientationRight:
		return gocv.Rotate90CounterClockwise, true
	}
	return 0, false
}

// toCaptured maps a normalized top-left point in the upright image back to
// the frame as captured, undoing rotation(o).
func toCaptured(o capture.Orientation, x, y float64) (float64, float64) {
	switch o {
	case capture.OrientationDown:
		return 1 - x, 1 - y
	case capture.OrientationLeft:
		return y, 1 - x
	case capture.OrientationRight:
		return 1 - y, x
	}
	return x, y
}

func findScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", scriptName),
		filepath.Join("..", "scripts", scriptName),
		filepath.Join(execDir, "scripts", scriptName),
		filepath.Join(os.Getenv("HOME"), ".jajanken", "scripts", scriptName),
	}
	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment
// next to the project or the executable.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".jajanken/venv/bin/python"),
	}
	return firstExisting(candidates)
}

func firstExisting(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

// serviceResponse is one line from the hand service.
type serviceResponse struct {
	Hands []jsonHand `json:"hands"`
	Error string     `json:"error,omitempty"`
}

type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

type jsonPoint struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          float64  `json:"z"`
	Confidence *float64 `json:"confidence,omitempty"`
}

func parseResponse(line []byte, o capture.Orientation) ([]Observation, error) {
	var resp serviceResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}

	obs := make([]Observation, 0, len(resp.Hands))
	for _, h := range resp.Hands {
		obs = append(obs, h.toObservation(o))
	}
	return obs, nil
}

// toObservation keeps the fingertip landmarks the service reported, mapped
// back to the captured frame. MediaPipe puts the origin at the top-left, so y
// is mirrored into detector space. A tip's confidence is the one the service
// sent, or else how extended its finger is.
func (h jsonHand) toObservation(o capture.Orientation) Observation {
	obs := Observation{
		Points:     make(map[Label]RecognizedPoint, len(FingertipLabels)),
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	for _, label := range FingertipLabels {
		idx := labelIndex[label]
		if idx >= len(h.Points) {
			continue
		}
		p := h.Points[idx]

		conf := extension(h.Points, label)
		if p.Confidence != nil {
			conf = *p.Confidence
		}

		x, y := toCaptured(o, p.X, p.Y)
		obs.Points[label] = RecognizedPoint{
			Location:   Point{X: x, Y: 1 - y},
			Confidence: conf,
		}
	}
	return obs
}
