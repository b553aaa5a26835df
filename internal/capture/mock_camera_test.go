package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockCamera_Playback(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame1, &frame2}, false)

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	for i := 0; i < 2; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() %d error = %v", i, err)
		}
		f.Close()
	}

	if _, err := cam.ReadFrame(); err == nil {
		t.Error("expected error after all frames consumed")
	}
}

func TestMockCamera_Loop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	cam, cleanup := NewBlankMockCamera(640, 480)
	defer cleanup()
	cam.Open()
	defer cam.Close()

	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		if f.Cols() != 640 || f.Rows() != 480 {
			t.Errorf("frame size = %dx%d, want 640x480", f.Cols(), f.Rows())
		}
		f.Close()
	}
}

func TestMockCamera_Errors(t *testing.T) {
	cam := NewMockCamera(nil, false)

	openErr := errors.New("no such device")
	cam.SetOpenError(openErr)
	if err := cam.Open(); err != openErr {
		t.Errorf("Open() error = %v, want %v", err, openErr)
	}
	if cam.Opens() != 0 {
		t.Errorf("Opens() = %d after failed open, want 0", cam.Opens())
	}

	cam.SetOpenError(nil)
	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if cam.Opens() != 1 {
		t.Errorf("Opens() = %d, want 1", cam.Opens())
	}

	readErr := errors.New("sensor busy")
	cam.SetReadError(readErr)
	if _, err := cam.ReadFrame(); err != readErr {
		t.Errorf("ReadFrame() error = %v, want %v", err, readErr)
	}
}
