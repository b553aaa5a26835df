package server

import (
	"fmt"
	"net/http"

	"github.com/ayusman/jajanken/internal/overlay"
)

// StreamHandler serves the annotated preview as MJPEG.
type StreamHandler struct {
	preview *overlay.Preview
}

// NewStreamHandler creates a new StreamHandler over the given preview.
func NewStreamHandler(preview *overlay.Preview) *StreamHandler {
	return &StreamHandler{preview: preview}
}

// ServeHTTP streams each new preview frame until the client goes away. The
// preview is only encoded while at least one client is connected.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	release := h.preview.Watch()
	defer release()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	var seq uint64
	for {
		data, next, err := h.preview.Next(r.Context(), seq)
		if err != nil {
			return
		}
		seq = next

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(data))
		if _, err := w.Write(data); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
