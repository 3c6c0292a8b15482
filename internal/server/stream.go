package server

import (
	"bytes"
	"fmt"
	"net/http"
	"time"
)

// streamInterval paces the MJPEG stream at about 15 FPS.
const streamInterval = 66 * time.Millisecond

// StreamHandler serves the latest camera frame as an MJPEG stream.
type StreamHandler struct {
	frames FrameSource
}

// NewStreamHandler creates a new StreamHandler with the given frame source.
func NewStreamHandler(frames FrameSource) *StreamHandler {
	return &StreamHandler{frames: frames}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	var last []byte
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		frame := h.frames.LatestJPEG()
		if len(frame) == 0 || bytes.Equal(frame, last) {
			continue
		}
		last = frame

		if err := writePart(w, frame); err != nil {
			return
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

// writePart writes one multipart JPEG part.
func writePart(w http.ResponseWriter, frame []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(frame)); err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "\r\n")
	return err
}
