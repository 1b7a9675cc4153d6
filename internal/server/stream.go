package server

import (
	"fmt"
	"net/http"
	"time"
)

// ImageSource provides the most recent camera image as JPEG.
type ImageSource interface {
	LatestJPEG() ([]byte, bool)
}

// StreamHandler serves MJPEG frames from the pose source.
type StreamHandler struct {
	images   ImageSource
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler with the given image source.
func NewStreamHandler(images ImageSource) *StreamHandler {
	return &StreamHandler{images: images, interval: 66 * time.Millisecond} // ~15 FPS
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

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var last []byte
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		img, ok := h.images.LatestJPEG()
		// Skip until a new image arrives
		if !ok || (len(img) > 0 && len(last) > 0 && &img[0] == &last[0]) {
			continue
		}
		last = img

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(img))
		if _, err := w.Write(img); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
