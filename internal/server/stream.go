package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ayusman/stylecam/internal/app"
	"github.com/ayusman/stylecam/internal/pipeline"
)

// streamInterval paces the preview at roughly 15 fps.
const streamInterval = 66 * time.Millisecond

// StreamHandler serves processed frames as MJPEG.
type StreamHandler struct {
	app      *app.App
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler reading frames from a.
func NewStreamHandler(a *app.App) *StreamHandler {
	return &StreamHandler{app: a, interval: streamInterval}
}

// ServeHTTP streams MJPEG frames to connected clients. Each published frame
// is sent at most once.
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

	var sent uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		frame := h.app.LastFrame()
		if frame == nil || frame.Seq == sent {
			continue
		}

		buf, err := frame.JPEG(pipeline.DefaultJPEGQuality)
		if err != nil {
			continue
		}
		sent = frame.Seq

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(buf))
		if _, err := w.Write(buf); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
