// Package output provides destinations for processed frames: a virtual
// camera or video file through OpenCV, and in-memory sinks for tests.
package output

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Default virtual camera format.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
	DefaultFPS    = 30
)

var (
	// ErrSinkOpen is returned when a sink cannot be opened.
	ErrSinkOpen = errors.New("failed to open output sink")
	// ErrSinkClosed is returned when writing to a sink that is not open.
	ErrSinkClosed = errors.New("output sink is not open")
)

// Config describes the frames a sink accepts. Every frame written has
// exactly Width x Height pixels and three BGR channels.
type Config struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	FPS    int    `json:"fps"`
	Target string `json:"target"`
}

// DefaultConfig returns 640x480 BGR at 30 fps on the default target.
func DefaultConfig() Config {
	return Config{Width: DefaultWidth, Height: DefaultHeight, FPS: DefaultFPS}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Width <= 0 || c.Height <= 0 {
		c.Width, c.Height = d.Width, d.Height
	}
	if c.FPS <= 0 {
		c.FPS = d.FPS
	}
	return c
}

func (c Config) String() string {
	return fmt.Sprintf("%dx%d@%d %s", c.Width, c.Height, c.FPS, c.Target)
}

// Sink publishes frames.
type Sink interface {
	Open(cfg Config) error
	// Write publishes frame. It does not keep a reference to it.
	Write(frame gocv.Mat) error
	Close() error
}

// DefaultDevice is the v4l2loopback device used when no target is set.
const DefaultDevice = "/dev/video10"

// VideoWriter writes frames through an OpenCV VideoWriter. A target under
// /dev is fed through a GStreamer v4l2sink pipeline, a target beginning
// with "appsrc" is used as a GStreamer pipeline verbatim, and anything else
// is treated as a video file path.
type VideoWriter struct {
	mu     sync.Mutex
	writer *gocv.VideoWriter
	cfg    Config
}

// NewVideoWriter creates a closed writer sink.
func NewVideoWriter() *VideoWriter {
	return &VideoWriter{}
}

// Open opens the writer.
func (s *VideoWriter) Open(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writer != nil {
		return nil
	}

	cfg = cfg.WithDefaults()
	if cfg.Target == "" {
		cfg.Target = DefaultDevice
	}

	name := writerTarget(cfg.Target)
	w, err := gocv.VideoWriterFile(name, "MJPG", float64(cfg.FPS), cfg.Width, cfg.Height, true)
	if err != nil {
		return errors.Wrapf(ErrSinkOpen, "%s: %v", cfg, err)
	}
	if !w.IsOpened() {
		w.Close()
		return errors.Wrapf(ErrSinkOpen, "%s is not writable", cfg)
	}

	s.writer = w
	s.cfg = cfg
	return nil
}

func writerTarget(target string) string {
	switch {
	case strings.HasPrefix(target, "appsrc"):
		return target
	case strings.HasPrefix(target, "/dev/"):
		return "appsrc ! videoconvert ! video/x-raw,format=YUY2 ! v4l2sink device=" + target
	}
	return target
}

// Write writes a frame.
func (s *VideoWriter) Write(frame gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writer == nil {
		return ErrSinkClosed
	}
	return errors.Wrap(s.writer.Write(frame), "failed to write frame")
}

// Close closes the writer.
func (s *VideoWriter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writer == nil {
		return nil
	}
	err := s.writer.Close()
	s.writer = nil
	return errors.Wrapf(err, "failed to close %s", s.cfg)
}
