// Package capture provides frame sources: OpenCV capture devices, a
// synthetic test pattern and an in-memory mock.
package capture

import (
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Default capture settings.
const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrDeviceOpen is returned when a capture device cannot be opened.
	ErrDeviceOpen = errors.New("failed to open capture device")
	// ErrNotOpen is returned when reading from a source that is not open.
	ErrNotOpen = errors.New("capture source is not open")
	// ErrReadFailed is returned when a device yields no frame.
	ErrReadFailed = errors.New("failed to read frame")
)

// Source produces BGR frames from a device.
type Source interface {
	// Open starts capturing from deviceID. A source that is already open
	// is left unchanged.
	Open(deviceID string) error
	// ReadFrame returns the next frame. The caller closes it.
	ReadFrame() (*gocv.Mat, error)
	// Close releases the device. Closing a closed source is a no-op.
	Close() error
}

// Settings are the capture properties requested from a device. Devices
// may ignore them.
type Settings struct {
	Width  int
	Height int
	FPS    int
}

// DefaultSettings returns 640x480 at 30 fps.
func DefaultSettings() Settings {
	return Settings{Width: DefaultWidth, Height: DefaultHeight, FPS: DefaultFPS}
}

// Camera captures from an OpenCV device. A numeric device ID selects a
// camera index; anything else is passed to OpenCV as a file path, URL or
// GStreamer pipeline.
type Camera struct {
	settings Settings

	mu      sync.Mutex
	capture *gocv.VideoCapture
	device  string
}

// NewCamera creates a closed camera.
func NewCamera(settings Settings) *Camera {
	return &Camera{settings: settings}
}

// Open opens the device.
func (c *Camera) Open(deviceID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return nil
	}

	var device any = deviceID
	if n, err := strconv.Atoi(deviceID); err == nil {
		device = n
	}

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return errors.Wrapf(ErrDeviceOpen, "device %q: %v", deviceID, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return errors.Wrapf(ErrDeviceOpen, "device %q is not available", deviceID)
	}

	if c.settings.Width > 0 && c.settings.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(c.settings.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(c.settings.Height))
	}
	if c.settings.FPS > 0 {
		capture.Set(gocv.VideoCaptureFPS, float64(c.settings.FPS))
	}

	c.capture = capture
	c.device = deviceID
	return nil
}

// Close closes the device.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	return errors.Wrapf(err, "failed to close device %q", c.device)
}

// ReadFrame reads a single frame.
func (c *Camera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, ErrNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, errors.Wrapf(ErrReadFailed, "device %q", c.device)
	}
	return &mat, nil
}

// IsOpen reports whether the device is open.
func (c *Camera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture != nil
}
