package capture

import (
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// PatternPrefix selects the synthetic test pattern as a device ID.
const PatternPrefix = "pattern"

// Pattern generates a moving color gradient. It never fails to read and is
// used when no camera is attached. Reads are paced to the configured FPS.
type Pattern struct {
	settings Settings

	mu    sync.Mutex
	open  bool
	frame int
	next  time.Time
}

// NewPattern creates a closed pattern source.
func NewPattern(settings Settings) *Pattern {
	if settings.Width <= 0 || settings.Height <= 0 {
		settings.Width, settings.Height = DefaultWidth, DefaultHeight
	}
	return &Pattern{settings: settings}
}

func (p *Pattern) Open(string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = true
	p.frame = 0
	return nil
}

func (p *Pattern) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
	return nil
}

func (p *Pattern) ReadFrame() (*gocv.Mat, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return nil, ErrNotOpen
	}
	p.pace()

	w, h := p.settings.Width, p.settings.Height
	data := make([]byte, w*h*3)
	shift := p.frame * 4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			data[i] = byte(x + shift)
			data[i+1] = byte(y + shift/2)
			data[i+2] = byte((x + y) / 2)
		}
	}
	p.frame++

	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC3, data)
	if err != nil {
		return nil, err
	}
	return &mat, nil
}

func (p *Pattern) pace() {
	if p.settings.FPS <= 0 {
		return
	}
	now := time.Now()
	if wait := p.next.Sub(now); wait > 0 {
		time.Sleep(wait)
		now = p.next
	}
	p.next = now.Add(time.Second / time.Duration(p.settings.FPS))
}

// Auto routes Open to the test pattern for IDs starting with PatternPrefix
// and to an OpenCV camera otherwise.
type Auto struct {
	settings Settings

	mu     sync.Mutex
	active Source
}

// NewAuto creates a closed routing source.
func NewAuto(settings Settings) *Auto {
	return &Auto{settings: settings}
}

func (a *Auto) Open(deviceID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active != nil {
		return nil
	}

	var src Source
	if strings.HasPrefix(deviceID, PatternPrefix) {
		src = NewPattern(a.settings)
	} else {
		src = NewCamera(a.settings)
	}
	if err := src.Open(deviceID); err != nil {
		return err
	}
	a.active = src
	return nil
}

func (a *Auto) ReadFrame() (*gocv.Mat, error) {
	a.mu.Lock()
	src := a.active
	a.mu.Unlock()

	if src == nil {
		return nil, ErrNotOpen
	}
	return src.ReadFrame()
}

func (a *Auto) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active == nil {
		return nil
	}
	err := a.active.Close()
	a.active = nil
	return err
}
