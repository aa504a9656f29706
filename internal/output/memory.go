package output

import (
	"sync"

	"gocv.io/x/gocv"
)

// Discard accepts and drops every frame.
type Discard struct {
	mu     sync.Mutex
	open   bool
	frames int
}

func (d *Discard) Open(Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = true
	return nil
}

func (d *Discard) Write(gocv.Mat) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return ErrSinkClosed
	}
	d.frames++
	return nil
}

func (d *Discard) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
	return nil
}

// Frames returns the number of frames written.
func (d *Discard) Frames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

// Written is a frame recorded by Memory.
type Written struct {
	Rows     int
	Cols     int
	Channels int
	Data     []byte
}

// Memory records copies of written frames. Open and Write can be made to
// fail for tests.
type Memory struct {
	mu       sync.Mutex
	open     bool
	cfg      Config
	frames   []Written
	limit    int
	openErr  error
	writeErr error
	opens    int
	closes   int
}

// NewMemory creates a sink that keeps at most limit frames, dropping the
// oldest. A limit of 0 keeps everything.
func NewMemory(limit int) *Memory {
	return &Memory{limit: limit}
}

func (m *Memory) Open(cfg Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.opens++
	if m.openErr != nil {
		return m.openErr
	}
	m.open = true
	m.cfg = cfg.WithDefaults()
	return nil
}

func (m *Memory) Write(frame gocv.Mat) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return ErrSinkClosed
	}
	if m.writeErr != nil {
		return m.writeErr
	}

	m.frames = append(m.frames, Written{
		Rows:     frame.Rows(),
		Cols:     frame.Cols(),
		Channels: frame.Channels(),
		Data:     frame.ToBytes(),
	})
	if m.limit > 0 && len(m.frames) > m.limit {
		m.frames = m.frames[len(m.frames)-m.limit:]
	}
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
	m.closes++
	return nil
}

// FailOpen makes every following Open return err. Nil clears it.
func (m *Memory) FailOpen(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErr = err
}

// FailWrites makes every following Write return err. Nil clears it.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Frames returns the recorded frames.
func (m *Memory) Frames() []Written {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Written, len(m.frames))
	copy(out, m.frames)
	return out
}

// Config returns the configuration passed to the last successful Open.
func (m *Memory) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// IsOpen reports whether the sink is open.
func (m *Memory) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// Calls returns how many times Open and Close were called.
func (m *Memory) Calls() (opens, closes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens, m.closes
}
