package pipeline

import (
	"sync/atomic"
	"time"
)

// State is the lifecycle state of a pipeline.
type State int32

const (
	Idle State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	}
	return "unknown"
}

// Session describes the current run.
type Session struct {
	ID      string    `json:"id"`
	Device  string    `json:"device"`
	Style   string    `json:"style"`
	Variant string    `json:"variant"`
	Started time.Time `json:"started"`
}

// Stats are counters for the current process lifetime.
type Stats struct {
	Frames          uint64 `json:"frames"`
	ReadErrors      uint64 `json:"read_errors"`
	TransformErrors uint64 `json:"transform_errors"`
	WriteErrors     uint64 `json:"write_errors"`
	Panics          uint64 `json:"panics"`
}

type counters struct {
	frames          atomic.Uint64
	readErrors      atomic.Uint64
	transformErrors atomic.Uint64
	writeErrors     atomic.Uint64
	panics          atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Frames:          c.frames.Load(),
		ReadErrors:      c.readErrors.Load(),
		TransformErrors: c.transformErrors.Load(),
		WriteErrors:     c.writeErrors.Load(),
		Panics:          c.panics.Load(),
	}
}
