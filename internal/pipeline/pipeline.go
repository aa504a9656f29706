// Package pipeline runs the capture, transform and publish loop on a
// dedicated worker goroutine.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/stylecam/internal/capture"
	"github.com/ayusman/stylecam/internal/notify"
	"github.com/ayusman/stylecam/internal/output"
	"github.com/ayusman/stylecam/internal/param"
	"github.com/ayusman/stylecam/internal/style"
)

// Timing defaults.
const (
	DefaultStopTimeout = 5 * time.Second
	DefaultReadBackoff = 10 * time.Millisecond
)

// ErrAlreadyRunning is returned by Start while a session is active or still
// shutting down.
var ErrAlreadyRunning = errors.New("pipeline is already running")

// Config holds the collaborators and tuning of a pipeline.
type Config struct {
	Output      output.Config
	StopTimeout time.Duration
	ReadBackoff time.Duration
	Logger      logrus.FieldLogger
	Notifier    notify.Notifier
}

// Pipeline moves frames from a capture source through a style into a sink.
// Start and Stop may be called from any goroutine; the frame loop itself
// runs on one worker goroutine that owns the source and sink while running.
type Pipeline struct {
	source capture.Source
	sink   output.Sink
	cfg    Config
	log    logrus.FieldLogger
	notify notify.Notifier

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}

	state   atomic.Int32
	values  atomic.Pointer[param.Values]
	last    atomic.Pointer[Frame]
	session atomic.Pointer[Session]
	seq     atomic.Uint64
	stats   counters
}

// New creates an idle pipeline.
func New(source capture.Source, sink output.Sink, cfg Config) *Pipeline {
	cfg.Output = cfg.Output.WithDefaults()
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}
	if cfg.ReadBackoff <= 0 {
		cfg.ReadBackoff = DefaultReadBackoff
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Discard
	}

	return &Pipeline{
		source: source,
		sink:   sink,
		cfg:    cfg,
		log:    cfg.Logger.WithField("component", "pipeline"),
		notify: cfg.Notifier,
	}
}

// Start opens deviceID and the sink, then starts the worker. A nil inst
// passes frames through untransformed.
//
// When the device cannot be opened the sink is never touched. When the
// sink cannot be opened the device is closed again. Both failures are
// reported to the notifier and returned.
func (p *Pipeline) Start(deviceID string, inst *style.Instance, values param.Values) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.State() != Idle {
		return ErrAlreadyRunning
	}
	if p.done != nil {
		select {
		case <-p.done:
		default:
			return fmt.Errorf("%w: previous worker has not exited", ErrAlreadyRunning)
		}
	}

	p.setState(Starting)
	log := p.log.WithField("device", deviceID)

	if err := p.source.Open(deviceID); err != nil {
		if !errors.Is(err, capture.ErrDeviceOpen) {
			err = fmt.Errorf("%w: %v", capture.ErrDeviceOpen, err)
		}
		p.setState(Idle)
		log.WithError(err).Error("Failed to open capture device")
		p.notify.Notify(notify.Error(notify.KindDeviceOpen, err))
		return err
	}

	if err := p.sink.Open(p.cfg.Output); err != nil {
		if !errors.Is(err, output.ErrSinkOpen) {
			err = fmt.Errorf("%w: %v", output.ErrSinkOpen, err)
		}
		if cerr := p.source.Close(); cerr != nil {
			log.WithError(cerr).Warn("Failed to close capture device")
		}
		p.setState(Idle)
		log.WithError(err).Error("Failed to open output sink")
		p.notify.Notify(notify.Error(notify.KindSinkOpen, err))
		return err
	}

	session := &Session{
		ID:      uuid.NewString(),
		Device:  deviceID,
		Started: time.Now(),
	}
	if inst != nil {
		session.Style = inst.Name()
		session.Variant = inst.Variant()
		if inst.HasVariants() {
			session.Variant = values.String(style.ModeParam)
		}
	}

	p.values.Store(&values)
	p.session.Store(session)
	p.last.Store(nil)
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	p.setState(Running)

	go p.run(inst, p.stop, p.done)

	log.WithFields(logrus.Fields{
		"session": session.ID,
		"style":   session.Style,
		"variant": session.Variant,
		"output":  p.cfg.Output.String(),
	}).Info("Pipeline started")
	p.notify.Notify(notify.Info(notify.KindStarted, fmt.Sprintf("capturing from %s", deviceID)))
	return nil
}

// Stop signals the worker and waits up to the stop timeout for it to
// release the device and sink. Stopping an idle pipeline does nothing.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.State() == Idle || p.stop == nil {
		return
	}

	p.setState(Stopping)
	select {
	case <-p.stop:
	default:
		close(p.stop)
	}

	select {
	case <-p.done:
	case <-time.After(p.cfg.StopTimeout):
		p.log.WithField("timeout", p.cfg.StopTimeout).Warn("Worker did not stop in time")
	}

	p.setState(Idle)
	p.session.Store(nil)
	p.log.Info("Pipeline stopped")
	p.notify.Notify(notify.Info(notify.KindStopped, "capture stopped"))
}

// UpdateParameters replaces the values used for the next frame. It
// reports false and does nothing when the pipeline is not running. A changed
// mode also updates the session variant.
func (p *Pipeline) UpdateParameters(values param.Values) bool {
	if !p.IsRunning() {
		return false
	}
	p.values.Store(&values)

	mode := values.String(style.ModeParam)
	for {
		s := p.session.Load()
		if s == nil || s.Variant == "" || mode == "" || s.Variant == mode {
			break
		}
		cp := *s
		cp.Variant = mode
		if p.session.CompareAndSwap(s, &cp) {
			break
		}
	}
	return true
}

// Parameters returns the values used for the next frame.
func (p *Pipeline) Parameters() param.Values {
	if v := p.values.Load(); v != nil {
		return *v
	}
	return param.Values{}
}

// LastFrame returns the most recently published frame, or nil.
func (p *Pipeline) LastFrame() *Frame {
	return p.last.Load()
}

// IsRunning reports whether the worker is running.
func (p *Pipeline) IsRunning() bool {
	return p.State() == Running
}

// State returns the lifecycle state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
}

// Session returns the current session, or nil when idle.
func (p *Pipeline) Session() *Session {
	if s := p.session.Load(); s != nil {
		cp := *s
		return &cp
	}
	return nil
}

// Stats returns frame counters.
func (p *Pipeline) Stats() Stats {
	return p.stats.snapshot()
}

// OutputConfig returns the negotiated sink configuration.
func (p *Pipeline) OutputConfig() output.Config {
	return p.cfg.Output
}

// run is the worker loop. It owns the source and sink until it returns.
func (p *Pipeline) run(inst *style.Instance, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer p.release()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("pipeline worker panic: %v", r)
			p.log.WithError(err).Error("Worker crashed")
			p.notify.Notify(notify.Error(notify.KindInternal, err))
			p.state.CompareAndSwap(int32(Running), int32(Idle))
			p.session.Store(nil)
		}
	}()

	w := &worker{p: p, inst: inst}
	for {
		select {
		case <-stop:
			return
		default:
		}

		frame, err := p.source.ReadFrame()
		if err != nil {
			p.stats.readErrors.Add(1)
			w.read.fail(p, notify.KindRead, err)
			select {
			case <-stop:
				return
			case <-time.After(p.cfg.ReadBackoff):
			}
			continue
		}
		w.read.ok()

		w.process(frame)
	}
}

func (p *Pipeline) release() {
	if err := p.sink.Close(); err != nil {
		p.log.WithError(err).Warn("Failed to close output sink")
	}
	if err := p.source.Close(); err != nil {
		p.log.WithError(err).Warn("Failed to close capture device")
	}
}

type worker struct {
	p    *Pipeline
	inst *style.Instance

	read      streak
	transform streak
	write     streak
	panics    streak
}

// process transforms, conforms, publishes and writes one frame. It closes
// frame. A panic drops the frame and leaves the session running.
func (w *worker) process(frame *gocv.Mat) {
	p := w.p
	defer frame.Close()
	defer func() {
		if r := recover(); r != nil {
			p.stats.panics.Add(1)
			w.panics.fail(p, notify.KindInternal, fmt.Errorf("frame processing panic: %v", r))
		}
	}()

	out := w.apply(frame)
	defer out.Close()

	final := conform(out, p.cfg.Output)
	defer final.Close()

	p.last.Store(newFrame(p.seq.Add(1), final))
	p.stats.frames.Add(1)

	if err := p.sink.Write(final); err != nil {
		p.stats.writeErrors.Add(1)
		w.write.fail(p, notify.KindSinkWrite, err)
		return
	}
	w.write.ok()
	w.panics.ok()
}

// apply runs the style. On failure the raw frame is forwarded.
func (w *worker) apply(frame *gocv.Mat) gocv.Mat {
	if w.inst == nil {
		return frame.Clone()
	}

	out, err := w.inst.Apply(frame, w.p.Parameters())
	if err != nil {
		out.Close()
		w.p.stats.transformErrors.Add(1)
		w.transform.fail(w.p, notify.KindTransform, err)
		return frame.Clone()
	}
	w.transform.ok()
	return out
}

// conform converts m to 3-channel BGR at the sink resolution.
func conform(m gocv.Mat, cfg output.Config) gocv.Mat {
	bgr := style.NormalizeChannels(m)
	if bgr.Cols() == cfg.Width && bgr.Rows() == cfg.Height {
		return bgr
	}
	defer bgr.Close()

	dst := gocv.NewMat()
	gocv.Resize(bgr, &dst, image.Pt(cfg.Width, cfg.Height), 0, 0, gocv.InterpolationLinear)
	return dst
}

// streak reports only the first failure of a run of consecutive failures
// of one kind, so a persistent fault does not flood the log and notifier.
type streak struct {
	failing bool
}

func (s *streak) fail(p *Pipeline, kind notify.Kind, err error) {
	if s.failing {
		return
	}
	s.failing = true
	p.log.WithField("kind", string(kind)).WithError(err).Error("Frame processing failed")
	p.notify.Notify(notify.Error(kind, err))
}

func (s *streak) ok() {
	s.failing = false
}
