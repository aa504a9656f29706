package pipeline

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/stylecam/internal/capture"
	"github.com/ayusman/stylecam/internal/effects/adjust"
	"github.com/ayusman/stylecam/internal/effects/color"
	"github.com/ayusman/stylecam/internal/notify"
	"github.com/ayusman/stylecam/internal/output"
	"github.com/ayusman/stylecam/internal/param"
	"github.com/ayusman/stylecam/internal/style"
)

const waitFor = 2 * time.Second

type failingStyle struct{}

func (failingStyle) Name() string             { return "Failing" }
func (failingStyle) Category() string         { return "Test" }
func (failingStyle) Parameters() []param.Spec { return nil }

func (failingStyle) Apply(frame *gocv.Mat, _ param.Values) (gocv.Mat, error) {
	return gocv.NewMat(), errors.New("model not loaded")
}

// panickingSink panics on every write.
type panickingSink struct {
	*output.Memory
	writes atomic.Int32
}

func (s *panickingSink) Write(gocv.Mat) error {
	s.writes.Add(1)
	panic("encoder state corrupted")
}

// grayBGR builds a 2x2 BGR frame with the given gray levels.
func grayBGR(t *testing.T, levels ...byte) *gocv.Mat {
	t.Helper()
	data := make([]byte, 0, len(levels)*3)
	for _, l := range levels {
		data = append(data, l, l, l)
	}
	m, err := gocv.NewMatFromBytes(2, 2, gocv.MatTypeCV8UC3, data)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return &m
}

type fixture struct {
	cam    *capture.MockCamera
	sink   *output.Memory
	hub    *notify.Hub
	events <-chan notify.Event
	p      *Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	frame := grayBGR(t, 50, 150, 200, 255)

	logger, _ := test.NewNullLogger()
	f := &fixture{
		cam:  capture.NewMockCamera([]*gocv.Mat{frame}, true),
		sink: output.NewMemory(4),
		hub:  notify.NewHub(256),
	}
	f.events = f.hub.Subscribe()
	f.p = New(f.cam, f.sink, Config{
		Output:      output.Config{Width: 2, Height: 2, FPS: 30},
		StopTimeout: time.Second,
		ReadBackoff: time.Millisecond,
		Logger:      logger,
		Notifier:    f.hub,
	})
	t.Cleanup(f.p.Stop)
	return f
}

func (f *fixture) waitEvent(t *testing.T, kind notify.Kind) notify.Event {
	t.Helper()
	deadline := time.After(waitFor)
	for {
		select {
		case e := <-f.events:
			if e.Kind == kind {
				return e
			}
		case <-deadline:
			t.Fatalf("no %s event", kind)
		}
	}
}

func (f *fixture) waitFrames(t *testing.T, n uint64) *Frame {
	t.Helper()
	require.Eventually(t, func() bool {
		last := f.p.LastFrame()
		return last != nil && last.Seq >= n
	}, waitFor, time.Millisecond)
	return f.p.LastFrame()
}

func TestPipeline_PassThroughWithoutStyle(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.p.Start("0", nil, param.Values{}))
	assert.True(t, f.p.IsRunning())
	assert.Equal(t, "0", f.cam.Device())
	f.waitEvent(t, notify.KindStarted)

	last := f.waitFrames(t, 3)
	assert.Equal(t, []byte{50, 50, 50, 150, 150, 150, 200, 200, 200, 255, 255, 255}, last.Data)
	assert.NotEmpty(t, f.sink.Frames())
}

func TestPipeline_DeviceOpenFailure(t *testing.T) {
	f := newFixture(t)
	f.cam.FailOpen(errors.New("no such device"))

	err := f.p.Start("/dev/video99", nil, param.Values{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, capture.ErrDeviceOpen))
	assert.False(t, f.p.IsRunning())
	assert.Equal(t, Idle, f.p.State())

	e := f.waitEvent(t, notify.KindDeviceOpen)
	assert.Equal(t, notify.LevelError, e.Level)

	opens, _ := f.sink.Calls()
	assert.Zero(t, opens)
}

func TestPipeline_SinkOpenFailureClosesDevice(t *testing.T) {
	f := newFixture(t)
	f.sink.FailOpen(errors.New("v4l2loopback missing"))

	err := f.p.Start("0", nil, param.Values{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, output.ErrSinkOpen))
	assert.False(t, f.p.IsRunning())
	assert.False(t, f.cam.IsOpen())
	f.waitEvent(t, notify.KindSinkOpen)
}

func TestPipeline_DoubleStartKeepsSession(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.p.Start("0", nil, param.Values{}))
	first := f.p.Session()
	require.NotNil(t, first)

	err := f.p.Start("1", nil, param.Values{})
	assert.True(t, errors.Is(err, ErrAlreadyRunning))
	assert.True(t, f.p.IsRunning())
	assert.Equal(t, first.ID, f.p.Session().ID)
	assert.Equal(t, "0", f.p.Session().Device)
}

func TestPipeline_StopIsIdempotent(t *testing.T) {
	f := newFixture(t)

	f.p.Stop()
	assert.Equal(t, Idle, f.p.State())

	require.NoError(t, f.p.Start("0", nil, param.Values{}))
	f.waitFrames(t, 1)

	f.p.Stop()
	f.p.Stop()

	assert.False(t, f.p.IsRunning())
	assert.Nil(t, f.p.Session())
	assert.False(t, f.cam.IsOpen())
	assert.False(t, f.sink.IsOpen())

	// Restart after stop.
	require.NoError(t, f.p.Start("0", nil, param.Values{}))
	assert.True(t, f.p.IsRunning())
}

func TestPipeline_UpdateParametersTakesEffect(t *testing.T) {
	f := newFixture(t)
	inst := style.NewInstance(adjust.NewThreshold())

	require.NoError(t, f.p.Start("0", inst, inst.Clamp(param.Raw{"threshold": 128})))
	last := f.waitFrames(t, 1)
	assert.Equal(t, []byte{0, 0, 0, 255, 255, 255, 255, 255, 255, 255, 255, 255}, last.Data)

	require.True(t, f.p.UpdateParameters(inst.Clamp(param.Raw{"threshold": 300})))
	assert.Equal(t, 255, f.p.Parameters().Int("threshold"))

	last = f.waitFrames(t, f.p.LastFrame().Seq+2)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 255, 255, 255}, last.Data)
}

func TestPipeline_UpdateParametersWhenIdle(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.p.UpdateParameters(param.Values{}))
}

func TestPipeline_TransformFailureForwardsRawFrame(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.p.Start("0", style.NewInstance(failingStyle{}), param.Values{}))
	e := f.waitEvent(t, notify.KindTransform)
	assert.Contains(t, e.Message, "model not loaded")

	last := f.waitFrames(t, 2)
	assert.Equal(t, []byte{50, 50, 50, 150, 150, 150, 200, 200, 200, 255, 255, 255}, last.Data)
	assert.True(t, f.p.IsRunning())
	assert.Positive(t, f.p.Stats().TransformErrors)
}

func TestPipeline_SinkWriteFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.sink.FailWrites(errors.New("device gone"))

	require.NoError(t, f.p.Start("0", nil, param.Values{}))
	f.waitEvent(t, notify.KindSinkWrite)
	f.waitFrames(t, 3)

	assert.True(t, f.p.IsRunning())
	assert.Positive(t, f.p.Stats().WriteErrors)
}

func TestPipeline_SinkPanicIsNotFatal(t *testing.T) {
	f := newFixture(t)
	sink := &panickingSink{Memory: output.NewMemory(4)}
	f.p.sink = sink

	require.NoError(t, f.p.Start("0", nil, param.Values{}))
	e := f.waitEvent(t, notify.KindInternal)
	assert.Contains(t, e.Message, "encoder state corrupted")

	require.Eventually(t, func() bool { return sink.writes.Load() >= 3 }, waitFor, time.Millisecond)
	assert.True(t, f.p.IsRunning())
	assert.NotNil(t, f.p.Session())
	assert.GreaterOrEqual(t, f.p.Stats().Panics, uint64(3))
}

func TestPipeline_UpdateParametersSwitchesSessionVariant(t *testing.T) {
	f := newFixture(t)
	inst := style.NewInstance(color.NewInvert())
	require.True(t, inst.HasVariants())

	require.NoError(t, f.p.Start("0", inst, inst.Clamp(param.Raw{style.ModeParam: "Negative"})))
	assert.Equal(t, "Negative", f.p.Session().Variant)
	id := f.p.Session().ID

	require.True(t, f.p.UpdateParameters(inst.Clamp(param.Raw{style.ModeParam: "Filter"})))
	assert.Equal(t, "Filter", f.p.Session().Variant)
	assert.Equal(t, id, f.p.Session().ID)
}

func TestPipeline_ReadFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.cam.FailReads(errors.New("usb reset"))

	require.NoError(t, f.p.Start("0", nil, param.Values{}))
	f.waitEvent(t, notify.KindRead)
	assert.True(t, f.p.IsRunning())

	f.cam.FailReads(nil)
	f.waitFrames(t, 1)
}

func TestPipeline_ResizesToSink(t *testing.T) {
	frame := grayBGR(t, 10, 20, 30, 40)
	logger, _ := test.NewNullLogger()
	sink := output.NewMemory(1)
	p := New(capture.NewMockCamera([]*gocv.Mat{frame}, true), sink, Config{
		Output: output.Config{Width: 6, Height: 4},
		Logger: logger,
	})
	defer p.Stop()

	require.NoError(t, p.Start("0", style.NewInstance(adjust.NewThreshold()), param.Values{}))
	require.Eventually(t, func() bool { return len(sink.Frames()) > 0 }, waitFor, time.Millisecond)

	w := sink.Frames()[0]
	assert.Equal(t, 4, w.Rows)
	assert.Equal(t, 6, w.Cols)
	assert.Equal(t, 3, w.Channels)
}

func TestFrame_JPEG(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.p.Start("0", nil, param.Values{}))
	last := f.waitFrames(t, 1)

	jpg, err := last.JPEG(90)
	require.NoError(t, err)
	require.Greater(t, len(jpg), 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, jpg[:2])

	m, err := last.Mat()
	require.NoError(t, err)
	defer m.Close()
	assert.Equal(t, last.Data, m.ToBytes())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "starting", Starting.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "stopping", Stopping.String())
}
