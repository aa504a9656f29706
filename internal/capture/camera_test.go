package capture

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCamera_ReadFrame_NotOpened(t *testing.T) {
	cam := NewCamera(DefaultSettings())

	_, err := cam.ReadFrame()
	assert.True(t, errors.Is(err, ErrNotOpen))
	assert.False(t, cam.IsOpen())
}

func TestCamera_Close_NotOpened(t *testing.T) {
	cam := NewCamera(DefaultSettings())
	assert.NoError(t, cam.Close())
}

func TestCamera_OpenMissingFile(t *testing.T) {
	cam := NewCamera(DefaultSettings())

	err := cam.Open("/nonexistent/stylecam-test.avi")
	assert.True(t, errors.Is(err, ErrDeviceOpen))
	assert.False(t, cam.IsOpen())
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(DefaultSettings())
	if err := cam.Open("0"); err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}

	mat, err := cam.ReadFrame()
	require.NoError(t, err)
	assert.False(t, mat.Empty())
	mat.Close()

	assert.NoError(t, cam.Close())
	assert.False(t, cam.IsOpen())
}

func TestPattern_Frames(t *testing.T) {
	p := NewPattern(Settings{Width: 8, Height: 6})

	_, err := p.ReadFrame()
	assert.True(t, errors.Is(err, ErrNotOpen))

	require.NoError(t, p.Open("pattern"))
	a, err := p.ReadFrame()
	require.NoError(t, err)
	defer a.Close()
	b, err := p.ReadFrame()
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, 6, a.Rows())
	assert.Equal(t, 8, a.Cols())
	assert.Equal(t, 3, a.Channels())
	assert.NotEqual(t, a.ToBytes(), b.ToBytes())
}

func TestPattern_PacesToFPS(t *testing.T) {
	p := NewPattern(Settings{Width: 4, Height: 4, FPS: 50})
	require.NoError(t, p.Open("pattern"))
	defer p.Close()

	start := time.Now()
	for i := 0; i < 3; i++ {
		m, err := p.ReadFrame()
		require.NoError(t, err)
		m.Close()
	}
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestAuto_RoutesPattern(t *testing.T) {
	src := NewAuto(Settings{Width: 4, Height: 4})

	_, err := src.ReadFrame()
	assert.True(t, errors.Is(err, ErrNotOpen))

	require.NoError(t, src.Open("pattern"))
	f, err := src.ReadFrame()
	require.NoError(t, err)
	f.Close()

	require.NoError(t, src.Close())
	_, err = src.ReadFrame()
	assert.True(t, errors.Is(err, ErrNotOpen))
}
