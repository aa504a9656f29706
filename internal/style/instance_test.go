package style

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/stylecam/internal/param"
)

func bgrMat(t *testing.T, rows, cols int) gocv.Mat {
	t.Helper()
	data := make([]byte, rows*cols*3)
	for i := range data {
		data[i] = byte(i * 37)
	}
	m, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8UC3, data)
	require.NoError(t, err)
	return m
}

func TestInstance_SetVariant(t *testing.T) {
	inst := NewInstance(newFakeModes())

	assert.True(t, inst.HasVariants())
	assert.Equal(t, "Keep", inst.Variant())

	assert.True(t, inst.SetVariant("Shrink"))
	assert.Equal(t, "Shrink", inst.Variant())

	assert.False(t, inst.SetVariant("Explode"))
	assert.Equal(t, "Shrink", inst.Variant())
	assert.Equal(t, "Keep", inst.DefaultVariant())
}

func TestInstance_PlainStyleHasOneUnnamedVariant(t *testing.T) {
	inst := NewInstance(&fakeInvert{name: "Invert"})

	assert.False(t, inst.HasVariants())
	assert.Empty(t, inst.Variants())
	assert.True(t, inst.SetVariant(""))
	assert.False(t, inst.SetVariant("Colors"))
	assert.Empty(t, inst.DefaultVariant())

	specs, err := inst.VariantParameters("")
	require.NoError(t, err)
	assert.Len(t, specs, 1)
}

func TestInstance_VariantParametersOrder(t *testing.T) {
	inst := NewInstance(newFakeModes())

	specs, err := inst.VariantParameters("Shrink")
	require.NoError(t, err)

	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"mode", "intensity", "factor"}, names)
	assert.Equal(t, "Shrink", specs[0].Default)

	_, err = inst.VariantParameters("Explode")
	assert.True(t, errors.Is(err, ErrUnknownVariant))
}

func TestInstance_ValidateUsesSelectedVariant(t *testing.T) {
	inst := NewInstance(newFakeModes())
	require.True(t, inst.SetVariant("Shrink"))

	v, err := inst.Validate(nil)
	require.NoError(t, err)
	assert.Equal(t, "Shrink", v.String(ModeParam))
	assert.Equal(t, 2, v.Int("factor"))

	_, err = inst.Validate(param.Raw{"factor": 9})
	assert.True(t, errors.Is(err, param.ErrParameterOutOfRange))

	_, err = inst.Validate(param.Raw{"mode": "Explode"})
	assert.True(t, errors.Is(err, param.ErrParameterInvalidOption))
}

func TestInstance_ApplyRejectsInvalidImage(t *testing.T) {
	inst := NewInstance(&fakeInvert{name: "Invert"})

	out, err := inst.Apply(nil, inst.Defaults())
	defer out.Close()
	assert.True(t, errors.Is(err, ErrInvalidImage))

	empty := gocv.NewMat()
	defer empty.Close()
	out2, err := inst.Apply(&empty, inst.Defaults())
	defer out2.Close()
	assert.True(t, errors.Is(err, ErrInvalidImage))
}

func TestInstance_ApplyPreservesShape(t *testing.T) {
	inst := NewInstance(&fakeInvert{name: "Invert"})
	src := bgrMat(t, 6, 4)
	defer src.Close()

	out, err := inst.Apply(&src, inst.Defaults())
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, 6, out.Rows())
	assert.Equal(t, 4, out.Cols())
}

func TestInstance_ApplyWrapsFailures(t *testing.T) {
	inst := NewInstance(newFakeModes())
	src := bgrMat(t, 8, 8)
	defer src.Close()

	tests := []struct {
		name string
		mode string
	}{
		{name: "shape mismatch", mode: "Shrink"},
		{name: "panic", mode: "Panic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := inst.Apply(&src, inst.Clamp(param.Raw{"mode": tt.mode}))
			defer out.Close()

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrTransform))

			var te *TransformError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, "Modes", te.Style)
			assert.Equal(t, tt.mode, te.Variant)
		})
	}
}

func TestInstance_ApplyIsDeterministic(t *testing.T) {
	inst := NewInstance(&fakeInvert{name: "Invert"})
	src := bgrMat(t, 5, 5)
	defer src.Close()

	a, err := inst.Apply(&src, inst.Defaults())
	require.NoError(t, err)
	defer a.Close()
	b, err := inst.Apply(&src, inst.Defaults())
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, a.ToBytes(), b.ToBytes())
}

func TestNormalizeChannels(t *testing.T) {
	gray, err := gocv.NewMatFromBytes(2, 2, gocv.MatTypeCV8UC1, []byte{1, 2, 3, 4})
	require.NoError(t, err)
	defer gray.Close()

	bgr := NormalizeChannels(gray)
	defer bgr.Close()

	assert.Equal(t, 3, bgr.Channels())
	assert.Equal(t, []byte{1, 1, 1, 2, 2, 2, 3, 3, 3, 4, 4, 4}, bgr.ToBytes())
}

func TestMapBytes(t *testing.T) {
	src, err := gocv.NewMatFromBytes(1, 2, gocv.MatTypeCV8UC1, []byte{0, 200})
	require.NoError(t, err)
	defer src.Close()

	out, err := MapBytes(src, NewLUT(func(v byte) byte { return 255 - v }))
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, []byte{255, 55}, out.ToBytes())
}
