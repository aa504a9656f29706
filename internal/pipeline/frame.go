package pipeline

import (
	"bytes"
	"time"

	"gocv.io/x/gocv"
)

// DefaultJPEGQuality is used when JPEG is called with a quality outside 1-100.
const DefaultJPEGQuality = 85

// Frame is an immutable copy of a published frame. It is safe to share
// between goroutines.
type Frame struct {
	Seq       uint64
	Rows      int
	Cols      int
	Type      gocv.MatType
	Data      []byte
	Timestamp time.Time
}

func newFrame(seq uint64, m gocv.Mat) *Frame {
	return &Frame{
		Seq:       seq,
		Rows:      m.Rows(),
		Cols:      m.Cols(),
		Type:      m.Type(),
		Data:      m.ToBytes(),
		Timestamp: time.Now(),
	}
}

// Mat returns a new Mat holding a copy of the frame. The caller closes it.
func (f *Frame) Mat() (gocv.Mat, error) {
	return gocv.NewMatFromBytes(f.Rows, f.Cols, f.Type, bytes.Clone(f.Data))
}

// JPEG encodes the frame.
func (f *Frame) JPEG(quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	m, err := f.Mat()
	if err != nil {
		return nil, err
	}
	defer m.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, m, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	return bytes.Clone(buf.GetBytes()), nil
}
