package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_Delivers(t *testing.T) {
	h := NewHub(4)
	a := h.Subscribe()
	b := h.Subscribe()

	h.Notify(Error(KindDeviceOpen, errors.New("no camera")))

	for _, ch := range []<-chan Event{a, b} {
		select {
		case e := <-ch:
			assert.Equal(t, LevelError, e.Level)
			assert.Equal(t, KindDeviceOpen, e.Kind)
			assert.Equal(t, "no camera", e.Message)
			assert.False(t, e.Time.IsZero())
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestHub_NeverBlocks(t *testing.T) {
	h := NewHub(1)
	_ = h.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.Notify(Info(KindStarted, "x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full subscriber")
	}
	assert.Equal(t, uint64(9), h.Dropped())
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub(1)
	ch := h.Subscribe()
	require.Equal(t, 1, h.Subscribers())

	h.Unsubscribe(ch)
	assert.Equal(t, 0, h.Subscribers())

	_, ok := <-ch
	assert.False(t, ok)

	h.Notify(Info(KindStopped, "after"))
	h.Unsubscribe(ch)
}
