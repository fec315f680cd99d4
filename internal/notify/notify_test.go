package notify

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_AutoDismiss(t *testing.T) {
	n := New(20 * time.Millisecond)
	defer n.Close()

	before := time.Now()
	n.Set("Saved")

	note, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, "Saved", note.Message)
	assert.False(t, note.ExpiresAt.Before(before.Add(20*time.Millisecond)))

	require.Eventually(t, func() bool {
		_, ok := n.Current()
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestNotifier_SetReplacesTimer(t *testing.T) {
	n := New(80 * time.Millisecond)
	defer n.Close()

	var dismissals atomic.Int32
	n.OnChange(func(_ Notification, visible bool) {
		if !visible {
			dismissals.Add(1)
		}
	})

	n.Set("first")
	time.Sleep(50 * time.Millisecond)
	n.Set("second")

	// The first timer would have fired by now
	time.Sleep(50 * time.Millisecond)
	note, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, "second", note.Message)
	assert.Equal(t, int32(0), dismissals.Load())

	require.Eventually(t, func() bool { return dismissals.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), dismissals.Load())
}

func TestNotifier_CloseStopsTimer(t *testing.T) {
	n := New(10 * time.Millisecond)

	var calls atomic.Int32
	n.OnChange(func(Notification, bool) { calls.Add(1) })

	n.Set("bye")
	assert.Equal(t, int32(1), calls.Load())
	n.Close()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	n.Set("ignored")
	_, ok := n.Current()
	assert.False(t, ok)
}

func TestNotifier_Dismiss(t *testing.T) {
	n := New(time.Minute)
	defer n.Close()

	n.Set("hello")
	n.Dismiss()
	_, ok := n.Current()
	assert.False(t, ok)

	// Dismissing nothing is a no-op
	n.Dismiss()
}

func TestNew_DefaultTTL(t *testing.T) {
	n := New(0)
	defer n.Close()
	assert.Equal(t, DefaultTTL, n.ttl)
}
