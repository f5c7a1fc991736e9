package election

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerSchedulerFiresOnce(t *testing.T) {
	scheduler := NewTimerScheduler()
	defer scheduler.Stop()

	var fired atomic.Int32
	scheduler.ScheduleAt(1, time.Now().Add(20*time.Millisecond), func() {
		fired.Add(1)
	})

	assert.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())

	// The timer removed itself, so there is nothing left to cancel.
	assert.False(t, scheduler.Cancel(1))
}

func TestTimerSchedulerCancelPreventsFire(t *testing.T) {
	scheduler := NewTimerScheduler()
	defer scheduler.Stop()

	var fired atomic.Int32
	scheduler.ScheduleAt(1, time.Now().Add(50*time.Millisecond), func() {
		fired.Add(1)
	})

	require.True(t, scheduler.Cancel(1))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestTimerSchedulerRearmReplacesTimer(t *testing.T) {
	scheduler := NewTimerScheduler()
	defer scheduler.Stop()

	var old, replacement atomic.Int32
	scheduler.ScheduleAt(1, time.Now().Add(30*time.Millisecond), func() {
		old.Add(1)
	})
	scheduler.ScheduleAt(1, time.Now().Add(60*time.Millisecond), func() {
		replacement.Add(1)
	})

	assert.Eventually(t, func() bool {
		return replacement.Load() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), old.Load(), "re-arming a key must drop the previous timer")
}

func TestTimerSchedulerPastDeadlineFiresImmediately(t *testing.T) {
	scheduler := NewTimerScheduler()
	defer scheduler.Stop()

	var fired atomic.Int32
	scheduler.ScheduleAt(1, time.Now().Add(-time.Hour), func() {
		fired.Add(1)
	})

	assert.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestTimerSchedulerStopCancelsAll(t *testing.T) {
	scheduler := NewTimerScheduler()

	var fired atomic.Int32
	for key := int64(1); key <= 5; key++ {
		scheduler.ScheduleAt(key, time.Now().Add(50*time.Millisecond), func() {
			fired.Add(1)
		})
	}

	scheduler.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}
