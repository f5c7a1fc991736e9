package election

import (
	"sync"
	"time"
)

// Scheduler arms at most one deferred action per election id. Re-arming a
// key replaces the previous timer; the backing data (election id plus
// scheduled end time) lives in the ledger, so the schedule can always be
// rebuilt on restart.
type Scheduler interface {
	ScheduleAt(key int64, at time.Time, fn func())
	Cancel(key int64) bool
	Stop()
}

// TimerScheduler backs the Scheduler interface with one-shot timers.
type TimerScheduler struct {
	mu     sync.Mutex
	timers map[int64]*time.Timer
}

func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{timers: make(map[int64]*time.Timer)}
}

func (s *TimerScheduler) ScheduleAt(key int64, at time.Time, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[key]; ok {
		timer.Stop()
	}

	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}

	s.timers[key] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, key)
		s.mu.Unlock()

		fn()
	})
}

func (s *TimerScheduler) Cancel(key int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, ok := s.timers[key]
	if !ok {
		return false
	}

	timer.Stop()
	delete(s.timers, key)
	return true
}

func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
}
