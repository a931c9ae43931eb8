package beapi

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"
)

// DefaultTickRate is the Bedrock simulation rate of 20 ticks per second.
const DefaultTickRate = 50 * time.Millisecond

// Scheduler is the client's tick source. Every tick it emits EventTick and
// then runs the timers that became due. Ticks never overlap: a slow tick
// delays the next one.
type Scheduler struct {
	events *Events
	timers *timerQueue
	log    *slog.Logger

	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	tickRate   time.Duration
	tickNumber atomic.Uint64
}

// newScheduler creates a stopped scheduler.
func newScheduler(events *Events, tickRate time.Duration, log *slog.Logger) *Scheduler {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	return &Scheduler{
		events:   events,
		timers:   newTimerQueue(),
		log:      log,
		tickRate: tickRate,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the tick loop.
func (s *Scheduler) Start() {
	if s.running.Swap(true) {
		return // Already running
	}
	go s.tickLoop()
}

// Stop stops the tick loop and waits for the current tick to finish.
// A stopped scheduler cannot be restarted.
func (s *Scheduler) Stop() {
	if !s.running.Swap(false) {
		return // Not running
	}
	close(s.stopCh)
	<-s.doneCh
}

// TickNumber returns the number of ticks run so far.
func (s *Scheduler) TickNumber() uint64 {
	return s.tickNumber.Load()
}

// TickRate returns the duration of a tick.
func (s *Scheduler) TickRate() time.Duration {
	return s.tickRate
}

// SetTimeout runs fn once after delay ticks. A delay of 0 runs it on the next tick.
func (s *Scheduler) SetTimeout(delay uint64, fn func()) TimerID {
	return s.timers.Add(s.TickNumber()+max(delay, 1), 0, fn)
}

// SetInterval runs fn every interval ticks, starting interval ticks from now.
func (s *Scheduler) SetInterval(interval uint64, fn func()) TimerID {
	interval = max(interval, 1)
	return s.timers.Add(s.TickNumber()+interval, interval, fn)
}

// ClearTimer cancels a timeout or interval.
func (s *Scheduler) ClearTimer(id TimerID) bool {
	return s.timers.Cancel(id)
}

// tickLoop is the main scheduler loop.
func (s *Scheduler) tickLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

// tick executes one scheduler tick.
func (s *Scheduler) tick(now time.Time) {
	n := s.tickNumber.Add(1)

	s.events.Emit(EventTick, TickEvent{Tick: n, Time: now})

	for _, t := range s.timers.PopDue(n) {
		if t.cancelled.Load() {
			continue
		}
		s.runTimer(t)
	}
}

func (s *Scheduler) runTimer(t *timer) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("beapi: panic in timer",
				"timer", uint64(t.id),
				"error", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	t.fn()
}
