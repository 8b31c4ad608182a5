package game

import (
	"log"
	"sync"
	"time"
)

// =============================================================================
// TIMER REGISTRY
// =============================================================================

type TimerSlot string

const (
	SlotReady    TimerSlot = "ready"
	SlotQuestion TimerSlot = "question"
	SlotReview   TimerSlot = "review"
)

type timerSet struct {
	oneShot  map[TimerSlot]*time.Timer
	tickStop chan struct{}
}

// TimerRegistry owns every scheduled callback, keyed by room id. It knows
// nothing about game state; the state machine passes in closures. At most one
// timer is armed per slot: arming a slot always stops the previous handle
// first, and handles are cleared on natural fire so nothing leaks across a
// match lifecycle.
type TimerRegistry struct {
	mu    sync.Mutex
	rooms map[string]*timerSet
}

func NewTimerRegistry() *TimerRegistry {
	return &TimerRegistry{
		rooms: make(map[string]*timerSet),
	}
}

// ScheduleOnce arms a one-shot timer under the named slot, cancelling any
// timer the slot already holds. The callback runs on its own goroutine.
func (tr *TimerRegistry) ScheduleOnce(roomId string, slot TimerSlot, delay time.Duration, callback func()) {
	tr.mu.Lock()
	ts := tr.getOrCreateSet(roomId)

	if old := ts.oneShot[slot]; old != nil {
		old.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		tr.mu.Lock()
		cur, ok := tr.rooms[roomId]
		if !ok || cur.oneShot[slot] != timer {
			// Cancelled or rearmed after this fire was already queued.
			tr.mu.Unlock()
			return
		}
		delete(cur.oneShot, slot)
		tr.releaseIfEmpty(roomId, cur)
		tr.mu.Unlock()

		callback()
	})
	ts.oneShot[slot] = timer
	tr.mu.Unlock()

	log.Printf("[ScheduleOnce] room=%s slot=%s armed for %v", roomId, slot, delay)
}

// ScheduleTick starts a one-second countdown broadcast. onTick fires
// immediately with the full second count, then once per second until zero,
// at which point the tick clears itself. The tick is informational only and
// never drives a phase transition.
func (tr *TimerRegistry) ScheduleTick(roomId string, total time.Duration, onTick func(remainingSeconds int)) {
	tr.mu.Lock()
	ts := tr.getOrCreateSet(roomId)
	if ts.tickStop != nil {
		close(ts.tickStop)
	}
	stop := make(chan struct{})
	ts.tickStop = stop
	tr.mu.Unlock()

	remaining := int(total / time.Second)
	onTick(remaining)
	if remaining <= 0 {
		tr.clearFiredTick(roomId, stop)
		return
	}

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				remaining--
				onTick(remaining)
				if remaining <= 0 {
					tr.clearFiredTick(roomId, stop)
					return
				}
			case <-stop:
				return
			}
		}
	}()
}

// Cancel releases the timer in one slot. Safe to call when nothing is armed.
func (tr *TimerRegistry) Cancel(roomId string, slot TimerSlot) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	ts, ok := tr.rooms[roomId]
	if !ok {
		return
	}
	if timer := ts.oneShot[slot]; timer != nil {
		timer.Stop()
		delete(ts.oneShot, slot)
	}
	tr.releaseIfEmpty(roomId, ts)
}

// CancelTick stops the countdown broadcast if one is running.
func (tr *TimerRegistry) CancelTick(roomId string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	ts, ok := tr.rooms[roomId]
	if !ok {
		return
	}
	if ts.tickStop != nil {
		close(ts.tickStop)
		ts.tickStop = nil
	}
	tr.releaseIfEmpty(roomId, ts)
}

// CancelAll releases every timer for a room. Idempotent; safe on rooms that
// never armed anything.
func (tr *TimerRegistry) CancelAll(roomId string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	ts, ok := tr.rooms[roomId]
	if !ok {
		return
	}
	for slot, timer := range ts.oneShot {
		timer.Stop()
		delete(ts.oneShot, slot)
	}
	if ts.tickStop != nil {
		close(ts.tickStop)
		ts.tickStop = nil
	}
	delete(tr.rooms, roomId)

	log.Printf("[CancelAll] room=%s: all timers released", roomId)
}

// Armed reports whether a one-shot timer is currently held in the slot.
func (tr *TimerRegistry) Armed(roomId string, slot TimerSlot) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	ts, ok := tr.rooms[roomId]
	return ok && ts.oneShot[slot] != nil
}

// TickArmed reports whether the countdown broadcast is running.
func (tr *TimerRegistry) TickArmed(roomId string) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	ts, ok := tr.rooms[roomId]
	return ok && ts.tickStop != nil
}

// clearFiredTick removes the tick entry after a natural run to zero, unless
// a newer tick has replaced it in the meantime.
func (tr *TimerRegistry) clearFiredTick(roomId string, stop chan struct{}) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	ts, ok := tr.rooms[roomId]
	if !ok || ts.tickStop != stop {
		return
	}
	ts.tickStop = nil
	tr.releaseIfEmpty(roomId, ts)
}

// getOrCreateSet must be called with tr.mu held.
func (tr *TimerRegistry) getOrCreateSet(roomId string) *timerSet {
	ts, ok := tr.rooms[roomId]
	if !ok {
		ts = &timerSet{oneShot: make(map[TimerSlot]*time.Timer)}
		tr.rooms[roomId] = ts
	}
	return ts
}

// releaseIfEmpty must be called with tr.mu held.
func (tr *TimerRegistry) releaseIfEmpty(roomId string, ts *timerSet) {
	if len(ts.oneShot) == 0 && ts.tickStop == nil {
		delete(tr.rooms, roomId)
	}
}
