package service

import (
	"sync"
	"time"
)

// RoomTimers keeps at most one pending phase timer per room. Scheduling a
// new timer stops and replaces whatever was pending, so a stale timer can
// never fire late into a newer phase unchecked (callbacks still re-validate
// the phase before mutating).
type RoomTimers struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewRoomTimers() *RoomTimers {
	return &RoomTimers{timers: make(map[string]*time.Timer)}
}

func (t *RoomTimers) Schedule(code string, d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.timers[code]; ok {
		existing.Stop()
	}
	t.timers[code] = time.AfterFunc(d, fn)
}

func (t *RoomTimers) Cancel(code string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[code]; ok {
		timer.Stop()
		delete(t.timers, code)
	}
}

// Pending reports whether a timer is currently scheduled for the room.
func (t *RoomTimers) Pending(code string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.timers[code]
	return ok
}
