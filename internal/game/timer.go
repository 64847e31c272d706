package game

import "time"

// PhaseTimer is the handle to a room's pending phase-advance timer
type PhaseTimer struct {
	ID       uint64
	Deadline time.Time
	t        *time.Timer
}

// ArmTimer stops any live timer and schedules fire after d. The callback
// receives the timer ID and must check TimerCurrent under the room lock
// before acting, so a fire racing a cancel is dropped.
func (r *Room) ArmTimer(d time.Duration, fire func(id uint64)) *PhaseTimer {
	r.StopTimer()

	r.timerSeq++
	id := r.timerSeq
	timer := &PhaseTimer{ID: id, Deadline: time.Now().Add(d)}
	timer.t = time.AfterFunc(d, func() { fire(id) })
	r.timer = timer
	return timer
}

// StopTimer cancels the live timer, if any. It reports whether a timer was
// stopped before firing.
func (r *Room) StopTimer() bool {
	if r.timer == nil {
		return false
	}
	stopped := r.timer.t.Stop()
	r.timer = nil
	return stopped
}

// TimerCurrent reports whether id is the room's live timer
func (r *Room) TimerCurrent(id uint64) bool {
	return r.timer != nil && r.timer.ID == id
}

// ActiveTimer returns the live timer handle, or nil
func (r *Room) ActiveTimer() *PhaseTimer {
	return r.timer
}
