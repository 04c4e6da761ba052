// Package schedule provides an injectable clock and a keyed one-shot task
// scheduler. Tasks never fire on their own; the owner drains due tasks by
// calling RunDue, which keeps timing deterministic under a fake clock.
package schedule

import (
	"sort"
	"sync"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// FakeClock is a manually advanced clock for tests and scripted sessions.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock returns a clock stopped at t.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Set moves the clock to t.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Task runs at its due time with the time RunDue was called for.
type Task func(now time.Time)

type entry struct {
	key string
	at  time.Time
	seq uint64
	fn  Task
}

// Scheduler holds keyed one-shot tasks. Scheduling a key that is already
// pending replaces the earlier task.
type Scheduler struct {
	mu    sync.Mutex
	seq   uint64
	tasks map[string]entry
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{tasks: make(map[string]entry)}
}

// Schedule registers fn to run at or after at under key.
func (s *Scheduler) Schedule(key string, at time.Time, fn Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.tasks[key] = entry{key: key, at: at, seq: s.seq, fn: fn}
}

// Cancel removes a pending task. It reports whether one existed.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[key]
	delete(s.tasks, key)
	return ok
}

// Pending returns the number of tasks not yet run.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Has reports whether key is pending.
func (s *Scheduler) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[key]
	return ok
}

// RunAll runs every pending task regardless of its due time, in (due, seq)
// order, passing now. It returns how many ran.
func (s *Scheduler) RunAll(now time.Time) int {
	s.mu.Lock()
	due := make([]entry, 0, len(s.tasks))
	for k, e := range s.tasks {
		due = append(due, e)
		delete(s.tasks, k)
	}
	s.mu.Unlock()
	return runInOrder(due, now)
}

// RunDue runs every task due at or before now in (due, seq) order and
// returns how many ran. Tasks scheduled by a running task wait for the next
// call.
func (s *Scheduler) RunDue(now time.Time) int {
	s.mu.Lock()
	var due []entry
	for k, e := range s.tasks {
		if !e.at.After(now) {
			due = append(due, e)
			delete(s.tasks, k)
		}
	}
	s.mu.Unlock()
	return runInOrder(due, now)
}

func runInOrder(due []entry, now time.Time) int {
	sort.Slice(due, func(i, j int) bool {
		if !due[i].at.Equal(due[j].at) {
			return due[i].at.Before(due[j].at)
		}
		return due[i].seq < due[j].seq
	})
	for _, e := range due {
		e.fn(now)
	}
	return len(due)
}
