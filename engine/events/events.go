// Package events defines the domain events that drive daily missions and the
// observer bus that tells listeners the run state changed.
package events

import (
	"sync"
	"time"
)

// Event is the closed set of domain events. Only types in this package
// implement it.
type Event interface {
	event()
}

// QuestCompleted is emitted once per successful quest completion.
type QuestCompleted struct {
	Ref        string
	Difficulty int
	At         time.Time
	Created    time.Time
	HighStakes bool
	Skill      string
	Secondary  string
}

// DamageTaken is emitted for every damage application.
type DamageTaken struct {
	Amount int
	Source string
}

// InboxChecked is emitted when the active quest list is inspected.
type InboxChecked struct {
	Active int
}

// Empty reports whether no active quests remained.
func (e InboxChecked) Empty() bool { return e.Active == 0 }

func (QuestCompleted) event() {}
func (DamageTaken) event()    {}
func (InboxChecked) event()   {}

// Changed is the payload of the state-changed signal. Rev increases with
// every publish.
type Changed struct {
	Rev    uint64
	Reason string
}

// Bus fans out state-changed signals. Slow subscribers never block a
// publisher: each subscriber holds at most one pending signal and newer
// signals replace it.
type Bus struct {
	mu   sync.Mutex
	rev  uint64
	next int
	subs map[int]chan Changed
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Changed)}
}

// Subscribe registers a listener. The returned cancel func unregisters it
// and closes the channel.
func (b *Bus) Subscribe() (<-chan Changed, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Changed, 1)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Publish emits one signal to every subscriber and returns it.
func (b *Bus) Publish(reason string) Changed {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rev++
	c := Changed{Rev: b.rev, Reason: reason}
	for _, ch := range b.subs {
		select {
		case ch <- c:
		default:
			// Drop the stale pending signal and replace it.
			select {
			case <-ch:
			default:
			}
			ch <- c
		}
	}
	return c
}

// Rev returns the number of signals published so far.
func (b *Bus) Rev() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rev
}
