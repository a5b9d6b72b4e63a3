// Package identity resolves the acting team member and announces changes to
// who is signed in or how their profile reads.
package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// EventKind names an actor lifecycle change.
type EventKind string

const (
	EventSignedUp       EventKind = "signed_up"
	EventSignedIn       EventKind = "signed_in"
	EventSignedOut      EventKind = "signed_out"
	EventProfileUpdated EventKind = "profile_updated"
	EventDeleted        EventKind = "deleted"
)

// Event reports that the actor identified by UserID changed.
type Event struct {
	Kind   EventKind `json:"kind"`
	UserID uuid.UUID `json:"user_id"`
}

// Notifier delivers actor change events to subscribers.
type Notifier interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(fn func(Event)) (unsubscribe func())
}

// LocalNotifier fans events out to in-process subscribers synchronously.
type LocalNotifier struct {
	mu   sync.RWMutex
	subs map[int]func(Event)
	next int
}

// NewLocalNotifier creates an empty in-process notifier.
func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{subs: make(map[int]func(Event))}
}

// Publish invokes every subscriber with the event.
func (n *LocalNotifier) Publish(_ context.Context, event Event) error {
	n.mu.RLock()
	subs := make([]func(Event), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.RUnlock()

	for _, fn := range subs {
		fn(event)
	}
	return nil
}

// Subscribe registers fn until the returned function is called.
func (n *LocalNotifier) Subscribe(fn func(Event)) func() {
	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}
