package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/himtika/proposal-tracker/internal/entity"
	"github.com/himtika/proposal-tracker/internal/metrics"
	"github.com/himtika/proposal-tracker/internal/repository"
)

// ErrAnonymous is returned when no signed-in team member backs the request.
var ErrAnonymous = errors.New("no authenticated actor")

// UserLookup loads stored team members.
type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type cachedActor struct {
	actor     entity.Actor
	expiresAt time.Time
}

// Provider resolves user ids into actors, caching profiles for a short TTL.
// Any event published through its notifier drops the cached profile.
type Provider struct {
	users    UserLookup
	notifier Notifier
	metrics  *metrics.OutreachMetrics
	ttl      time.Duration
	now      func() time.Time

	mu    sync.RWMutex
	cache map[uuid.UUID]cachedActor
	// generations counts invalidations per user; a lookup that raced with one is not cached.
	generations map[uuid.UUID]uint64

	unsubscribe func()
}

// NewProvider builds a provider. A zero ttl disables caching.
func NewProvider(users UserLookup, notifier Notifier, ttl time.Duration, m *metrics.OutreachMetrics) *Provider {
	if notifier == nil {
		notifier = NewLocalNotifier()
	}
	p := &Provider{
		users:       users,
		notifier:    notifier,
		metrics:     m,
		ttl:         ttl,
		now:         time.Now,
		cache:       make(map[uuid.UUID]cachedActor),
		generations: make(map[uuid.UUID]uint64),
	}
	p.unsubscribe = notifier.Subscribe(func(e Event) { p.Invalidate(e.UserID) })
	return p
}

// CurrentActor returns the actor for userID. A deleted account resolves to
// ErrAnonymous so stale tokens cannot act.
func (p *Provider) CurrentActor(ctx context.Context, userID uuid.UUID) (entity.Actor, error) {
	if userID == uuid.Nil {
		return entity.Actor{}, ErrAnonymous
	}

	if actor, ok := p.cached(userID); ok {
		p.metrics.CacheHit()
		return actor, nil
	}
	p.metrics.CacheMiss()

	p.mu.RLock()
	generation := p.generations[userID]
	p.mu.RUnlock()

	user, err := p.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return entity.Actor{}, ErrAnonymous
		}
		return entity.Actor{}, err
	}

	actor := entity.ActorFromUser(user)
	if p.ttl > 0 {
		p.mu.Lock()
		if p.generations[userID] == generation {
			p.cache[userID] = cachedActor{actor: actor, expiresAt: p.now().Add(p.ttl)}
		}
		p.mu.Unlock()
	}
	return actor, nil
}

func (p *Provider) cached(userID uuid.UUID) (entity.Actor, bool) {
	p.mu.RLock()
	entry, ok := p.cache[userID]
	p.mu.RUnlock()
	if !ok {
		return entity.Actor{}, false
	}
	if p.now().After(entry.expiresAt) {
		p.mu.Lock()
		delete(p.cache, userID)
		p.mu.Unlock()
		return entity.Actor{}, false
	}
	return entry.actor, true
}

// Invalidate drops the cached profile of userID and discards any lookup
// already in flight for it.
func (p *Provider) Invalidate(userID uuid.UUID) {
	p.mu.Lock()
	delete(p.cache, userID)
	p.generations[userID]++
	p.mu.Unlock()
}

// Notify invalidates the local cache and publishes the event to subscribers.
func (p *Provider) Notify(ctx context.Context, kind EventKind, userID uuid.UUID) error {
	p.Invalidate(userID)
	return p.notifier.Publish(ctx, Event{Kind: kind, UserID: userID})
}

// Subscribe registers fn for actor change events.
func (p *Provider) Subscribe(fn func(Event)) func() {
	return p.notifier.Subscribe(fn)
}

// Close detaches the provider from its notifier.
func (p *Provider) Close() {
	if p.unsubscribe != nil {
		p.unsubscribe()
	}
}
