package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps viewer sessions in a TTL cache. Every Save resets
// the expiration of the session.
type SessionRepository[S any] struct {
	cache *cache.Cache
}

func NewSessionRepository[S any](ttl, cleanupInterval time.Duration) *SessionRepository[S] {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &SessionRepository[S]{cache: cache.New(ttl, cleanupInterval)}
}

func (r *SessionRepository[S]) Save(id string, session S) {
	r.cache.Set(id, session, cache.DefaultExpiration)
}

func (r *SessionRepository[S]) Get(id string) (S, bool) {
	if x, found := r.cache.Get(id); found {
		if session, ok := x.(S); ok {
			return session, true
		}
	}
	var zero S
	return zero, false
}

func (r *SessionRepository[S]) Delete(id string) {
	r.cache.Delete(id)
}

// Each visits the live sessions. Expired entries that were not purged yet are
// skipped.
func (r *SessionRepository[S]) Each(fn func(id string, session S)) {
	for id, item := range r.cache.Items() {
		session, ok := item.Object.(S)
		if !ok {
			continue
		}
		fn(id, session)
	}
}

func (r *SessionRepository[S]) Len() int {
	return r.cache.ItemCount()
}

// OnEvicted registers a callback for expired or deleted sessions.
func (r *SessionRepository[S]) OnEvicted(fn func(id string)) {
	r.cache.OnEvicted(func(id string, _ interface{}) { fn(id) })
}
