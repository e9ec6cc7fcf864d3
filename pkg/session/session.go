// Package session persists diagram sessions of the HTTP server.
//
// A session is the input graph of one diagram surface plus its camera. The
// server keeps live sessions (with their layout bridge and viewport
// controller) in memory and writes the serializable part through a [Store]
// so a restarted or different replica can pick the session up again.
//
// [CacheStore] keeps sessions in any [cache.Cache] under
// [cache.Keyer.SessionKey], so the Redis backend shares them across
// replicas and the file backend keeps them across restarts.
//
//	store := session.NewCacheStore(c, keyer)
//	sess := session.New(g, session.DefaultTTL)
//	store.Set(ctx, sess)
package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/lineagraph/pkg/cache"
	"github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/viewport"
)

// DefaultTTL is how long an untouched session lives.
const DefaultTTL = cache.TTLSession

// Session is the persisted state of one diagram surface.
type Session struct {
	ID        string             `json:"id"`
	Graph     *graph.Graph       `json:"graph"`
	Transform viewport.Transform `json:"transform"`
	Width     float64            `json:"width,omitempty"`
	Height    float64            `json:"height,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// New creates a session with a random id.
func New(g *graph.Graph, ttl time.Duration) *Session {
	if g == nil {
		g = &graph.Graph{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Graph:     g,
		Transform: viewport.Identity,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired reports whether the session has outlived its TTL.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch extends the expiry by ttl from now.
func (s *Session) Touch(ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.ExpiresAt = time.Now().Add(ttl)
}

// ValidateID checks that id is a UUID, as issued by [New].
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "invalid session id %q", id)
	}
	return nil
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session. Missing and expired sessions return a
	// SESSION_NOT_FOUND error.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session until its expiry.
	Set(ctx context.Context, s *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
}

// CacheStore is a [Store] over a cache backend.
type CacheStore struct {
	cache cache.Cache
	keyer cache.Keyer
}

// NewCacheStore creates a store. A nil keyer uses [cache.DefaultKeyer].
func NewCacheStore(c cache.Cache, keyer cache.Keyer) *CacheStore {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &CacheStore{cache: c, keyer: keyer}
}

// Get implements [Store].
func (st *CacheStore) Get(ctx context.Context, id string) (*Session, error) {
	data, ok, err := st.cache.Get(ctx, st.keyer.SessionKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode session %s", id)
	}
	if s.IsExpired() {
		_ = st.Delete(ctx, id)
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %s expired", id)
	}
	return &s, nil
}

// Set implements [Store].
func (st *CacheStore) Set(ctx context.Context, s *Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "session %s already expired", s.ID)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode session %s", s.ID)
	}
	return st.cache.Set(ctx, st.keyer.SessionKey(s.ID), data, ttl)
}

// Delete implements [Store].
func (st *CacheStore) Delete(ctx context.Context, id string) error {
	return st.cache.Delete(ctx, st.keyer.SessionKey(id))
}

var _ Store = (*CacheStore)(nil)
