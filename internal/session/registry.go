// Package session gives every guest browser its own cart and notification
// banner, backed by the configured cart storage.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/indiancoinstore/coinstore-backend/internal/cart"
	"github.com/indiancoinstore/coinstore-backend/internal/notification"
	"github.com/indiancoinstore/coinstore-backend/internal/storage"
	"github.com/indiancoinstore/coinstore-backend/internal/websocket"
	"github.com/indiancoinstore/coinstore-backend/pkg/logger"
)

// Publisher pushes events to a session's open tabs
type Publisher interface {
	Publish(sessionID, event string, data interface{}) error
}

// Observer receives session and cart activity for metrics
type Observer interface {
	ObserveCommand(command string, err error)
	ObservePersistenceFailure(op string, err error)
	SessionOpened()
	SessionClosed()
}

type Session struct {
	ID       string
	Cart     *cart.Store
	Notifier *notification.Notifier

	persister *cart.Persister
	lastSeen  atomic.Int64

	// previous is the persister of an evicted session with the same id that
	// may still be draining. Hydration waits for it.
	previous *cart.Persister
	ready    sync.Once
}

// LastSeen is when the session was last fetched from the registry
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Flush waits until the cart's latest state has been written
func (s *Session) Flush() {
	s.persister.Flush()
}

type Registry struct {
	storage   storage.Storage
	keyPrefix string
	timeout   time.Duration
	publisher Publisher
	observer  Observer
	log       *logger.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	closing  map[string]*Session
}

type Option func(*Registry)

func WithPublisher(p Publisher) Option {
	return func(r *Registry) { r.publisher = p }
}

func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observer = o }
}

func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) { r.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithStorageTimeout bounds each cart storage call
func WithStorageTimeout(d time.Duration) Option {
	return func(r *Registry) { r.timeout = d }
}

// NewRegistry keeps carts in st under "<keyPrefix>:<session id>"
func NewRegistry(st storage.Storage, keyPrefix string, opts ...Option) *Registry {
	if keyPrefix == "" {
		keyPrefix = cart.DefaultStorageKey
	}
	r := &Registry{
		storage:   st,
		keyPrefix: keyPrefix,
		log:       logger.Get(),
		now:       time.Now,
		sessions:  make(map[string]*Session),
		closing:   make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StorageKey returns the record a session's cart is saved under
func (r *Registry) StorageKey(sessionID string) string {
	return r.keyPrefix + ":" + sessionID
}

// Get returns the live session for id, restoring its cart from storage the
// first time. Concurrent callers for a new id wait for the same hydration.
// A session reopened while its evicted predecessor is still writing hydrates
// only after that write has landed.
func (r *Registry) Get(ctx context.Context, id string) *Session {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		s = r.open(id)
		if prev, closing := r.closing[id]; closing {
			s.previous = prev.persister
		}
		r.sessions[id] = s
	}
	r.touch(s)
	r.mu.Unlock()

	s.ready.Do(func() {
		if s.previous != nil {
			s.previous.Close()
		}
		s.Cart.Hydrate(ctx)
	})
	return s
}

func (r *Registry) touch(s *Session) {
	s.lastSeen.Store(r.now().UnixNano())
}

// Lookup returns the session only if it is already live
func (r *Registry) Lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) open(id string) *Session {
	persisterOpts := []cart.PersisterOption{cart.WithPersisterLogger(r.log)}
	if r.timeout > 0 {
		persisterOpts = append(persisterOpts, cart.WithTimeout(r.timeout))
	}
	if r.observer != nil {
		persisterOpts = append(persisterOpts, cart.WithFailureHook(r.observer.ObservePersistenceFailure))
	}
	p := cart.NewPersister(r.storage, r.StorageKey(id), persisterOpts...)

	storeOpts := []cart.Option{cart.WithLogger(r.log), cart.WithPersister(p)}
	if r.observer != nil {
		storeOpts = append(storeOpts, cart.WithRejectHook(r.observer.ObserveCommand))
	}
	store := cart.NewStore(storeOpts...)

	var notifierOpts []notification.Option
	if r.publisher != nil {
		notifierOpts = append(notifierOpts, notification.WithPublisher(func(n *notification.Notification) {
			_ = r.publisher.Publish(id, websocket.EventNotification, n)
		}))
	}

	s := &Session{
		ID:        id,
		Cart:      store,
		Notifier:  notification.NewNotifier(notifierOpts...),
		persister: p,
	}

	store.Subscribe(func(ev cart.Event) {
		if r.observer != nil {
			r.observer.ObserveCommand(ev.Command, nil)
		}
		if r.publisher != nil {
			_ = r.publisher.Publish(id, websocket.EventCart, cart.Export{
				Items:     ev.State.Items,
				Summary:   ev.State.Summary(),
				Timestamp: r.now().UTC(),
			})
		}
	})

	if r.observer != nil {
		r.observer.SessionOpened()
	}
	r.log.Debug("Session opened", map[string]interface{}{
		"session_id": id,
	})
	return s
}

// Evict drops the session from memory after its cart has been written.
// The saved cart stays in storage.
func (r *Registry) Evict(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		r.retire(id, s)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	r.closeSession(s)
	return true
}

// retire moves a session from live to closing. Callers hold r.mu.
func (r *Registry) retire(id string, s *Session) {
	delete(r.sessions, id)
	r.closing[id] = s
}

// EvictIdle evicts every session not used within ttl and returns how many
func (r *Registry) EvictIdle(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl).UnixNano()

	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.lastSeen.Load() < cutoff {
			idle = append(idle, s)
			r.retire(id, s)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		r.closeSession(s)
	}
	if len(idle) > 0 {
		r.log.Info("Evicted idle sessions", map[string]interface{}{
			"count": len(idle),
			"ttl":   ttl.String(),
		})
	}
	return len(idle)
}

func (r *Registry) closeSession(s *Session) {
	s.persister.Close()
	r.mu.Lock()
	if r.closing[s.ID] == s {
		delete(r.closing, s.ID)
	}
	r.mu.Unlock()
	if r.observer != nil {
		r.observer.SessionClosed()
	}
	r.log.Debug("Session closed", map[string]interface{}{
		"session_id": s.ID,
	})
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close flushes and drops every session
func (r *Registry) Close() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		all = append(all, s)
		r.retire(id, s)
	}
	r.mu.Unlock()

	for _, s := range all {
		r.closeSession(s)
	}
}

// HandleClientMessage applies frames sent by a session's browser tabs
func (r *Registry) HandleClientMessage(sessionID string, msg websocket.ClientMessage) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if ok {
		r.touch(s)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	switch msg.Type {
	case "hide_notification":
		s.Notifier.Hide()
	case "increment":
		s.Cart.IncrementQuantity(msg.ID)
	case "decrement":
		s.Cart.DecrementQuantity(msg.ID)
	case "remove":
		s.Cart.RemoveItem(msg.ID)
	default:
		r.log.Debug("Ignoring client message", map[string]interface{}{
			"session_id": sessionID,
			"type":       msg.Type,
		})
	}
}
