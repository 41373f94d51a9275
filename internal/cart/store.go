package cart

import (
	"context"
	"sync"
	"time"

	"github.com/indiancoinstore/coinstore-backend/internal/app/model"
	"github.com/indiancoinstore/coinstore-backend/pkg/logger"
)

// Phase is the store lifecycle: Hydrating until the saved cart has been
// loaded (or failed to load), Ready afterwards.
type Phase int

const (
	PhaseHydrating Phase = iota
	PhaseReady
)

func (p Phase) String() string {
	if p == PhaseReady {
		return "ready"
	}
	return "hydrating"
}

// Event describes a completed transition
type Event struct {
	Command string
	State   State
}

// Listener receives every completed transition synchronously, in
// subscription order. Listeners may read the store but must not dispatch.
type Listener func(Event)

// Loader supplies the saved cart during hydration. A nil slice means there is
// nothing to restore.
type Loader interface {
	Load(ctx context.Context) ([]LineItem, error)
}

// Store owns one cart. All mutation goes through Dispatch, which applies the
// command and notifies listeners before returning.
type Store struct {
	dispatchMu sync.Mutex // serialises apply + notify

	mu        sync.RWMutex
	state     State
	listeners []subscription
	nextSubID int

	loader   Loader
	hydrated sync.Once
	log      *logger.Logger
	onReject func(command string, err error)
}

type subscription struct {
	id int
	fn Listener
}

type Option func(*Store)

// WithLogger sets the logger used for rejected commands and load failures
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithLoader sets where Hydrate reads the saved cart from
func WithLoader(l Loader) Option {
	return func(s *Store) { s.loader = l }
}

// WithPersister loads from and writes back through p
func WithPersister(p *Persister) Option {
	return func(s *Store) {
		s.loader = p
		s.subscribe(p.Observe)
	}
}

// WithRejectHook is called for every command Apply refuses
func WithRejectHook(fn func(command string, err error)) Option {
	return func(s *Store) { s.onReject = fn }
}

// NewStore returns an empty store in the Hydrating phase
func NewStore(opts ...Option) *Store {
	s := &Store{
		state: State{Items: []LineItem{}, Loading: true},
		log:   logger.Get(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate loads the saved cart, if any, and moves the store to Ready. Load
// failures leave the cart as it is. Only the first call has any effect.
func (s *Store) Hydrate(ctx context.Context) {
	s.hydrated.Do(func() {
		if s.loader != nil {
			items, err := s.loader.Load(ctx)
			if err != nil {
				s.log.Error("Failed to load saved cart, starting empty", err)
			} else if items != nil {
				if _, err := s.Dispatch(hydrate{Items: items}); err != nil {
					s.log.Error("Failed to apply saved cart", err)
				}
			}
		}
		_, _ = s.Dispatch(ready{})
	})
}

// Phase reports whether hydration has completed
func (s *Store) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Loading {
		return PhaseHydrating
	}
	return PhaseReady
}

// Dispatch applies cmd and notifies listeners. A rejected command leaves the
// state untouched, notifies nobody and returns the error.
func (s *Store) Dispatch(cmd Command) (State, error) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	next, err := Apply(s.state, cmd)
	if err != nil {
		current := s.state
		s.mu.Unlock()
		s.log.Warn("Cart command rejected", map[string]interface{}{
			"command": cmd.Name(),
			"error":   err.Error(),
		})
		if s.onReject != nil {
			s.onReject(cmd.Name(), err)
		}
		return current, err
	}
	s.state = next
	listeners := make([]subscription, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	ev := Event{Command: cmd.Name(), State: next}
	for _, l := range listeners {
		l.fn(ev)
	}
	return next, nil
}

// Subscribe registers l and returns a function that removes it
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	id := s.subscribe(l)
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) subscribe(l Listener) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	s.listeners = append(s.listeners, subscription{id: s.nextSubID, fn: l})
	return s.nextSubID
}

// AddItem adds quantity units of product, merging with an existing line.
// Quantities below 1 count as 1.
func (s *Store) AddItem(product model.Product, quantity int) error {
	_, err := s.Dispatch(AddItem{Product: product, Quantity: quantity})
	return err
}

func (s *Store) RemoveItem(id string) {
	_, _ = s.Dispatch(RemoveItem{ID: id})
}

func (s *Store) SetQuantity(id string, quantity int) {
	_, _ = s.Dispatch(SetQuantity{ID: id, Quantity: quantity})
}

func (s *Store) IncrementQuantity(id string) {
	_, _ = s.Dispatch(IncrementQuantity{ID: id})
}

func (s *Store) DecrementQuantity(id string) {
	_, _ = s.Dispatch(DecrementQuantity{ID: id})
}

func (s *Store) Clear() {
	_, _ = s.Dispatch(Clear{})
}

// State returns a copy of the current state
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Items = append([]LineItem(nil), s.state.Items...)
	if st.Items == nil {
		st.Items = []LineItem{}
	}
	return st
}

func (s *Store) Items() []LineItem { return s.State().Items }

func (s *Store) TotalPrice() float64 { return s.State().TotalPrice() }

func (s *Store) TotalItemCount() int { return s.State().TotalItemCount() }

func (s *Store) DistinctItemCount() int { return s.State().DistinctItemCount() }

func (s *Store) QuantityOf(id string) int { return s.State().QuantityOf(id) }

func (s *Store) Contains(id string) bool { return s.State().Contains(id) }

func (s *Store) Summary() Summary { return s.State().Summary() }

func (s *Store) ItemView(id string) ItemView { return s.State().ItemView(id) }

// Export captures the items and summary together at one instant
func (s *Store) Export() Export {
	st := s.State()
	return Export{
		Items:     st.Items,
		Summary:   st.Summary(),
		Timestamp: time.Now().UTC(),
	}
}
