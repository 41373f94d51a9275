package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/indiancoinstore/coinstore-backend/internal/storage"
	"github.com/indiancoinstore/coinstore-backend/pkg/logger"
)

// DefaultStorageKey is the record name a cart is saved under
const DefaultStorageKey = "indianCoinCart"

var errNotAnArray = errors.New("saved cart is not a JSON array")

// FailureHook is told about every storage operation that failed. op is one of
// "read", "write" or "purge".
type FailureHook func(op string, err error)

// Persister saves a store's items under one key after every transition made
// once the store is Ready. Writes run on a background goroutine that always
// writes the latest state, so callers never wait on storage.
type Persister struct {
	storage storage.Storage
	key     string
	timeout time.Duration
	log     *logger.Logger
	onFail  FailureHook

	mu      sync.Mutex
	cond    *sync.Cond
	pending []byte
	dirty   bool
	queued  uint64
	written uint64
	closed  bool
	last    []byte // owned by the writer goroutine

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

type PersisterOption func(*Persister)

// WithTimeout bounds each storage call
func WithTimeout(d time.Duration) PersisterOption {
	return func(p *Persister) { p.timeout = d }
}

func WithFailureHook(h FailureHook) PersisterOption {
	return func(p *Persister) { p.onFail = h }
}

func WithPersisterLogger(l *logger.Logger) PersisterOption {
	return func(p *Persister) { p.log = l }
}

// NewPersister starts the writer for key. Close must be called to stop it.
func NewPersister(st storage.Storage, key string, opts ...PersisterOption) *Persister {
	if key == "" {
		key = DefaultStorageKey
	}
	p := &Persister{
		storage: st,
		key:     key,
		timeout: 3 * time.Second,
		log:     logger.Get(),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.WithContext(map[string]interface{}{"storage_key": key})
	p.cond = sync.NewCond(&p.mu)
	go p.run()
	return p
}

// Key returns the storage key this persister writes
func (p *Persister) Key() string { return p.key }

// Load reads the saved cart. A missing record yields nil. A record that is not
// a JSON array of line items is deleted and also yields nil.
func (p *Persister) Load(ctx context.Context) ([]LineItem, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	data, err := p.storage.Get(ctx, p.key)
	if errors.Is(err, storage.ErrNotFound) {
		p.log.Debug("No saved cart found")
		return nil, nil
	}
	if err != nil {
		p.fail("read", err)
		return nil, fmt.Errorf("read saved cart: %w", err)
	}

	items, err := DecodeItems(data)
	if err != nil {
		p.log.Warn("Discarding corrupted saved cart", map[string]interface{}{
			"error": err.Error(),
			"bytes": len(data),
		})
		if delErr := p.storage.Delete(ctx, p.key); delErr != nil {
			p.log.Error("Failed to purge corrupted saved cart", delErr)
			p.fail("purge", delErr)
		}
		return nil, nil
	}

	p.log.Debug("Saved cart loaded", map[string]interface{}{
		"count": len(items),
	})
	return items, nil
}

// DecodeItems parses a saved cart record
func DecodeItems(data []byte) ([]LineItem, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errNotAnArray
	}
	items := []LineItem{}
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Observe is the store listener. Transitions made while hydrating are skipped.
func (p *Persister) Observe(ev Event) {
	if ev.State.Loading {
		return
	}
	items := ev.State.Items
	if items == nil {
		items = []LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		p.log.Error("Failed to encode cart", err)
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.pending = data
	p.dirty = true
	p.queued++
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until everything observed so far has been written or has
// failed to write.
func (p *Persister) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	target := p.queued
	for p.written < target {
		p.cond.Wait()
	}
}

// Close writes any pending state and stops the writer. It is safe to call
// more than once.
func (p *Persister) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.done
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.stop)
	<-p.done
}

func (p *Persister) run() {
	defer close(p.done)
	for {
		select {
		case <-p.wake:
			p.writePending()
		case <-p.stop:
			p.writePending()
			return
		}
	}
}

func (p *Persister) writePending() {
	p.mu.Lock()
	if !p.dirty {
		p.mu.Unlock()
		return
	}
	data, seq := p.pending, p.queued
	p.pending, p.dirty = nil, false
	p.mu.Unlock()

	if !bytes.Equal(data, p.last) {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err := p.storage.Set(ctx, p.key, data)
		cancel()
		if err != nil {
			// the in-memory cart stays authoritative for the session
			p.log.Error("Failed to save cart", err)
			p.fail("write", err)
		} else {
			p.last = data
		}
	}

	p.mu.Lock()
	p.written = seq
	p.cond.Broadcast()
	p.mu.Unlock()
}

func (p *Persister) fail(op string, err error) {
	if p.onFail != nil {
		p.onFail(op, err)
	}
}
