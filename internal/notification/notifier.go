// Package notification keeps the transient banner shown to a shopper after
// actions such as a confirmed order.
package notification

import (
	"sync"
	"time"
)

const (
	TypeOrderSuccess = "orderSuccess"

	OrderSuccessMessage = "Order confirmed! We'll contact you soon."

	// DefaultTTL is how long a notification stays visible
	DefaultTTL = 4 * time.Second
)

type Notification struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
	ID      int64                  `json:"id"`

	ExpiresAt time.Time `json:"expires_at"`
}

// Publisher receives every shown notification, and nil when it is hidden
type Publisher func(n *Notification)

type Option func(*Notifier)

func WithTTL(d time.Duration) Option {
	return func(n *Notifier) { n.ttl = d }
}

func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

func WithPublisher(p Publisher) Option {
	return func(n *Notifier) { n.publish = p }
}

// Notifier holds at most one notification at a time
type Notifier struct {
	mu      sync.Mutex
	current *Notification
	lastID  int64

	ttl     time.Duration
	now     func() time.Time
	publish Publisher
}

func NewNotifier(opts ...Option) *Notifier {
	n := &Notifier{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Show replaces the current notification
func (n *Notifier) Show(kind, message string, data map[string]interface{}) Notification {
	if data == nil {
		data = map[string]interface{}{}
	}

	n.mu.Lock()
	now := n.now()
	id := now.UnixMilli()
	if id <= n.lastID {
		id = n.lastID + 1
	}
	n.lastID = id
	notif := &Notification{
		Type:      kind,
		Message:   message,
		Data:      data,
		ID:        id,
		ExpiresAt: now.Add(n.ttl),
	}
	n.current = notif
	n.mu.Unlock()

	if n.publish != nil {
		n.publish(notif)
	}
	return *notif
}

func (n *Notifier) ShowOrderSuccess(orderNumber string) Notification {
	return n.Show(TypeOrderSuccess, OrderSuccessMessage, map[string]interface{}{
		"orderNumber": orderNumber,
	})
}

func (n *Notifier) Hide() {
	n.mu.Lock()
	hadOne := n.current != nil
	n.current = nil
	n.mu.Unlock()

	if hadOne && n.publish != nil {
		n.publish(nil)
	}
}

// Current returns the visible notification, or nil once it has expired
func (n *Notifier) Current() *Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.current == nil {
		return nil
	}
	if !n.now().Before(n.current.ExpiresAt) {
		n.current = nil
		return nil
	}
	cp := *n.current
	return &cp
}
