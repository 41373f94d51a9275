// Package checkout turns a shopper's cart into an emailed order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/indiancoinstore/coinstore-backend/internal/app/model"
	"github.com/indiancoinstore/coinstore-backend/internal/cart"
	"github.com/indiancoinstore/coinstore-backend/internal/invoice"
	"github.com/indiancoinstore/coinstore-backend/internal/notification"
	"github.com/indiancoinstore/coinstore-backend/pkg/logger"
)

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrDeliveryFailed = errors.New("order confirmation could not be delivered")
)

// Order outcomes reported to the Recorder
const (
	ResultSubmitted = "submitted"
	ResultRejected  = "rejected"
	ResultEmpty     = "empty"
	ResultFailed    = "failed"
)

// Notifier is the part of notification.Notifier checkout needs
type Notifier interface {
	ShowOrderSuccess(orderNumber string) notification.Notification
}

// Recorder observes order outcomes
type Recorder interface {
	ObserveOrder(result string)
}

type Config struct {
	ShopName    string
	OrderPrefix string
	OwnerEmail  string
}

type Service struct {
	cfg      Config
	sender   Sender
	invoices *invoice.Generator
	recorder Recorder
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func NewService(cfg Config, sender Sender, invoices *invoice.Generator, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		sender:   sender,
		invoices: invoices,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit places the order held in store. The cart is cleared only once the
// customer confirmation has been accepted for delivery.
func (s *Service) Submit(ctx context.Context, store *cart.Store, notifier Notifier, customer model.Customer) (model.Order, error) {
	customer = NormalizeCustomer(customer)
	if err := ValidateCustomer(customer); err != nil {
		logger.Warn("Checkout rejected: invalid customer details", map[string]interface{}{
			"error": err.Error(),
		})
		s.observe(ResultRejected)
		return model.Order{}, err
	}

	snapshot := store.Export()
	if snapshot.Summary.IsEmpty {
		s.observe(ResultEmpty)
		return model.Order{}, ErrEmptyCart
	}

	order := s.buildOrder(snapshot)
	log := logger.WithContext(map[string]interface{}{
		"order_number": order.OrderNumber,
		"items":        len(order.Items),
	})
	log.Debug("Submitting order")

	msg, err := s.customerMessage(order, customer)
	if err != nil {
		log.Error("Failed to prepare confirmation email", err)
		s.observe(ResultFailed)
		return model.Order{}, err
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		log.Error("Customer confirmation failed", err, map[string]interface{}{
			"email": customer.Email,
		})
		s.observe(ResultFailed)
		return model.Order{}, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	s.notifyOwner(ctx, order, customer)

	store.Clear()
	notifier.ShowOrderSuccess(order.OrderNumber)
	s.observe(ResultSubmitted)

	log.Info("Order submitted", map[string]interface{}{
		"total": order.TotalAmount,
	})
	return order, nil
}

func (s *Service) buildOrder(snapshot cart.Export) model.Order {
	now := s.now()
	lines := make([]model.OrderLine, len(snapshot.Items))
	for i, it := range snapshot.Items {
		lines[i] = model.OrderLine{
			ProductID: it.ID,
			Name:      it.Name,
			Period:    it.Period,
			Price:     it.Price,
			Quantity:  it.Quantity,
		}
	}
	return model.Order{
		OrderNumber: fmt.Sprintf("%s%d", s.cfg.OrderPrefix, now.UnixMilli()),
		Items:       lines,
		TotalAmount: snapshot.Summary.TotalPrice,
		Date:        now,
	}
}

func (s *Service) customerMessage(order model.Order, customer model.Customer) (Message, error) {
	subject, html, text, err := renderOrderEmail(s.cfg.ShopName, order, customer, false)
	if err != nil {
		return Message{}, err
	}
	doc, err := s.invoices.Generate(order, customer)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      customer.Email,
		ToName:  customer.Name,
		Subject: subject,
		HTML:    html,
		Text:    text,
		Attachments: []Attachment{{
			Filename:    invoice.Filename(order.OrderNumber),
			ContentType: invoice.ContentType,
			Content:     doc,
		}},
	}, nil
}

// notifyOwner sends the shop's copy. Failures never affect the order.
func (s *Service) notifyOwner(ctx context.Context, order model.Order, customer model.Customer) {
	if s.cfg.OwnerEmail == "" {
		return
	}
	subject, html, text, err := renderOrderEmail(s.cfg.ShopName, order, customer, true)
	if err == nil {
		err = s.sender.Send(ctx, Message{
			To:      s.cfg.OwnerEmail,
			ToName:  s.cfg.ShopName,
			Subject: subject,
			HTML:    html,
			Text:    text,
		})
	}
	if err != nil {
		logger.Warn("Owner order copy failed", map[string]interface{}{
			"order_number": order.OrderNumber,
			"error":        err.Error(),
		})
	}
}

func (s *Service) observe(result string) {
	if s.recorder != nil {
		s.recorder.ObserveOrder(result)
	}
}
