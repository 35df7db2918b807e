// Package checkout creates orders and opens payment sessions for them.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/metrics"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/order"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/payment"
)

var ErrInvalidRequest = errors.New("invalid checkout request")

type OrderStore interface {
	Create(ctx context.Context, o *order.Order) error
	AttachPaymentSession(ctx context.Context, orderID, paymentURL, token string) error
	MarkFailed(ctx context.Context, orderID string) error
}

type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *order.Order) error
}

type ItemInput struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type CustomerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Request struct {
	Items    []ItemInput   `json:"items"`
	Customer CustomerInput `json:"customer"`
}

type Result struct {
	OrderID    string `json:"order_id"`
	Token      string `json:"token"`
	PaymentURL string `json:"payment_url"`
}

type Service struct {
	store   OrderStore
	gateway payment.Gateway
	pub     EventPublisher
	metrics *metrics.Set
	logger  *log.Logger
}

func NewService(store OrderStore, gateway payment.Gateway, pub EventPublisher, m *metrics.Set, logger *log.Logger) *Service {
	return &Service{store: store, gateway: gateway, pub: pub, metrics: m, logger: logger}
}

// Checkout creates a pending order and a gateway payment session for it.
// The order and its session are created back to back: if the gateway call
// fails, the order is marked failed so a row without a payment URL is never
// presented to the customer as payable.
func (s *Service) Checkout(ctx context.Context, req Request) (*Result, error) {
	o, err := buildOrder(req)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, o); err != nil {
		s.metrics.Checkout(metrics.ResultStorageError)
		return nil, fmt.Errorf("create order: %w", err)
	}

	session, err := s.gateway.CreateTransaction(ctx, payment.SessionParams{
		OrderID:     o.GatewayOrderID,
		GrossAmount: o.TotalAmount,
		Items:       o.Items,
		Customer:    o.Customer,
	})
	if err != nil {
		if markErr := s.store.MarkFailed(ctx, o.ID); markErr != nil {
			s.logger.Printf("mark order %s failed after gateway error: %v", o.ID, markErr)
		}
		s.metrics.Checkout(metrics.ResultGatewayError)
		return nil, fmt.Errorf("create payment session for %s: %w", o.ID, err)
	}

	if err := s.store.AttachPaymentSession(ctx, o.ID, session.RedirectURL, session.Token); err != nil {
		if markErr := s.store.MarkFailed(ctx, o.ID); markErr != nil {
			s.logger.Printf("mark order %s failed after attach error: %v", o.ID, markErr)
		}
		s.metrics.Checkout(metrics.ResultStorageError)
		return nil, fmt.Errorf("attach payment session for %s: %w", o.ID, err)
	}

	if s.pub != nil {
		if err := s.pub.PublishOrderCreated(ctx, o); err != nil {
			s.logger.Printf("publish order.created for %s: %v", o.ID, err)
		}
	}

	s.metrics.Checkout(metrics.ResultCreated)
	s.logger.Printf("order %s created for %s, total %d", o.ID, o.Customer.Email, o.TotalAmount)

	return &Result{OrderID: o.ID, Token: session.Token, PaymentURL: session.RedirectURL}, nil
}

func buildOrder(req Request) (*order.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Customer.Name) == "" || strings.TrimSpace(req.Customer.Email) == "" {
		return nil, fmt.Errorf("%w: customer name and email are required", ErrInvalidRequest)
	}

	o := &order.Order{
		Customer: order.Customer{
			Name:  strings.TrimSpace(req.Customer.Name),
			Email: strings.TrimSpace(req.Customer.Email),
			Phone: strings.TrimSpace(req.Customer.Phone),
		},
		Status:        order.StatusPending,
		PaymentStatus: order.PaymentPending,
	}

	// The total is always computed server side; a client-sent total is
	// never trusted.
	for i, it := range req.Items {
		if strings.TrimSpace(it.Name) == "" {
			return nil, fmt.Errorf("%w: item %d has no name", ErrInvalidRequest, i)
		}
		if it.Price <= 0 || it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %q needs a positive price and quantity", ErrInvalidRequest, it.Name)
		}
		o.Items = append(o.Items, order.Item{Name: it.Name, Price: it.Price, Quantity: it.Quantity})
		o.TotalAmount += it.Price * int64(it.Quantity)
	}

	return o, nil
}
