// Package reconcile applies asynchronous payment-gateway notifications to
// orders: verify the payload, map the gateway status vocabulary to the
// internal one, and perform exactly one keyed status overwrite.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/metrics"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/order"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/payment"
)

var ErrValidation = errors.New("invalid notification")

type OrderStore interface {
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*order.Order, error)
	ApplyPaymentOutcome(ctx context.Context, up order.PaymentUpdate) error
}

type EventPublisher interface {
	PublishOrderPaid(ctx context.Context, o *order.Order) error
	PublishOrderPaymentFailed(ctx context.Context, o *order.Order, reason string) error
}

type Result struct {
	OrderID       string
	Status        order.Status
	PaymentStatus order.PaymentStatus
}

type Reconciler struct {
	store     OrderStore
	pub       EventPublisher
	serverKey string
	metrics   *metrics.Set
	logger    *log.Logger
}

func New(store OrderStore, pub EventPublisher, serverKey string, m *metrics.Set, logger *log.Logger) *Reconciler {
	return &Reconciler{store: store, pub: pub, serverKey: serverKey, metrics: m, logger: logger}
}

// Handle processes one notification end to end. It either performs the
// single keyed update or returns an error with nothing written:
// ErrValidation / payment.ErrUnknownStatus for rejected payloads,
// payment.ErrBadSignature for unauthenticated ones, order.ErrNotFound when
// no order matches, anything else is a storage failure the gateway should
// retry by redelivering.
func (r *Reconciler) Handle(ctx context.Context, n payment.Notification, raw []byte) (Result, error) {
	if n.OrderID == "" || n.TransactionStatus == "" {
		r.metrics.Webhook(metrics.OutcomeInvalid)
		return Result{}, fmt.Errorf("%w: order_id and transaction_status are required", ErrValidation)
	}

	if !n.VerifySignature(r.serverKey) {
		r.metrics.Webhook(metrics.OutcomeBadSignature)
		return Result{}, fmt.Errorf("%w: order %s", payment.ErrBadSignature, n.OrderID)
	}

	out, err := payment.MapStatus(n.TransactionStatus, n.FraudStatus)
	if err != nil {
		r.metrics.Webhook(metrics.OutcomeInvalid)
		return Result{}, err
	}

	o, err := r.store.GetByGatewayOrderID(ctx, n.OrderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			r.metrics.Webhook(metrics.OutcomeNotFound)
			return Result{}, err
		}
		r.metrics.Webhook(metrics.OutcomeStorageError)
		return Result{}, fmt.Errorf("load order %s: %w", n.OrderID, err)
	}

	if n.GrossAmount != "" {
		gross, perr := decimal.NewFromString(n.GrossAmount)
		if perr != nil {
			r.metrics.Webhook(metrics.OutcomeInvalid)
			return Result{}, fmt.Errorf("%w: bad gross_amount %q", ErrValidation, n.GrossAmount)
		}
		if !gross.Equal(decimal.NewFromInt(o.TotalAmount)) {
			r.metrics.Webhook(metrics.OutcomeInvalid)
			return Result{}, fmt.Errorf("%w: gross_amount %s does not match order total %d",
				ErrValidation, n.GrossAmount, o.TotalAmount)
		}
	}

	err = r.store.ApplyPaymentOutcome(ctx, order.PaymentUpdate{
		GatewayOrderID:    n.OrderID,
		Status:            out.Status,
		PaymentStatus:     out.PaymentStatus,
		TransactionStatus: n.TransactionStatus,
		FraudStatus:       n.FraudStatus,
		Payload:           raw,
	})
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			r.metrics.Webhook(metrics.OutcomeNotFound)
			return Result{}, err
		}
		r.metrics.Webhook(metrics.OutcomeStorageError)
		return Result{}, fmt.Errorf("apply payment outcome for %s: %w", n.OrderID, err)
	}

	r.publishOutcome(ctx, o, out, n.TransactionStatus)
	r.metrics.Webhook(metrics.OutcomeApplied)
	r.logger.Printf("order %s reconciled to %s/%s (transaction_status=%s fraud_status=%s)",
		o.ID, out.Status, out.PaymentStatus, n.TransactionStatus, n.FraudStatus)

	return Result{OrderID: o.ID, Status: out.Status, PaymentStatus: out.PaymentStatus}, nil
}

// publishOutcome emits order events for terminal payment states. Publish
// failures are logged only: the order row is already updated and the
// webhook must not be retried for a broker hiccup.
func (r *Reconciler) publishOutcome(ctx context.Context, o *order.Order, out payment.Outcome, transactionStatus string) {
	if r.pub == nil {
		return
	}
	switch out.PaymentStatus {
	case order.PaymentPaid:
		if err := r.pub.PublishOrderPaid(ctx, o); err != nil {
			r.logger.Printf("publish order.paid for %s: %v", o.ID, err)
		}
	case order.PaymentFailed:
		if err := r.pub.PublishOrderPaymentFailed(ctx, o, transactionStatus); err != nil {
			r.logger.Printf("publish order.payment_failed for %s: %v", o.ID, err)
		}
	}
}
