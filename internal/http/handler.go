package httpapi

import (
	"context"
	"log"

	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/checkout"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/extract"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/order"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/payment"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/product"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/reconcile"
)

// CheckoutService and WebhookReconciler are the two request-scoped services
// behind the public endpoints; handler tests substitute fakes.
type CheckoutService interface {
	Checkout(ctx context.Context, req checkout.Request) (*checkout.Result, error)
}

type WebhookReconciler interface {
	Handle(ctx context.Context, n payment.Notification, raw []byte) (reconcile.Result, error)
}

type OrderReader interface {
	GetByID(ctx context.Context, orderID string) (*order.Order, error)
	ListRecent(ctx context.Context, limit int) ([]order.Order, error)
}

type Handler struct {
	checkout   CheckoutService
	reconciler WebhookReconciler
	orders     OrderReader
	products   product.Repository
	extractor  extract.Extractor
	logger     *log.Logger
}

func NewHandler(
	checkoutSvc CheckoutService,
	reconciler WebhookReconciler,
	orders OrderReader,
	products product.Repository,
	extractor extract.Extractor,
	logger *log.Logger,
) *Handler {
	return &Handler{
		checkout:   checkoutSvc,
		reconciler: reconciler,
		orders:     orders,
		products:   products,
		extractor:  extractor,
		logger:     logger,
	}
}
