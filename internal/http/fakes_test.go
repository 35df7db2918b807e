package httpapi

import (
	"context"
	"io"
	"log"
	"net/http"

	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/checkout"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/extract"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/order"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/payment"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/product"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/reconcile"
)

type fakeCheckout struct {
	res *checkout.Result
	err error
	got checkout.Request
}

func (f *fakeCheckout) Checkout(ctx context.Context, req checkout.Request) (*checkout.Result, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

type fakeReconciler struct {
	res reconcile.Result
	err error
	got payment.Notification
}

func (f *fakeReconciler) Handle(ctx context.Context, n payment.Notification, raw []byte) (reconcile.Result, error) {
	f.got = n
	if f.err != nil {
		return reconcile.Result{}, f.err
	}
	return f.res, nil
}

type fakeOrderReader struct {
	orders map[string]*order.Order
	err    error
}

func (f *fakeOrderReader) GetByID(ctx context.Context, orderID string) (*order.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	o, ok := f.orders[orderID]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderReader) ListRecent(ctx context.Context, limit int) ([]order.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []order.Order
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, nil
}

type fakeProductRepo struct {
	products map[string]*product.Product
	err      error
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[string]*product.Product{}}
}

func (f *fakeProductRepo) ListActive(ctx context.Context) ([]product.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []product.Product
	for _, p := range f.products {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) GetByID(ctx context.Context, productID string) (*product.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) Create(ctx context.Context, p *product.Product) error {
	if f.err != nil {
		return f.err
	}
	if p.ID == "" {
		p.ID = "p-test"
	}
	p.IsActive = true
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) Update(ctx context.Context, p *product.Product) error {
	if _, ok := f.products[p.ID]; !ok {
		return product.ErrNotFound
	}
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) Deactivate(ctx context.Context, productID string) error {
	p, ok := f.products[productID]
	if !ok {
		return product.ErrNotFound
	}
	p.IsActive = false
	return nil
}

type fakeExtractor struct {
	res extract.Result
	err error
}

func (f *fakeExtractor) ExtractFromImage(ctx context.Context, imageBase64 string) (extract.Result, error) {
	if f.err != nil {
		return extract.Result{}, f.err
	}
	return f.res, nil
}

type testDeps struct {
	checkout   *fakeCheckout
	reconciler *fakeReconciler
	orders     *fakeOrderReader
	products   *fakeProductRepo
	extractor  *fakeExtractor
}

func newTestRouter(adminToken string) (http.Handler, *testDeps) {
	deps := &testDeps{
		checkout:   &fakeCheckout{},
		reconciler: &fakeReconciler{},
		orders:     &fakeOrderReader{orders: map[string]*order.Order{}},
		products:   newFakeProductRepo(),
		extractor:  &fakeExtractor{},
	}
	h := NewHandler(deps.checkout, deps.reconciler, deps.orders, deps.products, deps.extractor,
		log.New(io.Discard, "", 0))
	return NewRouter(h, adminToken), deps
}
