package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"

	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/checkout"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/db"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/events"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/extract"
	httpapi "github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/http"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/metrics"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/order"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/payment"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/product"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/reconcile"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/testutil"
)

const (
	serverKey  = "integration-server-key"
	adminToken = "integration-admin-token"
)

func TestOrderingIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	dsn := testutil.StartPostgres(t)
	_, rabbitConn := testutil.StartRabbitMQ(t)

	logger := log.New(io.Discard, "", log.LstdFlags)
	require.NoError(t, db.RunMigrations(dsn, logger))

	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	// Stand-in Snap API so checkout gets a payment session without
	// reaching the real gateway.
	snap := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"snap-token-1","redirect_url":"https://pay.example/v4/redirection/snap-token-1"}`))
	}))
	t.Cleanup(snap.Close)

	pub, err := events.NewPublisher(rabbitConn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close() })

	orders := order.NewPostgresRepository(pool)
	products := product.NewPostgresRepository(pool)
	m := metrics.New(prometheus.NewRegistry())

	gateway := payment.NewSnapClient(snap.URL, serverKey, "http://localhost:8080")
	checkoutSvc := checkout.NewService(orders, gateway, pub, m, logger)
	reconciler := reconcile.New(orders, pub, serverKey, m, logger)
	extractor := extract.NewChatClient("http://localhost:1", "", "test-model")

	h := httpapi.NewHandler(checkoutSvc, reconciler, orders, products, extractor, logger)
	app := httptest.NewServer(httpapi.NewRouter(h, adminToken))
	t.Cleanup(app.Close)

	client := &http.Client{Timeout: 10 * time.Second}

	productID := createMenuProduct(ctx, t, client, app.URL)
	checkProductListed(ctx, t, client, app.URL, productID)

	orderID := placeOrder(ctx, t, client, app.URL)
	waitForEvent(ctx, t, rabbitConn, events.OrderCreatedQueue)

	// Settlement notification flips the order to paid.
	res := postNotification(ctx, t, client, app.URL, notification(orderID, "settlement", "", "53000.00"))
	require.Equal(t, http.StatusOK, res.StatusCode)
	requireOrderStatus(ctx, t, client, app.URL, orderID, "paid", "paid")
	waitForEvent(ctx, t, rabbitConn, events.OrderPaidQueue)

	// Redelivery of the same notification lands on the same state.
	res = postNotification(ctx, t, client, app.URL, notification(orderID, "settlement", "", "53000.00"))
	require.Equal(t, http.StatusOK, res.StatusCode)
	requireOrderStatus(ctx, t, client, app.URL, orderID, "paid", "paid")

	// A later expire overwrites: the stored state always mirrors the
	// gateway's latest word.
	res = postNotification(ctx, t, client, app.URL, notification(orderID, "expire", "", "53000.00"))
	require.Equal(t, http.StatusOK, res.StatusCode)
	requireOrderStatus(ctx, t, client, app.URL, orderID, "cancelled", "failed")
	waitForEvent(ctx, t, rabbitConn, events.OrderPaymentFailedQueue)

	// Tampered signature is rejected without touching the order.
	bad := notification(orderID, "settlement", "", "53000.00")
	bad["signature_key"] = "deadbeef"
	res = postNotification(ctx, t, client, app.URL, bad)
	require.Equal(t, http.StatusForbidden, res.StatusCode)
	requireOrderStatus(ctx, t, client, app.URL, orderID, "cancelled", "failed")

	// A notification for an order we never created is a 404.
	res = postNotification(ctx, t, client, app.URL, notification("order-unknown", "settlement", "", "10000.00"))
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func createMenuProduct(ctx context.Context, t *testing.T, client *http.Client, baseURL string) string {
	t.Helper()

	body := `{"name":"Nasi Goreng Spesial","description":"Fried rice","price":45000,"category":"food"}`
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/admin/products", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminToken)

	res, err := client.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var p product.Product
	require.NoError(t, json.NewDecoder(res.Body).Decode(&p))
	require.NotEmpty(t, p.ID)
	return p.ID
}

func checkProductListed(ctx context.Context, t *testing.T, client *http.Client, baseURL, productID string) {
	t.Helper()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/products", nil)
	require.NoError(t, err)

	res, err := client.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var products []product.Product
	require.NoError(t, json.NewDecoder(res.Body).Decode(&products))
	for _, p := range products {
		if p.ID == productID {
			return
		}
	}
	t.Fatalf("product %s not in listing", productID)
}

func placeOrder(ctx context.Context, t *testing.T, client *http.Client, baseURL string) string {
	t.Helper()

	body := `{
		"items": [
			{"name": "Nasi Goreng Spesial", "price": 45000, "quantity": 1},
			{"name": "Es Teh", "price": 8000, "quantity": 1}
		],
		"customer": {"name": "Budi", "email": "budi@example.com", "phone": "0812"}
	}`
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/checkout", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var out checkout.Result
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.NotEmpty(t, out.OrderID)
	require.Equal(t, "snap-token-1", out.Token)
	require.NotEmpty(t, out.PaymentURL)
	return out.OrderID
}

func notification(orderID, transactionStatus, fraudStatus, grossAmount string) map[string]string {
	return map[string]string{
		"order_id":           orderID,
		"transaction_status": transactionStatus,
		"fraud_status":       fraudStatus,
		"status_code":        "200",
		"gross_amount":       grossAmount,
		"signature_key":      payment.Signature(orderID, "200", grossAmount, serverKey),
	}
}

func postNotification(ctx context.Context, t *testing.T, client *http.Client, baseURL string, n map[string]string) *http.Response {
	t.Helper()

	body, err := json.Marshal(n)
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/webhook/payment", bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func requireOrderStatus(ctx context.Context, t *testing.T, client *http.Client, baseURL, orderID, status, paymentStatus string) {
	t.Helper()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/orders/"+orderID, nil)
	require.NoError(t, err)

	res, err := client.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var o order.Order
	require.NoError(t, json.NewDecoder(res.Body).Decode(&o))
	require.Equal(t, order.Status(status), o.Status)
	require.Equal(t, order.PaymentStatus(paymentStatus), o.PaymentStatus)
}

func waitForEvent(ctx context.Context, t *testing.T, conn *amqp.Connection, queue string) []byte {
	t.Helper()

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	deliveries, err := ch.Consume(queue, "", true, false, false, false, nil)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	select {
	case d := <-deliveries:
		return d.Body
	case <-waitCtx.Done():
		t.Fatalf("no message on %s", queue)
		return nil
	}
}
