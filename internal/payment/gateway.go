package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/order"
)

var ErrGateway = errors.New("payment gateway error")

type SessionParams struct {
	OrderID     string
	GrossAmount int64
	Items       []order.Item
	Customer    order.Customer
}

// Session is the payable handle returned by the gateway: the token for the
// embedded widget and the hosted redirect URL.
type Session struct {
	Token       string
	RedirectURL string
}

type Gateway interface {
	CreateTransaction(ctx context.Context, p SessionParams) (Session, error)
}

// SnapClient talks to a Snap-style hosted-payment API. Authentication is
// HTTP basic with the server key as username and an empty password.
type SnapClient struct {
	baseURL      string
	serverKey    string
	callbackBase string
	httpc        *http.Client
}

func NewSnapClient(baseURL, serverKey, callbackBase string) *SnapClient {
	return &SnapClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		serverKey:    serverKey,
		callbackBase: strings.TrimRight(callbackBase, "/"),
		httpc:        &http.Client{Timeout: 15 * time.Second},
	}
}

type snapTransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type snapItemDetail struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type snapCustomerDetails struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type snapCallbacks struct {
	Finish  string `json:"finish"`
	Error   string `json:"error"`
	Pending string `json:"pending"`
}

type snapRequest struct {
	TransactionDetails snapTransactionDetails `json:"transaction_details"`
	ItemDetails        []snapItemDetail       `json:"item_details"`
	CustomerDetails    snapCustomerDetails    `json:"customer_details"`
	Callbacks          snapCallbacks          `json:"callbacks"`
}

type snapResponse struct {
	Token         string   `json:"token"`
	RedirectURL   string   `json:"redirect_url"`
	ErrorMessages []string `json:"error_messages"`
}

func (c *SnapClient) CreateTransaction(ctx context.Context, p SessionParams) (Session, error) {
	reqBody := snapRequest{
		TransactionDetails: snapTransactionDetails{
			OrderID:     p.OrderID,
			GrossAmount: p.GrossAmount,
		},
		CustomerDetails: snapCustomerDetails{
			FirstName: p.Customer.Name,
			Email:     p.Customer.Email,
			Phone:     p.Customer.Phone,
		},
		Callbacks: snapCallbacks{
			Finish:  c.callbackBase + "/order/success",
			Error:   c.callbackBase + "/order/error",
			Pending: c.callbackBase + "/order/pending",
		},
	}
	for _, it := range p.Items {
		reqBody.ItemDetails = append(reqBody.ItemDetails, snapItemDetail{
			ID:       itemID(it.Name),
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
		})
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return Session{}, fmt.Errorf("marshal snap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/snap/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return Session{}, fmt.Errorf("build snap request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.serverKey, "")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	var out snapResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Session{}, fmt.Errorf("%w: decode response: %v", ErrGateway, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Session{}, fmt.Errorf("%w: status %d: %s",
			ErrGateway, resp.StatusCode, strings.Join(out.ErrorMessages, "; "))
	}
	if out.Token == "" || out.RedirectURL == "" {
		return Session{}, fmt.Errorf("%w: incomplete session in response", ErrGateway)
	}

	return Session{Token: out.Token, RedirectURL: out.RedirectURL}, nil
}

func itemID(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}
