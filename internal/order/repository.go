package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("order not found")

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error)
	AttachPaymentSession(ctx context.Context, orderID, paymentURL, token string) error
	MarkFailed(ctx context.Context, orderID string) error
	ApplyPaymentOutcome(ctx context.Context, up PaymentUpdate) error
	ListRecent(ctx context.Context, limit int) ([]Order, error)
}

// PaymentUpdate is the single write the webhook reconciler performs: an
// overwrite of the status fields keyed by the gateway order id, plus one
// audit row carrying the raw notification.
type PaymentUpdate struct {
	GatewayOrderID    string
	Status            Status
	PaymentStatus     PaymentStatus
	TransactionStatus string
	FraudStatus       string
	Payload           []byte
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = "order-" + uuid.NewString()
	}
	if o.GatewayOrderID == "" {
		o.GatewayOrderID = o.ID
	}
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO orders (id, customer_name, customer_email, customer_phone, total_amount,
                             status, payment_status, gateway_order_id, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.Customer.Name, o.Customer.Email, o.Customer.Phone, o.TotalAmount,
		string(o.Status), string(o.PaymentStatus), o.GatewayOrderID, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, name, price, quantity)
             VALUES ($1, $2, $3, $4, $5)`,
			uuid.NewString(), o.ID, it.Name, it.Price, it.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const orderColumns = `id, customer_name, customer_email, customer_phone, total_amount,
       status, payment_status, COALESCE(payment_url, ''), COALESCE(payment_token, ''),
       gateway_order_id, created_at, updated_at`

func (r *PostgresRepository) GetByID(ctx context.Context, orderID string) (*Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
}

func (r *PostgresRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE gateway_order_id = $1`, gatewayOrderID)
}

func (r *PostgresRepository) getOne(ctx context.Context, query, arg string) (*Order, error) {
	var o Order
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&o.ID, &o.Customer.Name, &o.Customer.Email, &o.Customer.Phone, &o.TotalAmount,
		&o.Status, &o.PaymentStatus, &o.PaymentURL, &o.PaymentToken,
		&o.GatewayOrderID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT name, price, quantity FROM order_items WHERE order_id = $1`, o.ID)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.Name, &it.Price, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return &o, nil
}

func (r *PostgresRepository) AttachPaymentSession(ctx context.Context, orderID, paymentURL, token string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET payment_url = $2, payment_token = $3, updated_at = now()
         WHERE id = $1`,
		orderID, paymentURL, token,
	)
	if err != nil {
		return fmt.Errorf("attach payment session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) MarkFailed(ctx context.Context, orderID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2, payment_status = $3, updated_at = now()
         WHERE id = $1`,
		orderID, string(StatusFailed), string(PaymentFailed),
	)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyPaymentOutcome overwrites the status fields of the order matching the
// gateway order id and appends the raw notification to the audit table. The
// overwrite makes webhook redelivery safe: applying the same notification
// twice leaves the row in the same state.
func (r *PostgresRepository) ApplyPaymentOutcome(ctx context.Context, up PaymentUpdate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2, payment_status = $3, payment_data = $4, updated_at = now()
         WHERE gateway_order_id = $1`,
		up.GatewayOrderID, string(up.Status), string(up.PaymentStatus), up.Payload,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO payment_notifications (gateway_order_id, transaction_status, fraud_status, payload)
         VALUES ($1, $2, $3, $4)`,
		up.GatewayOrderID, up.TransactionStatus, up.FraudStatus, up.Payload,
	)
	if err != nil {
		return fmt.Errorf("insert payment notification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.Customer.Name, &o.Customer.Email, &o.Customer.Phone, &o.TotalAmount,
			&o.Status, &o.PaymentStatus, &o.PaymentURL, &o.PaymentToken,
			&o.GatewayOrderID, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return orders, nil
}
