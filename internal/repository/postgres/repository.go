package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/orders"
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

func (c Credentials) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.DBName)
}

const orderColumns = `id, user_id, user_email, items, subtotal, shipping_cost, tax_amount, total,
	currency, shipping_address, payment_method, status, payment_status, created_at, updated_at`

// Repository stores orders as flat rows; line items and the shipping address
// are JSONB columns, money is BIGINT minor units.
type Repository struct {
	db *sql.DB
}

var _ orders.Store = (*Repository)(nil)

func NewRepository(ctx context.Context, cred *Credentials) (*Repository, error) {
	db, err := sql.Open("postgres", cred.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.PingContext(ctx); e2 != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

// NewRepositoryWithDB wraps an existing handle.
func NewRepositoryWithDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := migratepg.WithInstance(r.db, &migratepg.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	items, address, err := marshalJSONColumns(order)
	if err != nil {
		return err
	}

	query := `INSERT INTO orders (` + orderColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, insertErr := r.db.ExecContext(ctx, query,
		order.ID,
		order.UserID,
		order.UserEmail,
		items,
		order.Pricing.Subtotal,
		order.Pricing.ShippingCost,
		order.Pricing.TaxAmount,
		order.Pricing.Total,
		order.Currency,
		address,
		order.PaymentMethod,
		order.Status,
		order.PaymentStatus,
		order.CreatedAt,
		order.UpdatedAt)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return orders.ErrDuplicateID
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}
	return nil
}

// UpdateOrder locks the row with SELECT ... FOR UPDATE, hands it to fn and
// writes back the mutable columns. Concurrent admin edits serialize here.
func (r *Repository) UpdateOrder(ctx context.Context, id string, fn orders.UpdateFunc) (domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
	current, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, orders.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("lock order: %w", err)
	}

	next, err := fn(*current)
	if err != nil {
		return *current, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, payment_status = $2, updated_at = $3 WHERE id = $4`,
		next.Status, next.PaymentStatus, next.UpdatedAt, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit: %w", err)
	}
	return next, nil
}

func (r *Repository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, orders.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return order, nil
}

func (r *Repository) ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	return collect(rows)
}

func (r *Repository) ListOrders(ctx context.Context, from, to time.Time) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		   AND ($2::timestamptz IS NULL OR created_at < $2)
		 ORDER BY created_at`,
		nullTime(from), nullTime(to))
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	return collect(rows)
}

func (r *Repository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*domain.Order, error) {
	var order domain.Order
	var items, address []byte
	if err := s.Scan(
		&order.ID,
		&order.UserID,
		&order.UserEmail,
		&items,
		&order.Pricing.Subtotal,
		&order.Pricing.ShippingCost,
		&order.Pricing.TaxAmount,
		&order.Pricing.Total,
		&order.Currency,
		&address,
		&order.PaymentMethod,
		&order.Status,
		&order.PaymentStatus,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(address, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	order.CreatedAt = order.CreatedAt.UTC()
	order.UpdatedAt = order.UpdatedAt.UTC()
	return &order, nil
}

func collect(rows *sql.Rows) ([]*domain.Order, error) {
	defer rows.Close()

	var out []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		out = append(out, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func marshalJSONColumns(order *domain.Order) ([]byte, []byte, error) {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal order items: %w", err)
	}
	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal shipping address: %w", err)
	}
	return items, address, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
