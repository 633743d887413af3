package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"atlascoffee/internal/model"
)

// PGOrderStore is the PostgreSQL order store. Every mutation is a single
// row write, so callers get per-order atomicity without multi-row
// transactions.
type PGOrderStore struct {
	db *sql.DB
}

func NewPGOrderStore(db *sql.DB) *PGOrderStore {
	return &PGOrderStore{db: db}
}

const selectOrderSQL = `SELECT id, checkout_reference, customer_email, items, total_amount, fulfillment, payment_status, status, created_at, updated_at FROM orders`

func (s *PGOrderStore) Insert(ctx context.Context, order model.Order) (*model.Order, error) {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}

	var reference any
	if order.CheckoutReference != "" {
		reference = order.CheckoutReference
	}

	// Unique-index violations on checkout_reference surface raw so the
	// service layer can recognize them and re-select the winner.
	return scanOrder(s.db.QueryRowContext(ctx, `
		INSERT INTO orders (checkout_reference, customer_email, items, total_amount, fulfillment, payment_status, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, checkout_reference, customer_email, items, total_amount, fulfillment, payment_status, status, created_at, updated_at
	`, reference, order.CustomerEmail, itemsJSON, order.TotalAmount, order.Fulfillment, order.PaymentStatus, order.Status))
}

func (s *PGOrderStore) FindByReference(ctx context.Context, reference string) (*model.Order, error) {
	order, err := scanOrder(s.db.QueryRowContext(ctx,
		selectOrderSQL+` WHERE checkout_reference = $1`, reference))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("find by checkout reference: %w", err)
	}
	return order, nil
}

func (s *PGOrderStore) GetByID(ctx context.Context, id string) (*model.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrOrderNotFound
	}

	order, err := scanOrder(s.db.QueryRowContext(ctx, selectOrderSQL+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

func (s *PGOrderStore) List(ctx context.Context, filter OrderFilter) ([]model.Order, error) {
	query := selectOrderSQL
	var conds []string
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if !filter.CreatedAfter.IsZero() {
		args = append(args, filter.CreatedAfter)
		conds = append(conds, fmt.Sprintf("created_at > $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	return s.queryOrders(ctx, query, args...)
}

func (s *PGOrderStore) CompletedByEmail(ctx context.Context, email string, limit int) ([]model.Order, error) {
	return s.queryOrders(ctx,
		selectOrderSQL+` WHERE customer_email = $1 AND status = $2 ORDER BY created_at DESC LIMIT $3`,
		email, StatusCompleted, limit)
}

func (s *PGOrderStore) queryOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return orders, nil
}

// SetStatusChecked applies the transition rules and the write inside one
// transaction with the row locked, so a concurrent update cannot slip
// between the check and the write.
func (s *PGOrderStore) SetStatusChecked(ctx context.Context, id, newStatus string) (*model.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrOrderNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order status: %w", err)
	}

	if !CanTransition(current, newStatus) {
		return nil, ErrInvalidTransition
	}

	order, err := scanOrder(tx.QueryRowContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2
		RETURNING id, checkout_reference, customer_email, items, total_amount, fulfillment, payment_status, status, created_at, updated_at
	`, newStatus, id))
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return order, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var o model.Order
	var reference sql.NullString
	var itemsJSON []byte
	if err := row.Scan(&o.ID, &reference, &o.CustomerEmail, &itemsJSON, &o.TotalAmount,
		&o.Fulfillment, &o.PaymentStatus, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if reference.Valid {
		o.CheckoutReference = reference.String
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	return &o, nil
}
