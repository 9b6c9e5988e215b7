package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bankassist/pkg/platform/sentinel"
)

// Reader answers the balance side query. Returns sentinel.ErrNotFound when
// the user has no linked customer record or no active account.
type Reader interface {
	BalanceForUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

// PostgresReader resolves user -> customer -> first account.
type PostgresReader struct {
	db *sql.DB
}

func NewPostgresReader(db *sql.DB) *PostgresReader {
	return &PostgresReader{db: db}
}

func (r *PostgresReader) BalanceForUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT a.current_balance
		FROM customers c
		JOIN accounts a ON a.customer_id = c.customer_id
		WHERE c.user_id = $1
		ORDER BY a.opened_at
		LIMIT 1`, userID)

	var balance decimal.Decimal
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, sentinel.ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("balance for user: %w", err)
	}
	return balance, nil
}

// InMemoryReader backs dev and tests.
type InMemoryReader struct {
	mu       sync.RWMutex
	balances map[uuid.UUID]decimal.Decimal
}

func NewInMemoryReader() *InMemoryReader {
	return &InMemoryReader{balances: make(map[uuid.UUID]decimal.Decimal)}
}

// SetBalance seeds a user's balance.
func (r *InMemoryReader) SetBalance(userID uuid.UUID, balance decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[userID] = balance
}

func (r *InMemoryReader) BalanceForUser(_ context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if balance, ok := r.balances[userID]; ok {
		return balance, nil
	}
	return decimal.Zero, sentinel.ErrNotFound
}
