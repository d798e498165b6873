package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-pos-terminal/internal/domain/parked"
)

// ErrParkedSaleNotFound is returned when no parked sale has the given ID.
var ErrParkedSaleNotFound = errors.New("parked sale not found")

const (
	parkedColumns = `id, lines, COALESCE(customer_id, ''), subtotal, tax, discount,
		notes, parked_at, expires_at`

	createParkedSaleSQL = `INSERT INTO parked_sales
		(id, lines, customer_id, subtotal, tax, discount, notes, parked_at, expires_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9)`

	listParkedSalesSQL = `SELECT ` + parkedColumns + ` FROM parked_sales
		ORDER BY parked_at DESC`

	getParkedSaleSQL = `SELECT ` + parkedColumns + ` FROM parked_sales WHERE id = $1`

	deleteParkedSaleSQL = `DELETE FROM parked_sales WHERE id = $1`
)

var _ parked.Repository = (*ParkedSaleRepository)(nil)

// ParkedSaleRepository implements parked.Repository backed by PostgreSQL.
// Rows past their expires_at are returned like any other: expiry is advisory
// and deletion is always an explicit user action.
type ParkedSaleRepository struct {
	pool *pgxpool.Pool
}

// NewParkedSaleRepository returns a ParkedSaleRepository that uses the given pool.
func NewParkedSaleRepository(pool *pgxpool.Pool) *ParkedSaleRepository {
	return &ParkedSaleRepository{pool: pool}
}

// Create persists a parked sale snapshot.
func (r *ParkedSaleRepository) Create(ctx context.Context, s *parked.Sale) error {
	linesJSON, err := json.Marshal(s.Lines)
	if err != nil {
		return fmt.Errorf("marshaling parked lines: %w", err)
	}

	_, err = r.pool.Exec(ctx, createParkedSaleSQL,
		s.ID, linesJSON, s.CustomerID, s.Subtotal, s.Tax, s.Discount,
		s.Notes, s.ParkedAt, s.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("creating parked sale %q: %w", s.ID, err)
	}
	return nil
}

// List returns every parked sale, newest first.
func (r *ParkedSaleRepository) List(ctx context.Context) ([]parked.Sale, error) {
	rows, err := r.pool.Query(ctx, listParkedSalesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing parked sales: %w", err)
	}
	return pgx.CollectRows(rows, scanParkedSale)
}

// Get returns a single parked sale by ID.
func (r *ParkedSaleRepository) Get(ctx context.Context, id string) (*parked.Sale, error) {
	rows, err := r.pool.Query(ctx, getParkedSaleSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting parked sale %q: %w", id, err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanParkedSale)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrParkedSaleNotFound
		}
		return nil, fmt.Errorf("getting parked sale %q: %w", id, err)
	}
	return &s, nil
}

// Delete removes a parked sale permanently.
func (r *ParkedSaleRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteParkedSaleSQL, id)
	if err != nil {
		return fmt.Errorf("deleting parked sale %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrParkedSaleNotFound
	}
	return nil
}

func scanParkedSale(row pgx.CollectableRow) (parked.Sale, error) {
	var (
		s         parked.Sale
		linesJSON []byte
		subtotal  decimal.Decimal
		tax       decimal.Decimal
		discount  decimal.Decimal
	)
	err := row.Scan(
		&s.ID, &linesJSON, &s.CustomerID, &subtotal, &tax, &discount,
		&s.Notes, &s.ParkedAt, &s.ExpiresAt,
	)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(linesJSON, &s.Lines); err != nil {
		return s, fmt.Errorf("unmarshaling parked lines: %w", err)
	}
	s.Subtotal = subtotal
	s.Tax = tax
	s.Discount = discount
	return s, nil
}
