package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-pos-terminal/internal/domain/customer"
)

const (
	getCustomerByPhoneSQL = `SELECT id, name, phone, points FROM customers WHERE phone = $1`

	// Debits points only when the balance covers them; RowsAffected tells us
	// whether the redemption went through.
	redeemPointsSQL = `UPDATE customers SET points = points - $2
		WHERE id = $1 AND points >= $2`
)

// ErrInsufficientPoints is returned when a redemption exceeds the customer's
// balance.
var ErrInsufficientPoints = errors.New("insufficient loyalty points")

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
	// pointValue is the monetary value of one loyalty point.
	pointValue decimal.Decimal
}

// NewCustomerRepository returns a CustomerRepository converting points at the
// given per-point monetary value.
func NewCustomerRepository(pool *pgxpool.Pool, pointValue decimal.Decimal) *CustomerRepository {
	return &CustomerRepository{pool: pool, pointValue: pointValue}
}

// GetByPhone returns the customer with the given phone number.
func (r *CustomerRepository) GetByPhone(ctx context.Context, phone string) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, getCustomerByPhoneSQL, phone)
	if err != nil {
		return nil, fmt.Errorf("getting customer by phone %q: %w", phone, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (customer.Customer, error) {
		var c customer.Customer
		err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Points)
		return c, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer by phone %q: %w", phone, err)
	}
	return &c, nil
}

// RedeemPoints debits the customer's balance and returns the discount the
// points are worth.
func (r *CustomerRepository) RedeemPoints(ctx context.Context, customerID string, points int) (decimal.Decimal, error) {
	if points <= 0 {
		return decimal.Zero, errors.Errorf("points must be positive, got %d", points)
	}

	tag, err := r.pool.Exec(ctx, redeemPointsSQL, customerID, points)
	if err != nil {
		return decimal.Zero, fmt.Errorf("redeeming %d points for customer %q: %w", points, customerID, err)
	}
	if tag.RowsAffected() == 0 {
		return decimal.Zero, ErrInsufficientPoints
	}

	return r.pointValue.Mul(decimal.NewFromInt(int64(points))), nil
}
