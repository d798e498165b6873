// Package customer defines the loyalty collaborator contract. The discount
// amount returned by RedeemPoints is an opaque scalar to the terminal; the
// pricing engine only distributes it across lines for display.
package customer

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no customer matches the lookup.
var ErrNotFound = errors.New("customer not found")

// Customer is a loyalty-program member.
type Customer struct {
	ID     string
	Name   string
	Phone  string
	Points int
}

// Repository provides customer lookup and loyalty redemption.
type Repository interface {
	GetByPhone(ctx context.Context, phone string) (*Customer, error)
	// RedeemPoints converts points into a monetary discount and debits the
	// customer's balance. The conversion rate lives with the collaborator.
	RedeemPoints(ctx context.Context, customerID string, points int) (decimal.Decimal, error)
}
