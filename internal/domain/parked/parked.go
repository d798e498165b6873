// Package parked implements the parked-sale lifecycle: snapshot a cart out of
// the terminal, list and resume suspended sales, delete them explicitly.
// Expiry is advisory only; a parked sale is resumable at any time.
package parked

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TTL is the advisory lifetime of a parked sale. After it passes the UI shows
// "Expired (Still Resumable)"; nothing is deleted automatically.
const TTL = 7 * 24 * time.Hour

// Line is a denormalized snapshot of a cart line. Display fields are copied,
// not referenced, so the parked record survives catalog edits.
type Line struct {
	ProductID   string          `json:"product_id"`
	VariantID   string          `json:"variant_id,omitempty"`
	Name        string          `json:"name"`
	VariantName string          `json:"variant_name,omitempty"`
	SKU         string          `json:"sku,omitempty"`
	Barcode     string          `json:"barcode,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// Sale is a suspended cart.
type Sale struct {
	ID         string
	Lines      []Line
	CustomerID string
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Discount   decimal.Decimal
	Notes      string
	ParkedAt   time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the advisory expiry has passed at the given time.
// It gates nothing; resume works regardless.
func (s *Sale) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Repository persists parked sales.
type Repository interface {
	Create(ctx context.Context, s *Sale) error
	List(ctx context.Context) ([]Sale, error)
	Get(ctx context.Context, id string) (*Sale, error)
	Delete(ctx context.Context, id string) error
}
