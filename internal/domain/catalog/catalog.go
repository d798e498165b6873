// Package catalog defines the read-only product catalog contract consumed by
// the terminal. Stock, selling price, and tax rate returned by lookups are a
// point-in-time snapshot; the terminal re-reads them on every cart mutation.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a lookup matches nothing. Callers treat it as
// a normal branch, not a failure.
var ErrNotFound = errors.New("catalog: not found")

// Product is a sellable catalog item.
type Product struct {
	ID       string
	Name     string
	SKU      string
	Barcode  string
	Category string
	Price    decimal.Decimal
	TaxRate  decimal.Decimal
	Stock    int
	Active   bool
}

// Variant is a concrete variation of a product (size, colour) with its own
// barcode, price, and stock. Tax rate always comes from the parent product.
type Variant struct {
	ID        string
	ProductID string
	Name      string
	Barcode   string
	Price     decimal.Decimal
	Stock     int
}

// Repository provides catalog lookups. Implementations return ErrNotFound
// for absent rows and wrap everything else as infrastructure failures.
type Repository interface {
	GetProductByID(ctx context.Context, id string) (*Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*Product, error)
	// SearchFirstActive returns the first active product whose name matches
	// the query, or ErrNotFound.
	SearchFirstActive(ctx context.Context, query string) (*Product, error)
	GetVariantByBarcode(ctx context.Context, barcode string) (*Variant, error)
	GetVariantsForProduct(ctx context.Context, productID string) ([]Variant, error)
}
