// Package sale defines the finalized sale handed to persistence. A Sale is
// created only after payment validation succeeds and is immutable from the
// terminal's perspective afterwards.
package sale

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-pos-terminal/internal/domain/payment"
)

// Line is a denormalized sale line: display fields are copied from the cart
// so the record stays meaningful if the catalog changes later. Discount is
// this line's share of the loyalty discount, allocated by the pricing engine.
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
	Discount    decimal.Decimal `json:"discount"`
}

// Sale is a completed transaction.
type Sale struct {
	ID         string
	Lines      []Line
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Discount   decimal.Decimal
	Total      decimal.Decimal
	Method     payment.Method
	Splits     []payment.Split
	CustomerID string
	CreatedAt  time.Time
}

// Repository persists finalized sales. Create is called exactly once per
// successful payment and returns the receipt identifier. The terminal never
// retries on failure; it surfaces the error and keeps the cart intact so the
// cashier can retry manually.
type Repository interface {
	Create(ctx context.Context, s *Sale) (receiptID string, err error)
}
