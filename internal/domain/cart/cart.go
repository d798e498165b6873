// Package cart holds the live cart for a terminal session: an ordered set of
// lines keyed by (product, variant), with stock-bound mutations.
package cart

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Key identifies a cart line. VariantID is empty for plain product lines.
// Two lines never share a key; adding the same key merges quantities.
type Key struct {
	ProductID string
	VariantID string
}

func (k Key) String() string {
	if k.VariantID == "" {
		return k.ProductID
	}
	return k.ProductID + "/" + k.VariantID
}

// Line is a single cart entry. UnitPrice and TaxRate are snapshots taken when
// the line was created and never change afterwards; changing a price means
// removing and re-adding the line. Available is the stock known at the last
// mutation touching this line.
type Line struct {
	ProductID   string
	VariantID   string
	Name        string
	VariantName string
	SKU         string
	Barcode     string
	Quantity    int
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal
	Available   int
}

// Key returns the line's identity key.
func (l Line) Key() Key {
	return Key{ProductID: l.ProductID, VariantID: l.VariantID}
}

// Subtotal is quantity x unit price. Tax is computed separately by the
// pricing engine, never baked into the line.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// DisplayName combines the product and variant names for receipts and
// parked-sale snapshots.
func (l Line) DisplayName() string {
	if l.VariantName == "" {
		return l.Name
	}
	return fmt.Sprintf("%s (%s)", l.Name, l.VariantName)
}

// Cart is the ordered line sequence plus an optional customer attachment.
// Insertion order is load-bearing: proportional discount distribution walks
// lines in order and the last line absorbs the rounding remainder.
type Cart struct {
	Lines      []Line
	CustomerID string
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Subtotal sums line subtotals over the whole cart.
func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}
