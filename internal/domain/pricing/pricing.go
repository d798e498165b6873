// Package pricing computes cart totals. Everything here is a pure function of
// a cart snapshot; nothing mutates state or touches the network.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-pos-terminal/internal/domain/cart"
)

var hundred = decimal.NewFromInt(100)

// Engine carries the currency's minor-unit exponent (2 for cents). It is
// injected configuration, not ambient state, so the engine stays independent
// of whatever settings mechanism the surrounding application uses.
type Engine struct {
	exponent int32
}

// NewEngine returns an Engine rounding to the given minor-unit exponent.
func NewEngine(minorUnitExponent int32) Engine {
	return Engine{exponent: minorUnitExponent}
}

// Subtotal is the sum of line subtotals (quantity x unit price).
func (e Engine) Subtotal(c cart.Cart) decimal.Decimal {
	return c.Subtotal()
}

// LineTax is the tax for a single line, rounded to the minor unit. Tax is
// computed per line, not on the aggregate, so carts mixing tax rates sum
// correctly.
func (e Engine) LineTax(l cart.Line) decimal.Decimal {
	return e.round(l.Subtotal().Mul(l.TaxRate).Div(hundred))
}

// Tax sums per-line taxes over the cart.
func (e Engine) Tax(c cart.Cart) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(e.LineTax(l))
	}
	return sum
}

// Total is subtotal plus tax.
func (e Engine) Total(c cart.Cart) decimal.Decimal {
	return e.Subtotal(c).Add(e.Tax(c))
}

// DistributeDiscount allocates amount across the cart's lines in proportion
// to each line's share of the subtotal. Every share except the last is
// rounded to the minor unit before accumulation; the last line receives
// whatever remains. The returned shares therefore sum to amount exactly, with
// no rounding drift, which is what makes the displayed breakdown match the
// discount actually charged.
//
// Returns one amount per line, in line order. An empty cart yields nil.
func (e Engine) DistributeDiscount(c cart.Cart, amount decimal.Decimal) []decimal.Decimal {
	n := len(c.Lines)
	if n == 0 {
		return nil
	}

	shares := make([]decimal.Decimal, n)
	subtotal := c.Subtotal()
	allocated := decimal.Zero

	for i, l := range c.Lines[:n-1] {
		share := decimal.Zero
		if subtotal.IsPositive() {
			share = e.round(amount.Mul(l.Subtotal()).Div(subtotal))
		}
		shares[i] = share
		allocated = allocated.Add(share)
	}

	// The last line absorbs the remainder.
	shares[n-1] = amount.Sub(allocated)
	return shares
}

// ChangeDue is the cash to hand back: max(0, received - total).
func (e Engine) ChangeDue(received, total decimal.Decimal) decimal.Decimal {
	change := received.Sub(total)
	if change.IsNegative() {
		return decimal.Zero
	}
	return change
}

func (e Engine) round(d decimal.Decimal) decimal.Decimal {
	return d.Round(e.exponent)
}
