package terminal

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-pos-terminal/internal/domain/cart"
	"github.com/xenking/oolio-pos-terminal/internal/domain/parked"
	"github.com/xenking/oolio-pos-terminal/internal/domain/payment"
	"github.com/xenking/oolio-pos-terminal/internal/domain/sale"
)

// LineTotals is a priced cart line: its subtotal, its tax, and its share of
// the loyalty discount.
type LineTotals struct {
	cart.Line
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
}

// Totals is the priced view of the cart, recomputed on every read.
type Totals struct {
	Lines    []LineTotals
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	// Total is the payable amount: subtotal + tax - discount, floored at zero.
	Total decimal.Decimal
}

// Totals prices the current cart.
func (s *Session) Totals() Totals {
	s.mu.Lock()
	discount := s.discount
	s.mu.Unlock()
	return s.price(s.store.Cart(), discount)
}

func (s *Session) price(c cart.Cart, discount decimal.Decimal) Totals {
	engine := s.deps.Engine

	t := Totals{
		Lines:    make([]LineTotals, len(c.Lines)),
		Subtotal: engine.Subtotal(c),
		Tax:      engine.Tax(c),
		Discount: discount,
	}

	shares := engine.DistributeDiscount(c, discount)
	for i, l := range c.Lines {
		lt := LineTotals{
			Line:     l,
			Subtotal: l.Subtotal(),
			Tax:      engine.LineTax(l),
		}
		if shares != nil {
			lt.Discount = shares[i]
		}
		t.Lines[i] = lt
	}

	t.Total = t.Subtotal.Add(t.Tax).Sub(discount)
	if t.Total.IsNegative() {
		t.Total = decimal.Zero
	}
	return t
}

// Receipt is the outcome of a finalized sale.
type Receipt struct {
	ReceiptID string
	Sale      *sale.Sale
	Change    decimal.Decimal
}

// CheckoutCash finalizes the sale with a single cash payment. cashReceived
// is the raw operator input.
func (s *Session) CheckoutCash(ctx context.Context, cashReceived string) (*Receipt, error) {
	return s.finalize(ctx, func(total decimal.Decimal) (*payment.Result, error) {
		return s.deps.Processor.ConfirmCash(total, cashReceived)
	})
}

// CheckoutCard finalizes the sale with a single card payment.
func (s *Session) CheckoutCard(ctx context.Context) (*Receipt, error) {
	return s.finalize(ctx, func(total decimal.Decimal) (*payment.Result, error) {
		return s.deps.Processor.ConfirmCard(total)
	})
}

// CheckoutSplit finalizes the sale with a multi-method payment.
func (s *Session) CheckoutSplit(ctx context.Context, splits []payment.Split) (*Receipt, error) {
	return s.finalize(ctx, func(total decimal.Decimal) (*payment.Result, error) {
		return s.deps.Processor.ConfirmSplit(total, splits)
	})
}

// finalize runs one payment attempt: price the cart, validate payment, hand
// the sale to persistence exactly once, then clear the session. Any failure
// leaves the cart, discount, and customer untouched so the attempt can be
// corrected and retried.
func (s *Session) finalize(ctx context.Context, confirm func(total decimal.Decimal) (*payment.Result, error)) (*Receipt, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	c := s.store.Cart()
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	s.mu.Lock()
	discount := s.discount
	s.mu.Unlock()
	totals := s.price(c, discount)

	result, err := confirm(totals.Total)
	if err != nil {
		return nil, err
	}

	lines := make([]sale.Line, len(totals.Lines))
	for i, lt := range totals.Lines {
		lines[i] = sale.Line{
			ProductID:   lt.ProductID,
			VariantID:   lt.VariantID,
			Name:        lt.Name,
			VariantName: lt.VariantName,
			SKU:         lt.SKU,
			Barcode:     lt.Barcode,
			Quantity:    lt.Quantity,
			UnitPrice:   lt.UnitPrice,
			TaxRate:     lt.TaxRate,
			Discount:    lt.Discount,
		}
	}

	finalized := &sale.Sale{
		ID:         uuid.New().String(),
		Lines:      lines,
		Subtotal:   totals.Subtotal,
		Tax:        totals.Tax,
		Discount:   totals.Discount,
		Total:      totals.Total,
		Method:     result.Method,
		Splits:     result.Splits,
		CustomerID: c.CustomerID,
		CreatedAt:  time.Now(),
	}

	receiptID, err := s.deps.Sales.Create(ctx, finalized)
	if err != nil {
		return nil, errors.Wrap(err, "create sale")
	}

	s.reset()
	return &Receipt{
		ReceiptID: receiptID,
		Sale:      finalized,
		Change:    result.Change,
	}, nil
}

// SeedSplits returns the initial split list for the split-payment dialog:
// one CASH split covering the current payable total.
func (s *Session) SeedSplits() []payment.Split {
	return s.deps.Processor.SeedSplits(s.Totals().Total)
}

// Park snapshots the live cart into a parked sale and empties the session.
// The cart survives untouched if persistence fails.
func (s *Session) Park(ctx context.Context, notes string) (*parked.Sale, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	s.mu.Lock()
	discount := s.discount
	s.mu.Unlock()

	ps, err := s.deps.Parked.Park(ctx, s.store.Cart(), discount, notes)
	if err != nil {
		return nil, err
	}
	s.reset()
	return ps, nil
}

// Resume rebuilds the live cart from a parked sale. The session must be
// empty; the parked snapshot's pending discount and customer reference are
// restored along with the lines. Works regardless of the advisory expiry.
func (s *Session) Resume(ctx context.Context, parkedID string) (cart.Cart, error) {
	if err := s.begin(); err != nil {
		return cart.Cart{}, err
	}
	defer s.end()

	if !s.store.Cart().IsEmpty() {
		return cart.Cart{}, ErrCartNotEmpty
	}

	ps, c, err := s.deps.Parked.Resume(ctx, parkedID)
	if err != nil {
		return cart.Cart{}, err
	}
	s.store.Replace(c)
	s.mu.Lock()
	s.discount = ps.Discount
	s.mu.Unlock()
	return s.store.Cart(), nil
}
