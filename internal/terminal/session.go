// Package terminal implements the in-terminal sale construction flow: scans
// and selections build a cart, the pricing engine prices it on every read,
// payment finalizes it into a sale, and the parked-sale manager can snapshot
// it out and back in at any point before finalize.
package terminal

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-pos-terminal/internal/domain/cart"
	"github.com/xenking/oolio-pos-terminal/internal/domain/catalog"
	"github.com/xenking/oolio-pos-terminal/internal/domain/customer"
	"github.com/xenking/oolio-pos-terminal/internal/domain/parked"
	"github.com/xenking/oolio-pos-terminal/internal/domain/payment"
	"github.com/xenking/oolio-pos-terminal/internal/domain/pricing"
	"github.com/xenking/oolio-pos-terminal/internal/domain/sale"
	"github.com/xenking/oolio-pos-terminal/internal/scan"
)

var (
	// ErrOperationInProgress is returned when a second operation is submitted
	// while a payment, park, or resume is still in flight. One live cart, one
	// pending operation.
	ErrOperationInProgress = errors.New("another operation is in progress")
	// ErrEmptyCart rejects finalizing a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCartNotEmpty rejects resuming into a session that already holds lines.
	ErrCartNotEmpty = errors.New("cart must be empty before resuming a parked sale")
	// ErrNoCustomer rejects redeeming points with no customer attached.
	ErrNoCustomer = errors.New("no customer attached to this sale")
)

// Deps bundles the collaborators a session needs.
type Deps struct {
	Resolver  *scan.Resolver
	Catalog   catalog.Repository
	Customers customer.Repository
	Sales     sale.Repository
	Parked    *parked.Manager
	Engine    pricing.Engine
	Processor *payment.Processor
}

// Session owns one live cart for the duration of a terminal session. All
// operations are mutually exclusive: while one is awaiting a network call no
// other is accepted, which prevents a second concurrent finalize on the same
// cart.
type Session struct {
	ID        string
	CreatedAt time.Time

	deps  Deps
	store *cart.Store

	mu       sync.Mutex
	busy     bool
	discount decimal.Decimal
	customer *customer.Customer
}

// NewSession creates an empty session.
func NewSession(id string, deps Deps) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		deps:      deps,
		store:     cart.NewStore(),
		discount:  decimal.Zero,
	}
}

// begin marks the session busy; every exported operation acquires it so that
// an in-flight payment/park/resume (or any awaited lookup) excludes further
// submissions instead of queueing them.
func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrOperationInProgress
	}
	s.busy = true
	return nil
}

func (s *Session) end() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// Scan resolves raw input through the barcode/search chain and adds the
// resolved item to the cart. scan.ErrNoMatch passes through untouched so the
// caller can show a "not found" message rather than an error.
func (s *Session) Scan(ctx context.Context, input string) (cart.Cart, error) {
	if err := s.begin(); err != nil {
		return cart.Cart{}, err
	}
	defer s.end()

	res, err := s.deps.Resolver.Resolve(ctx, input)
	if err != nil {
		return s.store.Cart(), err
	}
	if err := s.store.AddItem(res.Product, res.Variant); err != nil {
		return s.store.Cart(), err
	}
	return s.store.Cart(), nil
}

// AddItem adds one unit of an explicitly selected product or variant, for
// click-to-add flows that bypass scanning.
func (s *Session) AddItem(ctx context.Context, productID, variantID string) (cart.Cart, error) {
	if err := s.begin(); err != nil {
		return cart.Cart{}, err
	}
	defer s.end()

	p, v, err := s.fetchItem(ctx, productID, variantID)
	if err != nil {
		return s.store.Cart(), err
	}
	if err := s.store.AddItem(p, v); err != nil {
		return s.store.Cart(), err
	}
	return s.store.Cart(), nil
}

// UpdateQuantity sets a line's quantity, re-reading the catalog first so the
// stock bound reflects current availability rather than the add-time
// snapshot. Zero or negative quantities remove the line.
func (s *Session) UpdateQuantity(ctx context.Context, key cart.Key, quantity int) (cart.Cart, error) {
	if err := s.begin(); err != nil {
		return cart.Cart{}, err
	}
	defer s.end()

	if quantity <= 0 {
		s.store.RemoveItem(key)
		return s.store.Cart(), nil
	}

	p, v, err := s.fetchItem(ctx, key.ProductID, key.VariantID)
	if err != nil {
		return s.store.Cart(), err
	}
	available := p.Stock
	if v != nil {
		available = v.Stock
	}
	if err := s.store.UpdateQuantity(key, quantity, available); err != nil {
		return s.store.Cart(), err
	}
	return s.store.Cart(), nil
}

// RemoveItem removes a line. No-op if absent.
func (s *Session) RemoveItem(key cart.Key) (cart.Cart, error) {
	if err := s.begin(); err != nil {
		return cart.Cart{}, err
	}
	defer s.end()

	s.store.RemoveItem(key)
	return s.store.Cart(), nil
}

// Clear abandons the cart: lines, customer, and pending discount.
func (s *Session) Clear() error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	s.reset()
	return nil
}

// AttachCustomer looks up a loyalty customer by phone and attaches them to
// the cart.
func (s *Session) AttachCustomer(ctx context.Context, phone string) (*customer.Customer, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	c, err := s.deps.Customers.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	s.customer = c
	s.store.AttachCustomer(c.ID)
	return c, nil
}

// RedeemPoints converts loyalty points into a discount on the current sale.
// The returned amount is added to any discount already pending.
func (s *Session) RedeemPoints(ctx context.Context, points int) (decimal.Decimal, error) {
	if err := s.begin(); err != nil {
		return decimal.Zero, err
	}
	defer s.end()

	if s.customer == nil {
		return decimal.Zero, ErrNoCustomer
	}
	amount, err := s.deps.Customers.RedeemPoints(ctx, s.customer.ID, points)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "redeem points")
	}

	s.mu.Lock()
	s.discount = s.discount.Add(amount)
	total := s.discount
	s.mu.Unlock()
	return total, nil
}

// Cart returns a snapshot of the live cart.
func (s *Session) Cart() cart.Cart {
	return s.store.Cart()
}

// fetchItem reads current product (and variant) state from the catalog.
func (s *Session) fetchItem(ctx context.Context, productID, variantID string) (*catalog.Product, *catalog.Variant, error) {
	p, err := s.deps.Catalog.GetProductByID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	if variantID == "" {
		return p, nil, nil
	}

	variants, err := s.deps.Catalog.GetVariantsForProduct(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	for i := range variants {
		if variants[i].ID == variantID {
			return p, &variants[i], nil
		}
	}
	return nil, nil, catalog.ErrNotFound
}

// reset empties the session state after a finalize, park, or explicit clear.
// Only called while the session is marked busy.
func (s *Session) reset() {
	s.store.Clear()
	s.mu.Lock()
	s.discount = decimal.Zero
	s.customer = nil
	s.mu.Unlock()
}
