package parked

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-pos-terminal/internal/domain/cart"
	"github.com/xenking/oolio-pos-terminal/internal/domain/pricing"
)

// ErrEmptyCart is returned when parking a cart with no lines.
var ErrEmptyCart = errors.New("cannot park an empty cart")

// Manager owns parked snapshots from park until resume or delete.
type Manager struct {
	repo   Repository
	engine pricing.Engine
	now    func() time.Time
	newID  func() string
}

// NewManager creates a Manager backed by the given repository.
func NewManager(repo Repository, engine pricing.Engine) *Manager {
	return &Manager{
		repo:   repo,
		engine: engine,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// Park snapshots the cart into a suspended sale and persists it. The cart
// must be non-empty. Totals are computed and stored denormalized so the
// parked list can render without touching the catalog. The caller clears the
// live cart only after Park returns successfully.
func (m *Manager) Park(ctx context.Context, c cart.Cart, discount decimal.Decimal, notes string) (*Sale, error) {
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	lines := make([]Line, len(c.Lines))
	for i, l := range c.Lines {
		lines[i] = Line{
			ProductID:   l.ProductID,
			VariantID:   l.VariantID,
			Name:        l.Name,
			VariantName: l.VariantName,
			SKU:         l.SKU,
			Barcode:     l.Barcode,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TaxRate:     l.TaxRate,
		}
	}

	parkedAt := m.now()
	s := &Sale{
		ID:         m.newID(),
		Lines:      lines,
		CustomerID: c.CustomerID,
		Subtotal:   m.engine.Subtotal(c),
		Tax:        m.engine.Tax(c),
		Discount:   discount,
		Notes:      notes,
		ParkedAt:   parkedAt,
		ExpiresAt:  parkedAt.Add(TTL),
	}

	if err := m.repo.Create(ctx, s); err != nil {
		return nil, errors.Wrap(err, "persist parked sale")
	}
	return s, nil
}

// Resume loads a parked sale and reconstructs a live cart from its snapshot.
// Expiry is not checked: resuming must succeed even past ExpiresAt. Stock is
// not re-validated here either: each line's available count is seeded with
// its own quantity and the next mutation re-reads the catalog.
func (m *Manager) Resume(ctx context.Context, id string) (*Sale, cart.Cart, error) {
	s, err := m.repo.Get(ctx, id)
	if err != nil {
		return nil, cart.Cart{}, errors.Wrap(err, "load parked sale")
	}

	lines := make([]cart.Line, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = cart.Line{
			ProductID:   l.ProductID,
			VariantID:   l.VariantID,
			Name:        l.Name,
			VariantName: l.VariantName,
			SKU:         l.SKU,
			Barcode:     l.Barcode,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TaxRate:     l.TaxRate,
			Available:   l.Quantity,
		}
	}

	return s, cart.Cart{Lines: lines, CustomerID: s.CustomerID}, nil
}

// List returns all parked sales, newest first.
func (m *Manager) List(ctx context.Context) ([]Sale, error) {
	return m.repo.List(ctx)
}

// Delete permanently removes a parked sale. Confirmation is a UI concern.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.repo.Delete(ctx, id)
}
