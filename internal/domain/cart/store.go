package cart

import (
	"fmt"
	"sync"

	"github.com/xenking/oolio-pos-terminal/internal/domain/catalog"
)

// StockError reports a mutation that would exceed the available stock.
// Recoverable: the cashier lowers the quantity or removes the line.
type StockError struct {
	Key       Key
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.Key, e.Requested, e.Available)
}

// Store owns the live cart for one terminal session. The session serializes
// mutations (one user action at a time, per the terminal's event model), but
// reads arrive concurrently from totals rendering, so every access goes
// through the store's lock.
type Store struct {
	mu   sync.RWMutex
	cart Cart
}

// NewStore returns a Store with an empty cart.
func NewStore() *Store {
	return &Store{}
}

// AddItem adds one unit of the given product (or variant of it) to the cart.
// An existing line with the same identity key is merged by incrementing its
// quantity; otherwise a new line is appended at the item's current selling
// price and tax rate. Stock is checked against the snapshot carried by the
// passed product/variant, which the caller fetched for this mutation.
func (s *Store) AddItem(p *catalog.Product, v *catalog.Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key{ProductID: p.ID}
	stock := p.Stock
	if v != nil {
		key.VariantID = v.ID
		stock = v.Stock
	}

	if stock <= 0 {
		return &StockError{Key: key, Requested: 1, Available: stock}
	}

	if i := s.index(key); i >= 0 {
		line := &s.cart.Lines[i]
		if line.Quantity+1 > stock {
			return &StockError{Key: key, Requested: line.Quantity + 1, Available: stock}
		}
		line.Quantity++
		line.Available = stock
		return nil
	}

	line := Line{
		ProductID: p.ID,
		Name:      p.Name,
		SKU:       p.SKU,
		Barcode:   p.Barcode,
		Quantity:  1,
		UnitPrice: p.Price,
		TaxRate:   p.TaxRate,
		Available: stock,
	}
	if v != nil {
		line.VariantID = v.ID
		line.VariantName = v.Name
		line.Barcode = v.Barcode
		line.UnitPrice = v.Price
	}
	s.cart.Lines = append(s.cart.Lines, line)
	return nil
}

// UpdateQuantity overwrites the quantity of the line with the given key.
// A quantity of zero or less removes the line. available is the stock the
// caller just re-read from the catalog for this mutation.
func (s *Store) UpdateQuantity(key Key, quantity, available int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.remove(key)
		return nil
	}

	i := s.index(key)
	if i < 0 {
		return nil
	}
	if quantity > available {
		return &StockError{Key: key, Requested: quantity, Available: available}
	}
	s.cart.Lines[i].Quantity = quantity
	s.cart.Lines[i].Available = available
	return nil
}

// RemoveItem removes the line with the given key. No-op if absent.
func (s *Store) RemoveItem(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(key)
}

func (s *Store) remove(key Key) {
	i := s.index(key)
	if i < 0 {
		return
	}
	s.cart.Lines = append(s.cart.Lines[:i], s.cart.Lines[i+1:]...)
}

// Clear empties the cart and detaches any customer reference.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = Cart{}
}

// AttachCustomer associates a customer with the cart.
func (s *Store) AttachCustomer(customerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.CustomerID = customerID
}

// Replace swaps the whole cart, used when resuming a parked sale.
func (s *Store) Replace(c Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = Cart{Lines: append([]Line(nil), c.Lines...), CustomerID: c.CustomerID}
}

// Cart returns a copy of the current cart. Mutating the copy does not affect
// the store.
func (s *Store) Cart() Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Cart{
		Lines:      append([]Line(nil), s.cart.Lines...),
		CustomerID: s.cart.CustomerID,
	}
}

func (s *Store) index(key Key) int {
	for i, l := range s.cart.Lines {
		if l.Key() == key {
			return i
		}
	}
	return -1
}
