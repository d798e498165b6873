// Package scan resolves raw terminal input (a scanned barcode or typed text)
// to a catalog item. Resolution is an explicit ordered fallback chain:
// variant barcode, then product barcode, then first-match text search. Each
// step reports found, not-found, or a hard error; the driver stops on the
// first found or error and only advances past not-found. Absence of a match
// is a silent branch; only infrastructure failures surface as errors.
package scan

import (
	"context"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"

	"github.com/xenking/oolio-pos-terminal/internal/domain/catalog"
)

// ErrNoMatch is returned when the whole chain is exhausted. It maps to a
// user-visible "not found" message, never to an error log.
var ErrNoMatch = errors.New("no matching product or variant")

// Resolution is the single outcome of a resolve: either a variant with its
// parent product, or a plain product.
type Resolution struct {
	Product *catalog.Product
	// Variant is non-nil when a variant barcode matched; Product then holds
	// the parent.
	Variant *catalog.Variant
}

// step attempts one lookup strategy. A (nil, nil) return means not-found:
// the driver advances to the next step. Any error aborts the chain.
type step func(ctx context.Context, input string) (*Resolution, error)

// Resolver runs the fallback chain against the catalog.
type Resolver struct {
	catalog catalog.Repository
	// known is an optional bloom filter over every product and variant
	// barcode. A definite miss lets the resolver skip both barcode lookups
	// and go straight to text search. False positives only cost the lookups
	// that would have happened anyway.
	known *bloom.BloomFilter
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBarcodeIndex installs a prebuilt bloom filter of known barcodes.
func WithBarcodeIndex(filter *bloom.BloomFilter) Option {
	return func(r *Resolver) { r.known = filter }
}

// NewResolver creates a Resolver over the given catalog.
func NewResolver(repo catalog.Repository, opts ...Option) *Resolver {
	r := &Resolver{catalog: repo}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps input to exactly one of: variant+parent, product, or
// ErrNoMatch. Barcode steps only run for purely numeric input.
func (r *Resolver) Resolve(ctx context.Context, input string) (*Resolution, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrNoMatch
	}

	var steps []step
	if isNumeric(input) && r.mayExist(input) {
		steps = append(steps, r.variantByBarcode, r.productByBarcode)
	}
	steps = append(steps, r.searchByName)

	for _, s := range steps {
		res, err := s(ctx, input)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, ErrNoMatch
}

func (r *Resolver) variantByBarcode(ctx context.Context, code string) (*Resolution, error) {
	v, err := r.catalog.GetVariantByBarcode(ctx, code)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "variant lookup")
	}

	p, err := r.catalog.GetProductByID(ctx, v.ProductID)
	if err != nil {
		// A variant without its parent is a data integrity problem, not a
		// not-found branch.
		return nil, errors.Wrapf(err, "parent product %s for variant %s", v.ProductID, v.ID)
	}
	return &Resolution{Product: p, Variant: v}, nil
}

func (r *Resolver) productByBarcode(ctx context.Context, code string) (*Resolution, error) {
	p, err := r.catalog.GetProductByBarcode(ctx, code)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "product barcode lookup")
	}
	return &Resolution{Product: p}, nil
}

func (r *Resolver) searchByName(ctx context.Context, query string) (*Resolution, error) {
	p, err := r.catalog.SearchFirstActive(ctx, query)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "product search")
	}
	return &Resolution{Product: p}, nil
}

// mayExist consults the bloom filter. With no filter loaded every barcode
// may exist.
func (r *Resolver) mayExist(code string) bool {
	return r.known == nil || r.known.TestString(code)
}

func isNumeric(s string) bool {
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
