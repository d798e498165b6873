package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-pos-terminal/internal/domain/catalog"
)

const (
	productColumns = `id, name, sku, barcode, category, price, tax_rate, stock, active`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductByBarcodeSQL = `SELECT ` + productColumns + ` FROM products WHERE barcode = $1`

	searchFirstActiveSQL = `SELECT ` + productColumns + ` FROM products
		WHERE active AND name ILIKE '%' || $1 || '%'
		ORDER BY name LIMIT 1`

	variantColumns = `id, product_id, name, barcode, price, stock`

	getVariantByBarcodeSQL = `SELECT ` + variantColumns + ` FROM variants WHERE barcode = $1`

	getVariantsForProductSQL = `SELECT ` + variantColumns + ` FROM variants
		WHERE product_id = $1 ORDER BY name`

	listBarcodesSQL = `SELECT barcode FROM products WHERE barcode <> ''
		UNION ALL
		SELECT barcode FROM variants WHERE barcode <> ''`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// GetProductByID returns a single product by its identifier.
func (r *CatalogRepository) GetProductByID(ctx context.Context, id string) (*catalog.Product, error) {
	return r.oneProduct(ctx, getProductByIDSQL, id)
}

// GetProductByBarcode returns the product carrying the given barcode.
func (r *CatalogRepository) GetProductByBarcode(ctx context.Context, barcode string) (*catalog.Product, error) {
	return r.oneProduct(ctx, getProductByBarcodeSQL, barcode)
}

// SearchFirstActive returns the first active product whose name matches the
// query, by name order.
func (r *CatalogRepository) SearchFirstActive(ctx context.Context, query string) (*catalog.Product, error) {
	return r.oneProduct(ctx, searchFirstActiveSQL, query)
}

// GetVariantByBarcode returns the variant carrying the given barcode.
func (r *CatalogRepository) GetVariantByBarcode(ctx context.Context, barcode string) (*catalog.Variant, error) {
	rows, err := r.pool.Query(ctx, getVariantByBarcodeSQL, barcode)
	if err != nil {
		return nil, fmt.Errorf("getting variant by barcode %q: %w", barcode, err)
	}

	v, err := pgx.CollectExactlyOneRow(rows, scanVariant)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting variant by barcode %q: %w", barcode, err)
	}
	return &v, nil
}

// GetVariantsForProduct returns all variants of a product, by name.
func (r *CatalogRepository) GetVariantsForProduct(ctx context.Context, productID string) ([]catalog.Variant, error) {
	rows, err := r.pool.Query(ctx, getVariantsForProductSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("listing variants for product %q: %w", productID, err)
	}
	return pgx.CollectRows(rows, scanVariant)
}

// ListBarcodes streams every known product and variant barcode, used to
// build the resolver's bloom index at startup.
func (r *CatalogRepository) ListBarcodes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listBarcodesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing barcodes: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var b string
		err := row.Scan(&b)
		return b, err
	})
}

func (r *CatalogRepository) oneProduct(ctx context.Context, sql string, arg any) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("querying product: %w", err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("querying product: %w", err)
	}
	return &p, nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var (
		p       catalog.Product
		price   decimal.Decimal
		taxRate decimal.Decimal
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.SKU, &p.Barcode, &p.Category,
		&price, &taxRate, &p.Stock, &p.Active,
	)
	p.Price = price
	p.TaxRate = taxRate
	return p, err
}

func scanVariant(row pgx.CollectableRow) (catalog.Variant, error) {
	var (
		v     catalog.Variant
		price decimal.Decimal
	)
	err := row.Scan(&v.ID, &v.ProductID, &v.Name, &v.Barcode, &price, &v.Stock)
	v.Price = price
	return v, err
}
