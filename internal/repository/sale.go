package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/oolio-pos-terminal/internal/domain/sale"
)

const createSaleSQL = `INSERT INTO sales
	(id, lines, subtotal, tax, discount, total, method, splits, customer_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10)
	RETURNING id`

var _ sale.Repository = (*SaleRepository)(nil)

// SaleRepository implements sale.Repository backed by PostgreSQL. The sale
// lines and payment splits are serialized to JSONB: the sale is an immutable
// denormalized record, never joined back to the catalog.
type SaleRepository struct {
	pool *pgxpool.Pool
}

// NewSaleRepository returns a SaleRepository that uses the given pool.
func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{pool: pool}
}

// Create persists a finalized sale and returns its receipt identifier.
func (r *SaleRepository) Create(ctx context.Context, s *sale.Sale) (string, error) {
	linesJSON, err := json.Marshal(s.Lines)
	if err != nil {
		return "", fmt.Errorf("marshaling sale lines: %w", err)
	}

	var splitsJSON []byte
	if len(s.Splits) > 0 {
		splitsJSON, err = json.Marshal(s.Splits)
		if err != nil {
			return "", fmt.Errorf("marshaling payment splits: %w", err)
		}
	}

	var receiptID string
	err = r.pool.QueryRow(ctx, createSaleSQL,
		s.ID, linesJSON, s.Subtotal, s.Tax, s.Discount, s.Total,
		string(s.Method), splitsJSON, s.CustomerID, s.CreatedAt,
	).Scan(&receiptID)
	if err != nil {
		return "", fmt.Errorf("creating sale %q: %w", s.ID, err)
	}

	return receiptID, nil
}
