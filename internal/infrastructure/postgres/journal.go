package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/ec-store/internal/domain/inventory"
)

// Journal appends stock movements to the stock_movements table.
type Journal struct {
	db *sql.DB
}

func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

func (j *Journal) Record(ctx context.Context, m inventory.Movement) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO stock_movements (id, product_id, kind, quantity, ref, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.ProductID, string(m.Kind), m.Quantity, m.Ref, m.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}
	return nil
}

// ListByRef returns the movements recorded for one order, oldest first.
func (j *Journal) ListByRef(ctx context.Context, ref string) ([]inventory.Movement, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, product_id, kind, quantity, ref, occurred_at
		 FROM stock_movements WHERE ref = $1 ORDER BY occurred_at, id`,
		ref,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock movements: %w", err)
	}
	defer rows.Close()

	var movements []inventory.Movement
	for rows.Next() {
		var m inventory.Movement
		var kind string
		if err := rows.Scan(&m.ID, &m.ProductID, &kind, &m.Quantity, &m.Ref, &m.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		m.Kind = inventory.MovementKind(kind)
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// NetChange sums the signed deltas recorded for a product.
func (j *Journal) NetChange(ctx context.Context, productID string) (int, error) {
	var net int
	err := j.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE WHEN kind = 'reserved' THEN -quantity ELSE quantity END), 0)
		 FROM stock_movements WHERE product_id = $1`,
		productID,
	).Scan(&net)
	if err != nil {
		return 0, fmt.Errorf("failed to sum stock movements: %w", err)
	}
	return net, nil
}
