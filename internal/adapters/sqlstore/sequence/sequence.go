package sequence

import (
	"context"
	"fmt"

	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
)

// Generator keeps named counters in the sequences table.
type Generator struct {
	db *sqldb.DB
}

func NewGenerator(db *sqldb.DB) *Generator {
	return &Generator{db: db}
}

func (g *Generator) Next(ctx context.Context, name string) (int64, error) {
	var n int64
	err := g.db.QueryRowContext(ctx, `
		INSERT INTO sequences (name, value) VALUES (?, 1)
		ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
		RETURNING value
	`, name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next %s: %w", name, err)
	}
	return n, nil
}
