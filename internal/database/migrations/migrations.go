package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"flowpass/internal/models"
)

// Run creates the schema if it does not exist. Passes are queried by store
// and creation time on every quota read, so that pair is indexed.
func Run(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*models.Store)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create stores table: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*models.Pass)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create passes table: %w", err)
	}

	if _, err := db.NewCreateIndex().
		Model((*models.Pass)(nil)).
		Index("idx_passes_store_created").
		Column("store_id", "created_at").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create pass index: %w", err)
	}

	return nil
}
