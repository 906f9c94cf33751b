package db

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"flowpass/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// CreatePass inserts a pass keyed by its pre-generated public id. A second
// insert with the same pass id is a no-op, which makes issuing idempotent on
// the payment reference. Returns whether a row was actually written.
func (d *DB) CreatePass(ctx context.Context, p models.Pass) (bool, error) {
	res, err := d.Bun.NewInsert().
		Model(&p).
		On("CONFLICT (pass_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (d *DB) GetByPassID(ctx context.Context, passID string) (*models.Pass, error) {
	var p models.Pass
	err := d.Bun.NewSelect().
		Model(&p).
		Where("pass_id = ?", passID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SumQuantitySince totals pass units sold for a store from the window
// boundary onward. The boundary instant itself is included.
func (d *DB) SumQuantitySince(ctx context.Context, storeID string, since time.Time) (int, error) {
	var total int
	err := d.Bun.NewSelect().
		Model((*models.Pass)(nil)).
		ColumnExpr("COALESCE(SUM(quantity), 0)").
		Where("store_id = ?", storeID).
		Where("created_at >= ?", since).
		Scan(ctx, &total)
	return total, err
}

func (d *DB) ListByStore(ctx context.Context, storeID string) ([]models.Pass, error) {
	var passes []models.Pass
	err := d.Bun.NewSelect().
		Model(&passes).
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Scan(ctx)
	return passes, err
}

func (d *DB) ListByStores(ctx context.Context, storeIDs []string) ([]models.Pass, error) {
	if len(storeIDs) == 0 {
		return nil, nil
	}
	var passes []models.Pass
	err := d.Bun.NewSelect().
		Model(&passes).
		Where("store_id IN (?)", bun.In(storeIDs)).
		Order("created_at DESC").
		Scan(ctx)
	return passes, err
}

func (d *DB) RecentByStore(ctx context.Context, storeID string, limit int) ([]models.Pass, error) {
	var passes []models.Pass
	err := d.Bun.NewSelect().
		Model(&passes).
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	return passes, err
}

// MarkRedeemed flips a pass to used only if it is still active. The
// rows-affected count tells the caller whether it won the race; zero means
// another scan got there first.
func (d *DB) MarkRedeemed(ctx context.Context, passID string, usedAt time.Time) (int64, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Pass)(nil)).
		Set("active = ?", false).
		Set("used_at = ?", usedAt).
		Where("pass_id = ?", passID).
		Where("active = ?", true).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
