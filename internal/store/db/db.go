package db

import (
	"context"

	"github.com/uptrace/bun"

	"flowpass/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateStore(ctx context.Context, s models.Store) error {
	_, err := d.Bun.NewInsert().
		Model(&s).
		Exec(ctx)
	return err
}

func (d *DB) GetByStoreID(ctx context.Context, storeID string) (*models.Store, error) {
	var s models.Store
	err := d.Bun.NewSelect().
		Model(&s).
		Where("store_id = ?", storeID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (d *DB) ListByUser(ctx context.Context, userID string) ([]models.Store, error) {
	var stores []models.Store
	err := d.Bun.NewSelect().
		Model(&stores).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	return stores, err
}

func (d *DB) DeleteStore(ctx context.Context, storeID string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Store)(nil)).
		Where("store_id = ?", storeID).
		Exec(ctx)
	return err
}

func (d *DB) SetActive(ctx context.Context, storeID string, active bool) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Store)(nil)).
		Set("active = ?", active).
		Where("store_id = ?", storeID).
		Exec(ctx)
	return err
}
