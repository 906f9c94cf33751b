package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Store is a venue's sellable-pass configuration. StoreID is the opaque
// public identifier used in URLs and payment metadata; it is distinct from
// the storage row id.
type Store struct {
	bun.BaseModel `bun:"table:stores"`

	ID        int64     `bun:"id,pk,autoincrement" json:"-"`
	StoreID   string    `bun:"store_id,unique,notnull" json:"store_id"`
	UserID    string    `bun:"user_id,notnull" json:"user_id"`
	Name      string    `bun:"name,notnull" json:"name"`
	StoreURL  string    `bun:"store_url" json:"store_url"`
	ImageURL  string    `bun:"image_url" json:"image_url"`
	Price     float64   `bun:"price,notnull" json:"price"`
	MaxPasses int       `bun:"max_passes,notnull" json:"max_passes"`
	Active    bool      `bun:"active" json:"active"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

type CreateStoreRequest struct {
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	MaxPasses int     `json:"max_passes"`
}

// StoreStats is the per-venue dashboard block for the current sales day.
type StoreStats struct {
	StoreID         string    `json:"store_id"`
	WindowStart     time.Time `json:"window_start"`
	UnitsSold       int       `json:"units_sold"`
	RemainingPasses int       `json:"remaining_passes"`
	DailyProfit     float64   `json:"daily_profit"`
	RecentPasses    []Pass    `json:"recent_passes"`
}
