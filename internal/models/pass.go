package models

import (
	"time"

	"github.com/uptrace/bun"
)

// PassStatus is derived from stored fields plus the clock. EXPIRED is never
// persisted; a pass past its expiry reads as expired regardless of the
// stored active flag.
type PassStatus string

const (
	PassPending  PassStatus = "PENDING"
	PassActive   PassStatus = "ACTIVE"
	PassRedeemed PassStatus = "REDEEMED"
	PassExpired  PassStatus = "EXPIRED"
)

// Pass is a purchased, time-boxed entry credential for one party at one
// venue. PassID is pre-generated before payment and carried through the
// payment processor's metadata, so issuing is idempotent on it.
type Pass struct {
	bun.BaseModel `bun:"table:passes"`

	ID              int64      `bun:"id,pk,autoincrement" json:"-"`
	PassID          string     `bun:"pass_id,unique,notnull" json:"pass_id"`
	StoreID         string     `bun:"store_id,notnull" json:"store_id"`
	Quantity        int        `bun:"quantity,notnull" json:"quantity"`
	Active          bool       `bun:"active" json:"active"`
	CreatedAt       time.Time  `bun:"created_at,notnull" json:"created_at"`
	ExpiresAt       time.Time  `bun:"expires_at,notnull" json:"expires_at"`
	UsedAt          *time.Time `bun:"used_at,nullzero" json:"used_at,omitempty"`
	PaymentIntentID string     `bun:"payment_intent_id" json:"payment_intent_id"`
	CustomerName    string     `bun:"customer_name" json:"customer_name,omitempty"`
	CustomerEmail   string     `bun:"customer_email" json:"customer_email,omitempty"`
	CustomerPhone   string     `bun:"customer_phone" json:"customer_phone,omitempty"`
	ProductType     string     `bun:"product_type" json:"product_type"`
	PassName        string     `bun:"pass_name" json:"pass_name"`
	ServiceFee      float64    `bun:"service_fee" json:"service_fee"`
	TipAmount       float64    `bun:"tip_amount" json:"tip_amount"`
	TotalAmount     float64    `bun:"total_amount" json:"total_amount"`
}

// StatusAt derives the lifecycle state at the given instant.
func (p *Pass) StatusAt(now time.Time) PassStatus {
	if p.UsedAt != nil || !p.Active {
		return PassRedeemed
	}
	if !now.Before(p.ExpiresAt) {
		return PassExpired
	}
	return PassActive
}

// Redeemed reports whether the pass has been marked used.
func (p *Pass) Redeemed() bool {
	return p.UsedAt != nil
}
