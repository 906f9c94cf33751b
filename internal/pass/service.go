package pass

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"flowpass/internal/logger"
	"flowpass/internal/models"
)

type DBLayer interface {
	CreatePass(ctx context.Context, p models.Pass) (bool, error)
	GetByPassID(ctx context.Context, passID string) (*models.Pass, error)
	SumQuantitySince(ctx context.Context, storeID string, since time.Time) (int, error)
	ListByStore(ctx context.Context, storeID string) ([]models.Pass, error)
	RecentByStore(ctx context.Context, storeID string, limit int) ([]models.Pass, error)
	MarkRedeemed(ctx context.Context, passID string, usedAt time.Time) (int64, error)
}

type StoreReader interface {
	GetByStoreID(ctx context.Context, storeID string) (*models.Store, error)
}

// RedemptionLocker fences near-simultaneous door scans before the database
// conditional update settles the race. A claim taken for a write that then
// fails must be released, or retries are locked out for the claim TTL.
type RedemptionLocker interface {
	ClaimRedemption(ctx context.Context, passID string) (bool, error)
	ReleaseClaim(ctx context.Context, passID string) error
}

type Publisher interface {
	PublishPassRedeemed(p models.Pass) error
}

type Service struct {
	DB     DBLayer
	Stores StoreReader
	Locker RedemptionLocker
	Events Publisher
	logger *logger.Logger
}

func NewService(db DBLayer, stores StoreReader, locker RedemptionLocker, events Publisher, log *logger.Logger) *Service {
	return &Service{DB: db, Stores: stores, Locker: locker, Events: events, logger: log}
}

// ValidationResult reports whether a pass admits entry right now, and which
// condition failed when it does not.
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Status  models.PassStatus `json:"status"`
	Message string            `json:"message"`
	Pass    *models.Pass      `json:"pass,omitempty"`
}

const (
	msgValid    = "Pass is valid"
	msgExpired  = "Pass has expired"
	msgNotFound = "Pass not found or inactive"
)

func (s *Service) Get(ctx context.Context, passID string) (*models.Pass, error) {
	p, err := s.DB.GetByPassID(ctx, passID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pass %s: %w", passID, err)
	}
	return p, nil
}

// Remaining computes passes still sellable for the store in the current
// sales-day window. The result may be zero or negative when oversold; the
// caller treats that as sold out, not an error. The boundary used is
// returned for display.
func (s *Service) Remaining(ctx context.Context, store *models.Store, now time.Time) (int, time.Time, error) {
	start := SalesDayStart(now)
	sold, err := s.DB.SumQuantitySince(ctx, store.StoreID, start)
	if err != nil {
		return 0, start, fmt.Errorf("failed to sum passes for store %s: %w", store.StoreID, err)
	}
	return store.MaxPasses - sold, start, nil
}

// DailyStats is the dashboard block: units sold and profit since the last
// 08:00 boundary, plus the most recent passes.
func (s *Service) DailyStats(ctx context.Context, store *models.Store, now time.Time) (*models.StoreStats, error) {
	start := SalesDayStart(now)
	sold, err := s.DB.SumQuantitySince(ctx, store.StoreID, start)
	if err != nil {
		return nil, fmt.Errorf("failed to sum passes for store %s: %w", store.StoreID, err)
	}

	recent, err := s.DB.RecentByStore(ctx, store.StoreID, 5)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent passes for store %s: %w", store.StoreID, err)
	}

	return &models.StoreStats{
		StoreID:         store.StoreID,
		WindowStart:     start,
		UnitsSold:       sold,
		RemainingPasses: store.MaxPasses - sold,
		DailyProfit:     float64(sold) * store.Price,
		RecentPasses:    recent,
	}, nil
}

// Validate composes the three entry conditions: pass active, not yet at the
// expiry boundary, and store active. Missing pass and missing store report
// identically.
func (s *Service) Validate(ctx context.Context, passID string, now time.Time) (*ValidationResult, error) {
	p, err := s.DB.GetByPassID(ctx, passID)
	if errors.Is(err, sql.ErrNoRows) {
		return &ValidationResult{Valid: false, Message: msgNotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pass %s: %w", passID, err)
	}

	status := p.StatusAt(now)
	switch status {
	case models.PassRedeemed:
		return &ValidationResult{Valid: false, Status: status, Message: msgNotFound, Pass: p}, nil
	case models.PassExpired:
		return &ValidationResult{Valid: false, Status: status, Message: msgExpired, Pass: p}, nil
	}

	store, err := s.Stores.GetByStoreID(ctx, p.StoreID)
	if errors.Is(err, sql.ErrNoRows) {
		return &ValidationResult{Valid: false, Status: status, Message: msgNotFound, Pass: p}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch store %s: %w", p.StoreID, err)
	}
	if !store.Active {
		return &ValidationResult{Valid: false, Status: status, Message: msgNotFound, Pass: p}, nil
	}

	return &ValidationResult{Valid: true, Status: status, Message: msgValid, Pass: p}, nil
}

// Redeem marks a pass used after a scan of the venue's code. The write is a
// conditional update so a racing second scan loses with ErrAlreadyUsed
// instead of silently overwriting. One-way; nothing un-redeems a pass.
func (s *Service) Redeem(ctx context.Context, passID, scannedData string, now time.Time) (*models.Pass, error) {
	p, err := s.DB.GetByPassID(ctx, passID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pass %s: %w", passID, err)
	}

	scannedStore := ScannedStoreID(scannedData)
	if scannedStore == "" || scannedStore != p.StoreID {
		return nil, ErrInvalidStore
	}

	switch p.StatusAt(now) {
	case models.PassRedeemed:
		return nil, ErrAlreadyUsed
	case models.PassExpired:
		return nil, ErrExpired
	}

	store, err := s.Stores.GetByStoreID(ctx, p.StoreID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch store %s: %w", p.StoreID, err)
	}
	if !store.Active {
		return nil, ErrNotFound
	}

	claimed := false
	if s.Locker != nil {
		ok, err := s.Locker.ClaimRedemption(ctx, passID)
		if err != nil {
			s.logger.Warn("REDEEM", fmt.Sprintf("redemption claim for %s failed, falling through to conditional update: %v", passID, err))
		} else if !ok {
			return nil, ErrAlreadyUsed
		} else {
			claimed = true
		}
	}

	rows, err := s.DB.MarkRedeemed(ctx, passID, now)
	if err != nil {
		// The pass was not redeemed, so the claim must not outlive this
		// attempt; otherwise retries read as already used until the TTL.
		if claimed {
			if relErr := s.Locker.ReleaseClaim(ctx, passID); relErr != nil {
				s.logger.Warn("REDEEM", fmt.Sprintf("failed to release redemption claim for %s: %v", passID, relErr))
			}
		}
		return nil, fmt.Errorf("failed to redeem pass %s: %w", passID, err)
	}
	if rows == 0 {
		return nil, ErrAlreadyUsed
	}

	p.Active = false
	usedAt := now
	p.UsedAt = &usedAt

	if s.Events != nil {
		if err := s.Events.PublishPassRedeemed(*p); err != nil {
			s.logger.Error("REDEEM", fmt.Sprintf("failed to publish pass.redeemed for %s: %v", passID, err))
		}
	}

	s.logger.LogRedemption(passID, fmt.Sprintf("redeemed for store %s, party of %d", p.StoreID, p.Quantity))
	return p, nil
}

// ScannedStoreID extracts the store identifier from scanned QR data. Venue
// posters encode the storefront URL, so "/store/{id}" is stripped when
// present; a bare identifier is accepted as-is.
func ScannedStoreID(data string) string {
	if i := strings.Index(data, "/store/"); i >= 0 {
		rest := data[i+len("/store/"):]
		if j := strings.IndexAny(rest, "/?#"); j >= 0 {
			rest = rest[:j]
		}
		return rest
	}
	return strings.TrimSpace(data)
}
