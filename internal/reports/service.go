package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"flowpass/internal/logger"
	"flowpass/internal/models"
)

// Filter values mirror the dashboard dropdowns; zero values and "All" both
// pass everything through.
type Filter struct {
	Timeframe   string `json:"timeframe"`
	ProductType string `json:"product_type"`
	Redeemed    string `json:"redeemed"`
	Search      string `json:"search"`
}

const (
	TimeframeAll        = "All"
	TimeframeToday      = "Today"
	TimeframeLastWeek   = "Last Week"
	TimeframeLast30Days = "Last 30 Days"
)

// Match applies all four predicates against a fresh "now": the rolling
// windows are recomputed on every filter application, not frozen at fetch
// time.
func (f Filter) Match(p models.Pass, now time.Time) bool {
	switch f.Timeframe {
	case TimeframeToday:
		if p.CreatedAt.Format("2006-01-02") != now.Format("2006-01-02") {
			return false
		}
	case TimeframeLastWeek:
		if p.CreatedAt.Before(now.AddDate(0, 0, -7)) {
			return false
		}
	case TimeframeLast30Days:
		if p.CreatedAt.Before(now.AddDate(0, 0, -30)) {
			return false
		}
	}

	if f.ProductType != "" && f.ProductType != TimeframeAll && p.ProductType != f.ProductType {
		return false
	}

	switch f.Redeemed {
	case "Yes":
		if p.UsedAt == nil {
			return false
		}
	case "No":
		if p.UsedAt != nil {
			return false
		}
	}

	if f.Search != "" {
		q := strings.ToLower(f.Search)
		name := strings.ToLower(p.CustomerName)
		email := strings.ToLower(p.CustomerEmail)
		if !strings.Contains(name, q) && !strings.Contains(email, q) {
			return false
		}
	}

	return true
}

// ApplyFilter narrows a working set already fetched from storage.
func ApplyFilter(passes []models.Pass, f Filter, now time.Time) []models.Pass {
	filtered := make([]models.Pass, 0, len(passes))
	for _, p := range passes {
		if f.Match(p, now) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

type Summary struct {
	TotalPasses       int     `json:"total_passes"`
	TotalUnits        int     `json:"total_units"`
	DistinctCustomers int     `json:"distinct_customers"`
	TotalRevenue      float64 `json:"total_revenue"`
}

// Summarize aggregates unit counts and distinct customers (keyed by email,
// falling back to name; anonymous passes count once each).
func Summarize(passes []models.Pass) Summary {
	sum := Summary{TotalPasses: len(passes)}
	seen := make(map[string]struct{})
	for _, p := range passes {
		sum.TotalUnits += p.Quantity
		sum.TotalRevenue += p.TotalAmount

		key := strings.ToLower(p.CustomerEmail)
		if key == "" {
			key = strings.ToLower(p.CustomerName)
		}
		if key == "" {
			sum.DistinctCustomers++
			continue
		}
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			sum.DistinctCustomers++
		}
	}
	return sum
}

type StoreLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.Store, error)
}

type PassLister interface {
	ListByStores(ctx context.Context, storeIDs []string) ([]models.Pass, error)
}

type Service struct {
	Stores StoreLister
	Passes PassLister
	logger *logger.Logger
}

func NewService(stores StoreLister, passes PassLister, log *logger.Logger) *Service {
	return &Service{Stores: stores, Passes: passes, logger: log}
}

type OrdersReport struct {
	Passes  []models.Pass  `json:"passes"`
	Stores  []models.Store `json:"stores"`
	Summary Summary        `json:"summary"`
}

// Orders fetches the operator's working set once and filters it in-process.
func (s *Service) Orders(ctx context.Context, userID string, f Filter, now time.Time) (*OrdersReport, error) {
	stores, err := s.Stores.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}

	storeIDs := make([]string, len(stores))
	for i, st := range stores {
		storeIDs[i] = st.StoreID
	}

	passes, err := s.Passes.ListByStores(ctx, storeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list passes: %w", err)
	}

	filtered := ApplyFilter(passes, f, now)
	return &OrdersReport{
		Passes:  filtered,
		Stores:  stores,
		Summary: Summarize(filtered),
	}, nil
}
