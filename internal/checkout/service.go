package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"flowpass/internal/logger"
	"flowpass/internal/models"
	"flowpass/internal/pass"
	"flowpass/internal/utils"
)

var (
	ErrStoreNotFound        = errors.New("store not found or inactive")
	ErrSoldOut              = errors.New("no passes available for today")
	ErrPaymentNotConfirmed  = errors.New("payment not successful")
	ErrValidation           = errors.New("invalid checkout request")
	ErrPassCreationFailed   = errors.New("failed to create pass")
	ErrIntentCreationFailed = errors.New("payment intent creation failed")
)

// serviceFeeRate is applied to the pass subtotal at intent creation.
const serviceFeeRate = 0.06

const defaultProductType = "LineSkip"

type StoreReader interface {
	GetByStoreID(ctx context.Context, storeID string) (*models.Store, error)
}

type PassStore interface {
	CreatePass(ctx context.Context, p models.Pass) (bool, error)
	GetByPassID(ctx context.Context, passID string) (*models.Pass, error)
}

// QuotaReserver is the atomic guard against two buyers racing for the last
// pass: reservations are claimed before the payment intent exists and
// released if the checkout definitively fails.
type QuotaReserver interface {
	ReserveQuota(ctx context.Context, storeID string, windowStart, windowEnd time.Time, qty, maxPasses int) (bool, error)
	ReleaseQuota(ctx context.Context, storeID string, windowStart time.Time, qty int) error
}

// Notifier delivers the pass link by SMS. Failures are logged and never
// fail the purchase.
type Notifier interface {
	Send(to, body string) error
}

type Publisher interface {
	PublishPassCreated(p models.Pass) error
}

type Service struct {
	Stores   StoreReader
	Passes   PassStore
	Quota    QuotaReserver
	Payments PaymentClient
	SMS      Notifier
	Events   Publisher
	BaseURL  string

	logger *logger.Logger
	now    func() time.Time
}

func NewService(stores StoreReader, passes PassStore, quota QuotaReserver, payments PaymentClient, sms Notifier, events Publisher, baseURL string, log *logger.Logger) *Service {
	return &Service{
		Stores:   stores,
		Passes:   passes,
		Quota:    quota,
		Payments: payments,
		SMS:      sms,
		Events:   events,
		BaseURL:  baseURL,
		logger:   log,
		now:      time.Now,
	}
}

type CheckoutRequest struct {
	StoreID     string  `json:"store_id"`
	Quantity    int     `json:"quantity"`
	Phone       string  `json:"phone"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	ProductType string  `json:"product_type"`
	TipAmount   float64 `json:"tip_amount"`
}

type CheckoutIntent struct {
	ClientSecret string  `json:"client_secret"`
	PassID       string  `json:"pass_id"`
	AmountCents  int64   `json:"amount_cents"`
	ServiceFee   float64 `json:"service_fee"`
	Total        float64 `json:"total"`
}

// CreateIntent starts a purchase: it reserves quota for the current
// sales-day window, pre-generates the pass identifier, and creates a
// payment intent carrying the identifier and store as metadata so the pass
// can be issued later without trusting the caller.
func (s *Service) CreateIntent(ctx context.Context, req CheckoutRequest) (*CheckoutIntent, error) {
	if req.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}
	if req.Phone == "" {
		return nil, fmt.Errorf("%w: phone number is required", ErrValidation)
	}
	if req.TipAmount < 0 {
		return nil, fmt.Errorf("%w: tip must not be negative", ErrValidation)
	}
	if req.ProductType == "" {
		req.ProductType = defaultProductType
	}

	store, err := s.Stores.GetByStoreID(ctx, req.StoreID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch store %s: %w", req.StoreID, err)
	}
	if !store.Active {
		return nil, ErrStoreNotFound
	}

	now := s.now()
	windowStart := pass.SalesDayStart(now)
	windowEnd := pass.SalesDayEnd(now)

	ok, err := s.Quota.ReserveQuota(ctx, store.StoreID, windowStart, windowEnd, req.Quantity, store.MaxPasses)
	if err != nil {
		return nil, fmt.Errorf("quota reservation error: %w", err)
	}
	if !ok {
		return nil, ErrSoldOut
	}

	subtotal := store.Price * float64(req.Quantity)
	serviceFee := roundCents(subtotal * serviceFeeRate)
	total := roundCents(subtotal + serviceFee + req.TipAmount)

	passID := utils.NewPublicID()
	metadata := map[string]string{
		"passId":      passID,
		"storeId":     store.StoreID,
		"quantity":    strconv.Itoa(req.Quantity),
		"phone":       req.Phone,
		"name":        req.Name,
		"email":       req.Email,
		"productType": req.ProductType,
		"passName":    store.Name + " Fast Pass",
		"serviceFee":  fmt.Sprintf("%.2f", serviceFee),
		"tipAmount":   fmt.Sprintf("%.2f", req.TipAmount),
		"totalAmount": fmt.Sprintf("%.2f", total),
		"windowStart": strconv.FormatInt(windowStart.Unix(), 10),
	}

	intent, err := s.Payments.CreateIntent(ctx, int64(math.Round(total*100)), metadata)
	if err != nil {
		s.logger.Error("CHECKOUT", fmt.Sprintf("failed to create payment intent for store %s: %v", store.StoreID, err))
		if relErr := s.Quota.ReleaseQuota(ctx, store.StoreID, windowStart, req.Quantity); relErr != nil {
			s.logger.Error("CHECKOUT", fmt.Sprintf("failed to release quota for store %s: %v", store.StoreID, relErr))
		}
		return nil, ErrIntentCreationFailed
	}

	s.logger.LogCheckout("INTENT", passID, fmt.Sprintf("store %s, %d units, $%.2f", store.StoreID, req.Quantity, total))
	return &CheckoutIntent{
		ClientSecret: intent.ClientSecret,
		PassID:       passID,
		AmountCents:  int64(math.Round(total * 100)),
		ServiceFee:   serviceFee,
		Total:        total,
	}, nil
}

// IssuePass creates the pass for a captured payment. The intent status is
// re-verified server-side; the caller's claim of success is never trusted.
// Issuing is idempotent on the pre-generated pass identifier, so replays of
// the same payment reference yield exactly one stored pass and one SMS.
func (s *Service) IssuePass(ctx context.Context, paymentIntentID string) (*models.Pass, error) {
	intent, err := s.Payments.GetIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payment intent %s: %w", paymentIntentID, err)
	}

	if intent.Status != intentStatusSucceeded {
		if intent.Status == intentStatusCanceled {
			s.releaseReservation(ctx, intent)
		}
		return nil, ErrPaymentNotConfirmed
	}

	passID := intent.Metadata["passId"]
	storeID := intent.Metadata["storeId"]
	if passID == "" || storeID == "" {
		return nil, fmt.Errorf("%w: payment intent %s carries no pass metadata", ErrPassCreationFailed, paymentIntentID)
	}

	quantity, err := strconv.Atoi(intent.Metadata["quantity"])
	if err != nil || quantity < 1 {
		quantity = 1
	}

	now := s.now()
	record := models.Pass{
		PassID:          passID,
		StoreID:         storeID,
		Quantity:        quantity,
		Active:          true,
		CreatedAt:       now,
		ExpiresAt:       pass.NextReset(now),
		PaymentIntentID: intent.ID,
		CustomerName:    intent.Metadata["name"],
		CustomerEmail:   intent.Metadata["email"],
		CustomerPhone:   intent.Metadata["phone"],
		ProductType:     intent.Metadata["productType"],
		PassName:        intent.Metadata["passName"],
		ServiceFee:      parseAmount(intent.Metadata["serviceFee"]),
		TipAmount:       parseAmount(intent.Metadata["tipAmount"]),
		TotalAmount:     parseAmount(intent.Metadata["totalAmount"]),
	}

	created, err := s.Passes.CreatePass(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPassCreationFailed, err)
	}

	stored, err := s.Passes.GetByPassID(ctx, passID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPassCreationFailed, err)
	}

	// Replays of an already-issued pass skip side effects.
	if !created {
		s.logger.LogCheckout("ISSUE", passID, "pass already issued, returning existing record")
		return stored, nil
	}

	if s.Events != nil {
		if err := s.Events.PublishPassCreated(*stored); err != nil {
			s.logger.Error("CHECKOUT", fmt.Sprintf("failed to publish pass.created for %s: %v", passID, err))
		}
	}

	s.notify(stored)

	s.logger.LogCheckout("ISSUE", passID, fmt.Sprintf("issued for store %s, %d units, expires %s", storeID, quantity, stored.ExpiresAt.Format(time.RFC3339)))
	return stored, nil
}

// PassIDForIntent echoes the pre-generated pass id carried in the intent's
// metadata, for the post-redirect landing page.
func (s *Service) PassIDForIntent(ctx context.Context, paymentIntentID string) (string, error) {
	intent, err := s.Payments.GetIntent(ctx, paymentIntentID)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve payment intent %s: %w", paymentIntentID, err)
	}
	return intent.Metadata["passId"], nil
}

// notify sends the pass link by SMS. The pass id has already been surfaced
// to the caller, so delivery failure costs nothing but the message.
func (s *Service) notify(p *models.Pass) {
	if s.SMS == nil || p.CustomerPhone == "" {
		return
	}

	plural := ""
	if p.Quantity > 1 {
		plural = "es"
	}
	storeName := p.PassName
	if storeName == "" {
		storeName = "the venue"
	}
	passURL := fmt.Sprintf("%s/order-confirmation/%s?quantity=%d", s.BaseURL, p.PassID, p.Quantity)
	body := fmt.Sprintf("Thank you for purchasing %d pass%s at %s. Access your pass here: %s", p.Quantity, plural, storeName, passURL)

	if err := s.SMS.Send(p.CustomerPhone, body); err != nil {
		s.logger.Error("CHECKOUT", fmt.Sprintf("failed to send SMS for pass %s: %v", p.PassID, err))
	}
}

func (s *Service) releaseReservation(ctx context.Context, intent *IntentInfo) {
	storeID := intent.Metadata["storeId"]
	startUnix, err := strconv.ParseInt(intent.Metadata["windowStart"], 10, 64)
	if storeID == "" || err != nil {
		return
	}
	qty, err := strconv.Atoi(intent.Metadata["quantity"])
	if err != nil || qty < 1 {
		qty = 1
	}
	if err := s.Quota.ReleaseQuota(ctx, storeID, time.Unix(startUnix, 0), qty); err != nil {
		s.logger.Error("CHECKOUT", fmt.Sprintf("failed to release quota for canceled intent %s: %v", intent.ID, err))
	}
}

func parseAmount(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
