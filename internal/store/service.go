package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"flowpass/internal/logger"
	"flowpass/internal/models"
	"flowpass/internal/utils"
)

var (
	ErrNotFound   = errors.New("store not found or inactive")
	ErrForbidden  = errors.New("store belongs to another account")
	ErrValidation = errors.New("invalid store data")
)

type DBLayer interface {
	CreateStore(ctx context.Context, s models.Store) error
	GetByStoreID(ctx context.Context, storeID string) (*models.Store, error)
	ListByUser(ctx context.Context, userID string) ([]models.Store, error)
	DeleteStore(ctx context.Context, storeID string) error
	SetActive(ctx context.Context, storeID string, active bool) error
}

// ImageSaver persists a header image and returns its public URL.
type ImageSaver interface {
	Save(data []byte) (string, error)
}

type Service struct {
	DB      DBLayer
	Images  ImageSaver
	BaseURL string
	logger  *logger.Logger
}

func NewService(db DBLayer, images ImageSaver, baseURL string, log *logger.Logger) *Service {
	return &Service{DB: db, Images: images, BaseURL: baseURL, logger: log}
}

// Create registers a venue for the authenticated operator. The public store
// id is generated here and never changes; the storefront URL is derived from
// it. An optional header image is validated and uploaded first so a rejected
// image never leaves a half-created store behind.
func (s *Service) Create(ctx context.Context, userID string, req models.CreateStoreRequest, image []byte) (*models.Store, error) {
	if req.Name == "" {
		req.Name = "My Store"
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if req.MaxPasses < 1 {
		return nil, fmt.Errorf("%w: max passes must be at least 1", ErrValidation)
	}

	imageURL := ""
	if len(image) > 0 {
		url, err := s.Images.Save(image)
		if err != nil {
			return nil, err
		}
		imageURL = url
	}

	storeID := utils.NewPublicID()
	record := models.Store{
		StoreID:   storeID,
		UserID:    userID,
		Name:      req.Name,
		StoreURL:  fmt.Sprintf("%s/store/%s", s.BaseURL, storeID),
		ImageURL:  imageURL,
		Price:     req.Price,
		MaxPasses: req.MaxPasses,
		Active:    true,
		CreatedAt: time.Now(),
	}

	if err := s.DB.CreateStore(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	s.logger.LogVenue("CREATE", storeID, fmt.Sprintf("%q at $%.2f, %d passes/night", record.Name, record.Price, record.MaxPasses))
	return &record, nil
}

// GetActive is the public storefront lookup; inactive and missing stores
// are indistinguishable to customers.
func (s *Service) GetActive(ctx context.Context, storeID string) (*models.Store, error) {
	store, err := s.get(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if !store.Active {
		return nil, ErrNotFound
	}
	return store, nil
}

// GetOwned fetches a store regardless of active flag, for its owner only.
func (s *Service) GetOwned(ctx context.Context, userID, storeID string) (*models.Store, error) {
	store, err := s.get(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store.UserID != userID {
		return nil, ErrForbidden
	}
	return store, nil
}

func (s *Service) get(ctx context.Context, storeID string) (*models.Store, error) {
	store, err := s.DB.GetByStoreID(ctx, storeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch store %s: %w", storeID, err)
	}
	return store, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]models.Store, error) {
	stores, err := s.DB.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	return stores, nil
}

// Delete removes the venue record. Passes referencing it are kept for
// reporting and read as "Unknown Venue" from then on.
func (s *Service) Delete(ctx context.Context, userID, storeID string) error {
	if _, err := s.GetOwned(ctx, userID, storeID); err != nil {
		return err
	}
	if err := s.DB.DeleteStore(ctx, storeID); err != nil {
		return fmt.Errorf("failed to delete store %s: %w", storeID, err)
	}
	s.logger.LogVenue("DELETE", storeID, "store removed")
	return nil
}

func (s *Service) SetActive(ctx context.Context, userID, storeID string, active bool) error {
	if _, err := s.GetOwned(ctx, userID, storeID); err != nil {
		return err
	}
	if err := s.DB.SetActive(ctx, storeID, active); err != nil {
		return fmt.Errorf("failed to update store %s: %w", storeID, err)
	}
	s.logger.LogVenue("ACTIVE", storeID, fmt.Sprintf("active=%v", active))
	return nil
}

// Poster renders the scan poster: a QR code of the storefront URL that door
// staff display and customers' pass pages scan against.
func (s *Service) Poster(ctx context.Context, userID, storeID string) ([]byte, error) {
	store, err := s.GetOwned(ctx, userID, storeID)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(store.StoreURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to render poster: %w", err)
	}
	return png, nil
}
