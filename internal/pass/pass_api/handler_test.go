package pass_api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"flowpass/internal/logger"
	"flowpass/internal/models"
	"flowpass/internal/pass"
	"flowpass/internal/pass/pass_api"
)

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreatePass(ctx context.Context, p models.Pass) (bool, error) {
	args := m.Called(ctx, p)
	return args.Bool(0), args.Error(1)
}

func (m *MockDBLayer) GetByPassID(ctx context.Context, passID string) (*models.Pass, error) {
	args := m.Called(ctx, passID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pass), args.Error(1)
}

func (m *MockDBLayer) SumQuantitySince(ctx context.Context, storeID string, since time.Time) (int, error) {
	args := m.Called(ctx, storeID, since)
	return args.Int(0), args.Error(1)
}

func (m *MockDBLayer) ListByStore(ctx context.Context, storeID string) ([]models.Pass, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Pass), args.Error(1)
}

func (m *MockDBLayer) RecentByStore(ctx context.Context, storeID string, limit int) ([]models.Pass, error) {
	args := m.Called(ctx, storeID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Pass), args.Error(1)
}

func (m *MockDBLayer) MarkRedeemed(ctx context.Context, passID string, usedAt time.Time) (int64, error) {
	args := m.Called(ctx, passID, usedAt)
	return args.Get(0).(int64), args.Error(1)
}

type MockStoreReader struct {
	mock.Mock
}

func (m *MockStoreReader) GetByStoreID(ctx context.Context, storeID string) (*models.Store, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Store), args.Error(1)
}

func newTestRouter(db *MockDBLayer, stores *MockStoreReader) *chi.Mux {
	svc := pass.NewService(db, stores, nil, nil, logger.NewLogger())
	h := &pass_api.Handler{PassService: svc, Logger: logger.NewLogger()}

	r := chi.NewRouter()
	r.Get("/pass/{passId}", h.GetPass)
	r.Post("/pass/{passId}/redeem", h.RedeemPass)
	return r
}

func TestGetPass(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockStores := new(MockStoreReader)
	router := newTestRouter(mockDB, mockStores)

	p := &models.Pass{
		PassID:    "p1",
		StoreID:   "s1",
		Quantity:  2,
		Active:    true,
		CreatedAt: time.Now().Add(-time.Hour),
		ExpiresAt: time.Now().Add(6 * time.Hour),
	}
	mockDB.On("GetByPassID", mock.Anything, "p1").Return(p, nil)
	mockStores.On("GetByStoreID", mock.Anything, "s1").Return(&models.Store{StoreID: "s1", Active: true}, nil)

	req := httptest.NewRequest(http.MethodGet, "/pass/p1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var result pass.ValidationResult
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Valid)
	assert.Equal(t, "Pass is valid", result.Message)
	assert.Equal(t, "p1", result.Pass.PassID)
}

func TestGetPassNotFound(t *testing.T) {
	mockDB := new(MockDBLayer)
	router := newTestRouter(mockDB, new(MockStoreReader))

	mockDB.On("GetByPassID", mock.Anything, "nope").Return(nil, sql.ErrNoRows)

	req := httptest.NewRequest(http.MethodGet, "/pass/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Validation always answers 200; the verdict is in the body.
	assert.Equal(t, http.StatusOK, rec.Code)

	var result pass.ValidationResult
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Valid)
	assert.Equal(t, "Pass not found or inactive", result.Message)
}

func redeemBody(t *testing.T, scanned string) *bytes.Buffer {
	body, err := json.Marshal(map[string]string{"scanned_data": scanned})
	assert.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestRedeemPass(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockStores := new(MockStoreReader)
	router := newTestRouter(mockDB, mockStores)

	p := &models.Pass{
		PassID:    "p1",
		StoreID:   "s1",
		Quantity:  3,
		Active:    true,
		CreatedAt: time.Now().Add(-time.Hour),
		ExpiresAt: time.Now().Add(6 * time.Hour),
	}
	mockDB.On("GetByPassID", mock.Anything, "p1").Return(p, nil)
	mockStores.On("GetByStoreID", mock.Anything, "s1").Return(&models.Store{StoreID: "s1", Active: true}, nil)
	mockDB.On("MarkRedeemed", mock.Anything, "p1", mock.Anything).Return(int64(1), nil)

	req := httptest.NewRequest(http.MethodPost, "/pass/p1/redeem", redeemBody(t, "https://flowpass.app/store/s1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Pass redeemed", resp["message"])
	assert.Equal(t, "Valid for entry of 3 people", resp["party_size"])
}

func TestRedeemPassErrorMapping(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name       string
		pass       *models.Pass
		passErr    error
		rows       int64
		scanned    string
		wantStatus int
	}{
		{
			name:       "missing pass",
			passErr:    sql.ErrNoRows,
			scanned:    "https://flowpass.app/store/s1",
			wantStatus: http.StatusNotFound,
		},
		{
			name: "wrong venue code",
			pass: &models.Pass{
				PassID: "p1", StoreID: "s1", Active: true,
				ExpiresAt: now.Add(time.Hour),
			},
			scanned:    "https://flowpass.app/store/other",
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "expired pass",
			pass: &models.Pass{
				PassID: "p1", StoreID: "s1", Active: true,
				ExpiresAt: now.Add(-time.Hour),
			},
			scanned:    "https://flowpass.app/store/s1",
			wantStatus: http.StatusGone,
		},
		{
			name: "losing the redemption race",
			pass: &models.Pass{
				PassID: "p1", StoreID: "s1", Active: true,
				ExpiresAt: now.Add(time.Hour),
			},
			rows:       0,
			scanned:    "https://flowpass.app/store/s1",
			wantStatus: http.StatusConflict,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockDB := new(MockDBLayer)
			mockStores := new(MockStoreReader)
			router := newTestRouter(mockDB, mockStores)

			if tc.passErr != nil {
				mockDB.On("GetByPassID", mock.Anything, "p1").Return(nil, tc.passErr)
			} else {
				mockDB.On("GetByPassID", mock.Anything, "p1").Return(tc.pass, nil)
				mockStores.On("GetByStoreID", mock.Anything, "s1").Return(&models.Store{StoreID: "s1", Active: true}, nil)
				mockDB.On("MarkRedeemed", mock.Anything, "p1", mock.Anything).Return(tc.rows, nil)
			}

			req := httptest.NewRequest(http.MethodPost, "/pass/p1/redeem", redeemBody(t, tc.scanned))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}
