package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"flowpass/internal/models"
	"flowpass/internal/store/db"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = bunDB.NewCreateTable().Model((*models.Store)(nil)).Exec(context.Background())
	if err != nil {
		t.Fatalf("Failed to create stores table: %v", err)
	}

	return &db.DB{Bun: bunDB}, bunDB
}

func testStore(storeID, userID, name string) models.Store {
	return models.Store{
		StoreID:   storeID,
		UserID:    userID,
		Name:      name,
		Price:     10.0,
		MaxPasses: 25,
		Active:    true,
		CreatedAt: time.Now(),
	}
}

func TestCreateAndGetStore(t *testing.T) {
	storeDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	require.NoError(t, storeDB.CreateStore(ctx, testStore("s1", "op1", "Neon Room")))

	stored, err := storeDB.GetByStoreID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Neon Room", stored.Name)
	assert.Equal(t, "op1", stored.UserID)
	assert.True(t, stored.Active)

	_, err = storeDB.GetByStoreID(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListByUser(t *testing.T) {
	storeDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	require.NoError(t, storeDB.CreateStore(ctx, testStore("s1", "op1", "Neon Room")))
	require.NoError(t, storeDB.CreateStore(ctx, testStore("s2", "op1", "Velvet Lounge")))
	require.NoError(t, storeDB.CreateStore(ctx, testStore("s3", "op2", "Other Bar")))

	stores, err := storeDB.ListByUser(ctx, "op1")
	require.NoError(t, err)
	assert.Len(t, stores, 2)

	stores, err = storeDB.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, stores)
}

func TestDeleteStore(t *testing.T) {
	storeDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	require.NoError(t, storeDB.CreateStore(ctx, testStore("s1", "op1", "Neon Room")))
	require.NoError(t, storeDB.DeleteStore(ctx, "s1"))

	_, err := storeDB.GetByStoreID(ctx, "s1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSetActive(t *testing.T) {
	storeDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	require.NoError(t, storeDB.CreateStore(ctx, testStore("s1", "op1", "Neon Room")))

	require.NoError(t, storeDB.SetActive(ctx, "s1", false))
	stored, err := storeDB.GetByStoreID(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, stored.Active)

	require.NoError(t, storeDB.SetActive(ctx, "s1", true))
	stored, err = storeDB.GetByStoreID(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, stored.Active)
}
