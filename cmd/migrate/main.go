package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"flowpass/internal/database/migrations"
)

// Standalone schema bootstrap for Postgres deployments. The service also
// runs migrations at startup; this exists for environments where the schema
// is provisioned separately from the running service.
func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN must be set")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to connect: %v", err)
	}

	if err := migrations.Run(ctx, db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	log.Println("schema is up to date")
}
