package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"flowpass/internal/auth"
	"flowpass/internal/checkout"
	"flowpass/internal/checkout/checkout_api"
	checkoutkafka "flowpass/internal/checkout/kafka"
	"flowpass/internal/config"
	"flowpass/internal/database/migrations"
	"flowpass/internal/logger"
	"flowpass/internal/models"
	"flowpass/internal/notify"
	"flowpass/internal/pass"
	passdb "flowpass/internal/pass/db"
	"flowpass/internal/pass/pass_api"
	passredis "flowpass/internal/pass/redis"
	"flowpass/internal/reports"
	"flowpass/internal/reports/report_api"
	"flowpass/internal/storage"
	"flowpass/internal/store"
	storedb "flowpass/internal/store/db"
	"flowpass/internal/store/store_api"
)

// eventPublisher is satisfied by both the Kafka producer and its noop
// stand-in.
type eventPublisher interface {
	PublishPassCreated(p models.Pass) error
	PublishPassRedeemed(p models.Pass) error
}

func openDatabase(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	if cfg.PostgresDSN != "" {
		sqldb, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("failed to open Postgres: %v", err))
		}
		if err := sqldb.Ping(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("failed to connect to Postgres: %v", err))
		}
		log.Info("DATABASE", "Postgres connection successful")
		return bun.NewDB(sqldb, pgdialect.New())
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.SQLitePath)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("failed to open SQLite: %v", err))
	}
	log.Info("DATABASE", "using SQLite at "+cfg.SQLitePath)
	return bun.NewDB(sqldb, sqlitedialect.New())
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Close()

	ctx := context.Background()

	bunDB := openDatabase(cfg.Database, log)
	defer bunDB.Close()

	if err := migrations.Run(ctx, bunDB); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("migration failed: %v", err))
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("failed to connect to Redis at %s: %v", cfg.Redis.Addr, err))
	}
	defer rdb.Close()

	checkout.InitStripe(cfg.Stripe.SecretKey)

	var producer eventPublisher = checkoutkafka.Noop{}
	if cfg.Kafka.Enabled && !cfg.Kafka.MockMode {
		kp := checkoutkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.PassCreated, cfg.Kafka.Topics.PassRedeemed)
		defer kp.Close()
		producer = kp
		log.Info("KAFKA", fmt.Sprintf("producing pass events to %v", cfg.Kafka.Brokers))
	} else {
		log.Info("KAFKA", "event stream disabled, using noop publisher")
	}

	images, err := storage.NewImageStore(cfg.App.UploadDir, cfg.App.BaseURL)
	if err != nil {
		log.Fatal("STORAGE", fmt.Sprintf("failed to initialize image store: %v", err))
	}

	storeDB := &storedb.DB{Bun: bunDB}
	passDB := &passdb.DB{Bun: bunDB}
	locks := passredis.NewRedis(rdb)
	sms := notify.NewTwilio(cfg.Twilio, log)

	storeService := store.NewService(storeDB, images, cfg.App.BaseURL, log)
	passService := pass.NewService(passDB, storeDB, locks, producer, log)
	checkoutService := checkout.NewService(storeDB, passDB, locks, checkout.StripeClient{}, sms, producer, cfg.App.BaseURL, log)
	reportService := reports.NewService(storeDB, passDB, log)

	storeHandler := &store_api.Handler{StoreService: storeService, PassService: passService, Logger: log}
	passHandler := &pass_api.Handler{PassService: passService, Logger: log}
	checkoutHandler := &checkout_api.Handler{CheckoutService: checkoutService, Logger: log}
	reportHandler := &report_api.Handler{ReportService: reportService, Logger: log}

	r := chi.NewRouter()

	// Public customer and door-staff surface.
	r.Get("/store/{storeId}", storeHandler.Storefront)
	r.Route("/checkout", func(r chi.Router) {
		r.Post("/intent", checkoutHandler.CreateIntent)
		r.Post("/pass", checkoutHandler.IssuePass)
		r.Get("/pass", checkoutHandler.GetPassID)
	})
	r.Route("/pass/{passId}", func(r chi.Router) {
		r.Get("/", passHandler.GetPass)
		r.Post("/redeem", passHandler.RedeemPass)
	})
	r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.App.UploadDir))))

	// Operator surface behind OIDC.
	operator := func(r chi.Router) {
		r.Route("/venues", func(r chi.Router) {
			r.Post("/", storeHandler.CreateStore)
			r.Get("/", storeHandler.ListStores)
			r.Delete("/{storeId}", storeHandler.DeleteStore)
			r.Patch("/{storeId}/active", storeHandler.SetActive)
			r.Get("/{storeId}/poster", storeHandler.Poster)
			r.Get("/{storeId}/stats", storeHandler.Stats)
		})
		r.Route("/reports", func(r chi.Router) {
			r.Get("/orders", reportHandler.Orders)
			r.Get("/orders/export", reportHandler.Export)
		})
	}

	if cfg.Auth.OIDCIssuer != "" {
		authMiddleware, err := auth.Middleware(cfg.Auth.OIDCIssuer)
		if err != nil {
			log.Fatal("AUTH", fmt.Sprintf("failed to initialize OIDC: %v", err))
		}
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			operator(r)
		})
	} else {
		log.Warn("AUTH", "OIDC_ISSUER not set, operator tokens are not verified")
		r.Group(func(r chi.Router) {
			r.Use(auth.DevMiddleware)
			operator(r)
		})
	}

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", "FlowPass listening on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("HTTP error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctxShutdown)
	log.Info("SERVER", "shutdown complete")
}
