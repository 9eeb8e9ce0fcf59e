package main

import (
	"context"
	"database/sql"
	"fmt"
	"itinerary-planner-service/internal/adapters/cache"
	"itinerary-planner-service/internal/adapters/memory"
	"itinerary-planner-service/internal/adapters/repositories"
	"itinerary-planner-service/internal/adapters/routing"
	"itinerary-planner-service/internal/api"
	"itinerary-planner-service/internal/config"
	"itinerary-planner-service/internal/platform/db"
	"itinerary-planner-service/internal/ports"
	"itinerary-planner-service/internal/services"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// main is the application composition root.
// It wires concrete adapters (Postgres or memory, Redis, ORS) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := setupLogging(cfg); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	store, distStore, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStore()

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable, distance lookups will fall through to the backing store")
		}
		distStore = cache.NewRedisDistanceCache(client, cfg.RedisTTL, distStore)
	}

	provider, err := routing.NewORSRouteProvider(cfg.ORSAPIKey, routing.ORSOptions{
		BaseURL:     cfg.ORSBaseURL,
		Timeout:     cfg.RoutingTimeout,
		RatePerSec:  cfg.RoutingRatePerSec,
		MaxAttempts: cfg.RoutingMaxAttempts,
	})
	if err != nil {
		log.Fatal(err)
	}

	cal := services.NewCalendar(cfg.Location)
	distances := services.NewDistanceCache(store.Catalog(), distStore, provider)

	router := api.NewRouter(api.Deps{
		Distances:      distances,
		Builder:        services.NewManualBuilder(store, distances, cal),
		Smart:          services.NewSmartGenerator(store, distances, cal),
		Lifecycle:      services.NewLifecycle(store, distances, cal),
		Queries:        services.NewPlanQueries(store, cal, cfg.PageLimit),
		JWTSecret:      []byte(cfg.JWTSecret),
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})

	// Timeouts are tuned for cold-cache itinerary building (one routing call per leg).
	log.WithField("addr", ":"+cfg.Port).Info("Server listening")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func setupLogging(cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// openStore returns the Postgres-backed store when DATABASE_URL is set and an
// in-memory one seeded from SEED_PATH otherwise.
func openStore(ctx context.Context, cfg *config.Config) (ports.Store, ports.DistanceStore, func(), error) {
	if cfg.DatabaseURL == "" {
		dests, err := repositories.ReadSeed(cfg.SeedPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open store: %w", err)
		}
		log.WithField("destinations", len(dests)).Warn("DATABASE_URL not set, using in-memory store")
		return memory.NewStore(dests), memory.NewDistanceStore(), func() {}, nil
	}

	conn, err := db.Open(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return nil, nil, nil, err
	}

	// Initialize schema and seed the catalog on startup for local runs.
	if err := initAndSeed(ctx, conn, cfg.SeedPath); err != nil {
		conn.Close()
		return nil, nil, nil, err
	}

	distConn, err := db.Open(ctx, cfg.DatabaseURL, cfg.DistanceDBMaxConns)
	if err != nil {
		conn.Close()
		return nil, nil, nil, err
	}

	closeAll := func() {
		distConn.Close()
		conn.Close()
	}
	return repositories.NewPostgresStore(conn), cache.NewSQLDistanceCache(distConn), closeAll, nil
}

func initAndSeed(ctx context.Context, conn *sql.DB, seedPath string) error {
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if err := repositories.SeedFromJSON(ctx, conn, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}
