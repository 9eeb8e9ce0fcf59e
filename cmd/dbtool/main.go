package main

import (
	"context"
	"flag"
	"fmt"
	"itinerary-planner-service/internal/adapters/repositories"
	"itinerary-planner-service/internal/api"
	"itinerary-planner-service/internal/config"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/platform/db"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const usage = `usage:
  dbtool init                       create the schema and seed the catalog
  dbtool token -sub ID [-p a,b]     print a signed traveler token`

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found (using environment variables)")
	}

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = initAndSeed(context.Background())
	case "token":
		err = token(os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(ctx context.Context) error {
	databaseURL := config.Get("DATABASE_URL", "")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	conn, err := db.Open(ctx, databaseURL, 2)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Info("Initializing database schema...")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	log.Info("Schema ready.")

	seedPath := config.Get("SEED_PATH", "data/seeds/catalog.json")
	log.WithField("path", seedPath).Info("Seeding database...")
	if err := repositories.SeedFromJSON(ctx, conn, seedPath); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.Info("Seeding complete.")

	return nil
}

func token(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	sub := fs.String("sub", "", "traveler id")
	personalities := fs.String("p", "", "comma separated personalities")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sub == "" {
		return fmt.Errorf("token: -sub is required")
	}

	secret := config.Get("JWT_SECRET", "")
	if secret == "" {
		return fmt.Errorf("token: JWT_SECRET is required")
	}

	t := domain.Traveler{ID: *sub}
	for _, p := range strings.Split(*personalities, ",") {
		if p = strings.TrimSpace(p); p != "" {
			t.Personalities = append(t.Personalities, p)
		}
	}

	signed, err := api.IssueToken([]byte(secret), t, *ttl)
	if err != nil {
		return fmt.Errorf("token: %w", err)
	}
	fmt.Println(signed)
	return nil
}
