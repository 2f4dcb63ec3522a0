// Command seed loads the arcade registry export into the stores table.
//
//	go run ./cmd/seed -file seed/stores.yaml
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/Gwonyeong/doll-backend/internal/db"
	"github.com/Gwonyeong/doll-backend/internal/domain/stores"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "seed/stores.yaml", "registry YAML file")
	dryRun := flag.Bool("dry-run", false, "parse and report without writing")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	logger := zap.Must(zap.NewDevelopment()).Sugar()
	defer logger.Sync()

	data, err := os.ReadFile(*file)
	if err != nil {
		logger.Fatalw("read registry", "file", *file, "error", err)
	}

	shops, err := parseRegistry(data)
	if err != nil {
		logger.Fatalw("parse registry", "file", *file, "error", err)
	}
	logger.Infow("registry parsed", "file", *file, "stores", len(shops))

	if *dryRun {
		for _, s := range shops {
			pos := s.Position()
			logger.Infow("store", "name", s.Name, "lat", pos.Coordinate.Lat, "lng", pos.Coordinate.Lng, "approximate", pos.Defaulted)
		}
		return
	}

	addr := os.Getenv("DB_ADDR")
	if addr == "" {
		logger.Fatal("DB_ADDR is not set")
	}

	pool, err := db.New(addr, 5, "1m")
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	inserted, skipped, err := seedStores(ctx, stores.NewRepository(pool), shops, logger)
	if err != nil {
		logger.Fatalw("seed failed", "inserted", inserted, "error", err)
	}
	logger.Infow("seed finished", "inserted", inserted, "skipped", skipped)
}

// seedStores inserts shops that are not in repo yet, matched on name and
// address.
func seedStores(ctx context.Context, repo stores.Store, shops []stores.Shop, logger *zap.SugaredLogger) (inserted, skipped int, err error) {
	for i := range shops {
		s := shops[i]

		exists, err := repo.Exists(ctx, s.Name, s.Address)
		if err != nil {
			return inserted, skipped, err
		}
		if exists {
			skipped++
			continue
		}

		if s.Position().Defaulted {
			logger.Warnw("coordinate could not be converted", "name", s.Name, "x", s.CoordX, "y", s.CoordY)
		}

		if err := repo.Create(ctx, &s); err != nil {
			return inserted, skipped, err
		}
		inserted++
	}
	return inserted, skipped, nil
}
