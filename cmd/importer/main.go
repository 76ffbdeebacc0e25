package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"shop-console/internal/config"
	"shop-console/internal/db"
	"shop-console/internal/domain"
	"shop-console/internal/importer"
	"shop-console/internal/logging"
	"shop-console/internal/repository/product"
	"shop-console/internal/repository/shop"

	"go.uber.org/zap"
)

func main() {
	var (
		filePath string
		shopKey  string
	)
	flag.StringVar(&filePath, "file", "", "Path to product CSV export")
	flag.StringVar(&shopKey, "shop", "", "Shop key to import into")
	flag.Parse()

	if filePath == "" || shopKey == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel, zap.String("app", "importer"))
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	shopRepo := shop.NewPostgres(pool)
	s, err := shopRepo.GetByKey(ctx, shopKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s, err = shopRepo.Create(ctx, &domain.Shop{Key: shopKey, Name: shopKey})
		}
		if err != nil {
			logger.Fatal("ensure shop", zap.String("shop_key", shopKey), zap.Error(err))
		}
	}

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, product.NewPostgres(pool, logger), s.ID, logger)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}

	fmt.Printf("Imported %d products into shop %s in %s\n", count, shopKey, time.Since(start).Truncate(time.Millisecond))
}
