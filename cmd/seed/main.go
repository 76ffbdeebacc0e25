package main

import (
	"context"
	"fmt"
	"os"

	"shop-console/internal/config"
	"shop-console/internal/db"
	"shop-console/internal/logging"
	"shop-console/internal/repository/product"
	"shop-console/internal/repository/shop"
	"shop-console/internal/seed"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel, zap.String("app", "seed"))
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

	s, err := seed.Apply(ctx, shop.NewPostgres(pool), product.NewPostgres(pool, logger))
	if err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	logger.Info("seed applied", zap.String("shop_key", s.Key), zap.String("shop_id", s.ID))
}
