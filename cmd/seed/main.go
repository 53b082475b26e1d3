package main

import (
	"context"
	"fmt"
	"os"

	"github.com/poseidon/assetmarket/common/bootstrap"
	"github.com/poseidon/assetmarket/common/db"
	"github.com/poseidon/assetmarket/common/repository"
	"github.com/poseidon/assetmarket/common/service"
)

func main() {
	ctx := context.Background()

	// Seeding only needs the database and blob storage
	components, err := bootstrap.Setup(ctx, "seed",
		bootstrap.WithoutRedis(),
		bootstrap.WithoutTelemetry(),
		bootstrap.WithDBInitHook(db.MigrateHook(ctx)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	cfg := components.Config
	log := components.Logger

	creators := service.NewCreatorService(repository.NewCreatorRepository(components.DB), log, false)
	assets := service.NewAssetService(repository.NewAssetRepository(components.DB), creators, components.Blobs, log, service.AssetServiceOptions{
		DefaultPageSize: cfg.Assets.DefaultPageSize,
		MaxPageSize:     cfg.Assets.MaxPageSize,
		MaxUploadBytes:  cfg.Storage.UploadMaxBytes,
	})

	stats, err := Seed(ctx, creators, assets, log)
	if err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1)
	}

	log.Info("seeding completed",
		"creators_created", stats.Creators,
		"assets_created", stats.Assets,
		"skipped", stats.Skipped,
	)
}
