package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poseidon/assetmarket/common/logger"
	"github.com/poseidon/assetmarket/common/models"
	"github.com/poseidon/assetmarket/common/service/servicetest"
	"github.com/poseidon/assetmarket/common/storage"
)

type fixture struct {
	assets     *servicetest.AssetStore
	creators   *servicetest.CreatorStore
	blobs      storage.Store
	creatorSvc *CreatorService
	assetSvc   *AssetService
}

var alice = &models.Creator{
	ID:            "alice",
	Name:          "Alice",
	WalletAddress: "0xA1b2C3d4E5F6a7B8C9D0E1F2A3B4C5D6E7F8A9B0",
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	blobs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		assets:   servicetest.NewAssetStore(),
		creators: servicetest.NewCreatorStore(alice),
		blobs:    blobs,
	}
	f.creatorSvc = NewCreatorService(f.creators, logger.Discard(), true)
	f.assetSvc = NewAssetService(f.assets, f.creatorSvc, blobs, logger.Discard(), AssetServiceOptions{
		DefaultPageSize: 100,
		MaxPageSize:     500,
		MaxUploadBytes:  1 << 20,
	})
	return f
}
