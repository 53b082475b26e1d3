package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poseidon/assetmarket/common/apperrors"
)

func TestCreatorService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.creatorSvc.Create(ctx, CreateCreatorInput{Name: "Bob", WalletAddress: "0xB1c2"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)

	_, err = f.creatorSvc.Create(ctx, CreateCreatorInput{Name: "Bob2", WalletAddress: "0xB1c2"})
	assert.True(t, errors.Is(err, apperrors.ErrConflict))

	_, err = f.creatorSvc.Create(ctx, CreateCreatorInput{Name: "", WalletAddress: "0x1"})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestCreatorService_ResolveExisting(t *testing.T) {
	f := newFixture(t)

	c, err := f.creatorSvc.Resolve(context.Background(), alice.ID, "")
	require.NoError(t, err)
	assert.Equal(t, alice.WalletAddress, c.WalletAddress)
}

func TestCreatorService_ResolveStoreError(t *testing.T) {
	f := newFixture(t)
	f.creators.CreateErr = errors.New("insert failed")

	_, err := f.creatorSvc.Resolve(context.Background(), "new-id", "0xwallet")
	assert.True(t, errors.Is(err, apperrors.ErrUserProvisioning))
}

func TestPlaceholderName(t *testing.T) {
	assert.Equal(t, "User-abcdefgh", placeholderName("abcdefghijkl"))
	assert.Equal(t, "User-abc", placeholderName("abc"))
}
