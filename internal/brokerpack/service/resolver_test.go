package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wipefix/wipefix/backend/go-services/internal/brokerpack"
	"github.com/wipefix/wipefix/backend/go-services/internal/brokerpack/repository"
)

type pointerErrRepo struct {
	*repository.MemoryRepo
}

func (r pointerErrRepo) GetPointer(context.Context) (*brokerpack.LatestPointer, error) {
	return nil, errors.New("server selection timeout")
}

func stored(version, createdAt string) *brokerpack.StoredPack {
	return brokerpack.NewStoredPack(brokerpack.BrokerPack{Version: version, CreatedAt: createdAt, UpdatedAt: createdAt})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	r := NewResolver(repo)

	res, err := r.Resolve(ctx)
	require.NoError(t, err)
	require.Equal(t, Resolution{Source: SourceNone}, res)

	require.NoError(t, repo.Insert(ctx, stored("1.0.0", "2026-01-01T00:00:00.000000Z")))
	require.NoError(t, repo.Insert(ctx, stored("0.1.0", "2026-02-01T00:00:00.000000Z")))

	res, err = r.Resolve(ctx)
	require.NoError(t, err)
	require.Equal(t, Resolution{Version: "0.1.0", Source: SourceScan}, res)

	require.NoError(t, repo.UpsertPointer(ctx, brokerpack.LatestPointer{Version: "1.0.0"}))
	res, err = r.Resolve(ctx)
	require.NoError(t, err)
	require.Equal(t, Resolution{Version: "1.0.0", Source: SourcePointer}, res)

	// an empty pointer is treated as absent
	require.NoError(t, repo.UpsertPointer(ctx, brokerpack.LatestPointer{}))
	res, err = r.Resolve(ctx)
	require.NoError(t, err)
	require.Equal(t, SourceScan, res.Source)
}

func TestResolvePropagatesStorageErrors(t *testing.T) {
	repo := pointerErrRepo{repository.NewMemoryRepo()}
	_, err := NewResolver(repo).Resolve(context.Background())
	require.Error(t, err)
}
