//go:build integration

package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wipefix/wipefix/backend/go-services/internal/brokerpack"
	"github.com/wipefix/wipefix/backend/go-services/internal/database"
	"go.mongodb.org/mongo-driver/bson"
)

func startMongo(ctx context.Context, t *testing.T) string {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(2 * time.Minute),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "27017/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("mongodb://%s:%s", host, port.Port())
}

func newMongoRepo(t *testing.T) (*MongoRepo, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping testcontainers test in short mode")
	}
	ctx := t.Context()
	uri := startMongo(ctx, t)
	client, err := database.ConnectMongo(ctx, uri, 30*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database("wipefix_it")
	repo := NewMongoRepo(db.Collection("broker_packs"), db.Collection("broker_pack_meta"))
	dropPointer := func() {
		_, err := db.Collection("broker_pack_meta").DeleteOne(context.Background(), bson.M{"_id": brokerpack.PointerID})
		require.NoError(t, err)
	}
	return repo, dropPointer
}

func TestMongoRepoLifecycle(t *testing.T) {
	repo, dropPointer := newMongoRepo(t)
	ctx := t.Context()

	require.NoError(t, repo.Ping(ctx))

	_, err := repo.FindNewest(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Insert(ctx, stored("2.0.0", "2026-01-01T00:00:00.000000Z")))
	require.NoError(t, repo.Insert(ctx, stored("1.0.0", "2026-01-02T00:00:00.000000Z")))
	require.ErrorIs(t, repo.Insert(ctx, stored("1.0.0", "2026-01-03T00:00:00.000000Z")), ErrDuplicateVersion)

	got, err := repo.FindByVersion(ctx, "1.0.0")
	require.NoError(t, err)
	require.Equal(t, "2026-01-02T00:00:00.000000Z", got.CreatedAt)
	require.Equal(t, []string{"name"}, got.Brokers[0].RequiredFields)

	newest, err := repo.FindNewest(ctx)
	require.NoError(t, err)
	require.Equal(t, "1.0.0", newest.Version)

	_, err = repo.GetPointer(ctx)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, repo.UpsertPointer(ctx, brokerpack.LatestPointer{Version: "1.0.0", UpdatedAt: newest.CreatedAt}))
	ptr, err := repo.GetPointer(ctx)
	require.NoError(t, err)
	require.Equal(t, "1.0.0", ptr.Version)

	dropPointer()
	_, err = repo.GetPointer(ctx)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMongoRepoConcurrentInsertSingleWinner(t *testing.T) {
	repo, _ := newMongoRepo(t)
	ctx := t.Context()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- repo.Insert(ctx, stored("race", fmt.Sprintf("2026-01-01T00:00:%02d.000000Z", i)))
		}(i)
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		require.ErrorIs(t, err, ErrDuplicateVersion)
	}
	require.Equal(t, 1, wins)
}
