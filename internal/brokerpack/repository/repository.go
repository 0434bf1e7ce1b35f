package repository

import (
	"context"
	"errors"

	"github.com/wipefix/wipefix/backend/go-services/internal/brokerpack"
)

var (
	ErrNotFound         = errors.New("broker pack not found")
	ErrDuplicateVersion = errors.New("broker pack version already exists")
)

// Repository is the document-store capability the pack service depends on.
// Every method is a single-document operation; implementations must reject an
// Insert whose version is already stored with ErrDuplicateVersion.
type Repository interface {
	Insert(ctx context.Context, p *brokerpack.StoredPack) error
	FindByVersion(ctx context.Context, version string) (*brokerpack.StoredPack, error)
	// FindNewest returns the pack with the greatest created_at, or ErrNotFound.
	FindNewest(ctx context.Context) (*brokerpack.StoredPack, error)

	GetPointer(ctx context.Context) (*brokerpack.LatestPointer, error)
	UpsertPointer(ctx context.Context, p brokerpack.LatestPointer) error

	Ping(ctx context.Context) error
}
