package service

import (
	"context"
	"errors"

	"github.com/wipefix/wipefix/backend/go-services/internal/brokerpack/repository"
	"github.com/wipefix/wipefix/backend/go-services/pkg/metrics"
)

// Source says how a latest version was found.
type Source string

const (
	SourcePointer Source = "pointer"
	SourceScan    Source = "scan"
	SourceNone    Source = "none"
)

// Resolution is the outcome of a latest-version lookup. Version is empty when
// Source is SourceNone.
type Resolution struct {
	Version string
	Source  Source
}

// Resolver answers "which version is latest". The pointer document is an index
// over the pack collection; when it is missing or empty the collection is
// scanned by created_at. Nothing is cached between calls and nothing is written.
type Resolver struct {
	repo repository.Repository
}

func NewResolver(repo repository.Repository) *Resolver {
	return &Resolver{repo: repo}
}

func (r *Resolver) Resolve(ctx context.Context) (Resolution, error) {
	ptr, err := r.repo.GetPointer(ctx)
	switch {
	case err == nil && ptr.Version != "":
		return r.record(Resolution{Version: ptr.Version, Source: SourcePointer}), nil
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return Resolution{}, err
	}
	return r.Scan(ctx)
}

// Scan ignores the pointer and returns the pack with the newest created_at.
func (r *Resolver) Scan(ctx context.Context) (Resolution, error) {
	newest, err := r.repo.FindNewest(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return r.record(Resolution{Source: SourceNone}), nil
	}
	if err != nil {
		return Resolution{}, err
	}
	return r.record(Resolution{Version: newest.Version, Source: SourceScan}), nil
}

func (r *Resolver) record(res Resolution) Resolution {
	metrics.LatestResolutions.WithLabelValues(string(res.Source)).Inc()
	return res
}
