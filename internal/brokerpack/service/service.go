package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wipefix/wipefix/backend/go-services/internal/auth"
	"github.com/wipefix/wipefix/backend/go-services/internal/brokerpack"
	"github.com/wipefix/wipefix/backend/go-services/internal/brokerpack/repository"
	"github.com/wipefix/wipefix/backend/go-services/pkg/logger"
	"github.com/wipefix/wipefix/backend/go-services/pkg/metrics"
)

// Service defines the broker pack operations used by the HTTP handler and packctl.
type Service interface {
	// Create authorizes the credential (an Authorization header value) and stores a new pack.
	Create(ctx context.Context, credential string, req brokerpack.CreateRequest) (*brokerpack.BrokerPack, error)
	Get(ctx context.Context, version string) (*brokerpack.BrokerPack, error)
	GetLatest(ctx context.Context) (*brokerpack.BrokerPack, error)
	// RebuildPointer points the latest pointer at the newest stored pack.
	RebuildPointer(ctx context.Context) (*brokerpack.LatestPointer, error)
	Ready(ctx context.Context) error
}

// Authorizer is the credential pre-check run before any mutation.
type Authorizer interface {
	Authorize(credential string) error
}

// Mirror receives a copy of every created pack; it is never read back.
type Mirror interface {
	PublishPack(ctx context.Context, p brokerpack.BrokerPack) error
	PublishLatest(ctx context.Context, ptr brokerpack.LatestPointer) error
}

type Option func(*packService)

// WithMirror publishes created packs to m, best-effort.
func WithMirror(m Mirror) Option {
	return func(s *packService) { s.mirror = m }
}

// WithClock overrides the creation-time source.
func WithClock(now func() time.Time) Option {
	return func(s *packService) { s.now = now }
}

func New(repo repository.Repository, authz Authorizer, opts ...Option) Service {
	s := &packService{
		repo:     repo,
		authz:    authz,
		resolver: NewResolver(repo),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type packService struct {
	repo     repository.Repository
	authz    Authorizer
	resolver *Resolver
	mirror   Mirror
	now      func() time.Time
}

func (s *packService) Create(ctx context.Context, credential string, req brokerpack.CreateRequest) (*brokerpack.BrokerPack, error) {
	if err := s.authz.Authorize(credential); err != nil {
		reason := "unauthorized"
		if auth.IsNotConfigured(err) {
			reason = "not_configured"
		}
		return nil, createFailed(reason, err)
	}
	pack, err := req.Build()
	if err != nil {
		return nil, createFailed("invalid", err)
	}

	_, err = s.repo.FindByVersion(ctx, pack.Version)
	switch {
	case err == nil:
		return nil, createFailed("duplicate", brokerpack.DuplicateVersion(pack.Version))
	case !errors.Is(err, repository.ErrNotFound):
		return nil, createFailed("storage", brokerpack.StorageFailure(fmt.Sprintf("check broker pack %q", pack.Version), err))
	}

	pack.CreatedAt = brokerpack.FormatTimestamp(s.now())
	pack.UpdatedAt = pack.CreatedAt
	if req.UpdatedAt != nil && *req.UpdatedAt != "" {
		pack.UpdatedAt = *req.UpdatedAt
	}

	// the unique key closes the race between the check above and this insert
	if err := s.repo.Insert(ctx, brokerpack.NewStoredPack(pack)); err != nil {
		if errors.Is(err, repository.ErrDuplicateVersion) {
			return nil, createFailed("duplicate", brokerpack.DuplicateVersion(pack.Version))
		}
		return nil, createFailed("storage", brokerpack.StorageFailure(fmt.Sprintf("persist broker pack %q", pack.Version), err))
	}
	metrics.PacksCreated.Inc()
	logger.Infow("broker pack created", map[string]interface{}{"version": pack.Version, "brokers": len(pack.Brokers)})

	ptr := brokerpack.NewPointer(pack)
	pointerOK := true
	if err := s.repo.UpsertPointer(ctx, ptr); err != nil {
		// the pack is durable; GetLatest recovers through the scan
		pointerOK = false
		metrics.PointerUpsertFailures.Inc()
		logger.Warnw("latest pointer not updated; latest view lags until the next create or repair", map[string]interface{}{
			"reason":  "pointer_lag",
			"version": pack.Version,
			"error":   err.Error(),
		})
	}
	s.publish(ctx, pack, pointerOK)

	out := pack.Clone()
	return &out, nil
}

func (s *packService) publish(ctx context.Context, pack brokerpack.BrokerPack, pointerOK bool) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.PublishPack(ctx, pack); err != nil {
		mirrorFailed(pack.Version, err)
		return
	}
	if !pointerOK {
		return
	}
	// a concurrent create may have moved the pointer since our upsert; mirror what is stored
	stored, err := s.repo.GetPointer(ctx)
	if err != nil {
		mirrorFailed(pack.Version, fmt.Errorf("read latest pointer: %w", err))
		return
	}
	s.publishLatest(ctx, *stored)
}

func (s *packService) publishLatest(ctx context.Context, ptr brokerpack.LatestPointer) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.PublishLatest(ctx, ptr); err != nil {
		mirrorFailed(ptr.Version, err)
	}
}

func (s *packService) Get(ctx context.Context, version string) (*brokerpack.BrokerPack, error) {
	stored, err := s.repo.FindByVersion(ctx, version)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, brokerpack.NotFound("broker pack not found")
	}
	if err != nil {
		return nil, brokerpack.StorageFailure(fmt.Sprintf("find broker pack %q", version), err)
	}
	out := stored.Sanitize()
	return &out, nil
}

func (s *packService) GetLatest(ctx context.Context) (*brokerpack.BrokerPack, error) {
	res, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, brokerpack.StorageFailure("resolve latest broker pack", err)
	}
	if res.Source == SourceNone {
		return nil, brokerpack.NotFound("no broker packs available")
	}
	stored, err := s.repo.FindByVersion(ctx, res.Version)
	if errors.Is(err, repository.ErrNotFound) && res.Source == SourcePointer {
		logger.Warnw("latest pointer references a missing pack; scanning", map[string]interface{}{
			"reason":  "dangling_pointer",
			"version": res.Version,
		})
		if res, err = s.resolver.Scan(ctx); err != nil {
			return nil, brokerpack.StorageFailure("scan latest broker pack", err)
		}
		if res.Source == SourceNone {
			return nil, brokerpack.NotFound("no broker packs available")
		}
		stored, err = s.repo.FindByVersion(ctx, res.Version)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, brokerpack.NotFound("broker pack not found")
	}
	if err != nil {
		return nil, brokerpack.StorageFailure("find latest broker pack", err)
	}
	out := stored.Sanitize()
	return &out, nil
}

func (s *packService) RebuildPointer(ctx context.Context) (*brokerpack.LatestPointer, error) {
	newest, err := s.repo.FindNewest(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, brokerpack.NotFound("no broker packs available")
	}
	if err != nil {
		return nil, brokerpack.StorageFailure("scan broker packs", err)
	}
	ptr := brokerpack.NewPointer(newest.BrokerPack)
	if err := s.repo.UpsertPointer(ctx, ptr); err != nil {
		return nil, brokerpack.StorageFailure("upsert latest pointer", err)
	}
	logger.Infow("latest pointer rebuilt", map[string]interface{}{"version": ptr.Version})
	s.publishLatest(ctx, ptr)
	return &ptr, nil
}

func (s *packService) Ready(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return brokerpack.StorageFailure("ping", err)
	}
	return nil
}

func createFailed(reason string, err error) error {
	metrics.PackCreateFailures.WithLabelValues(reason).Inc()
	return err
}

func mirrorFailed(version string, err error) {
	metrics.MirrorFailures.Inc()
	logger.Warnw("static mirror publish failed", map[string]interface{}{
		"reason":  "mirror_failed",
		"version": version,
		"error":   err.Error(),
	})
}
