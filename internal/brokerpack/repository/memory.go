package repository

import (
	"context"
	"sync"

	"github.com/wipefix/wipefix/backend/go-services/internal/brokerpack"
)

// MemoryRepo is an in-memory repository used for unit tests and for running
// the server without MongoDB. Values are copied on the way in and out.
type MemoryRepo struct {
	mu      sync.RWMutex
	packs   map[string]*brokerpack.StoredPack
	pointer *brokerpack.LatestPointer
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{packs: make(map[string]*brokerpack.StoredPack)}
}

func (m *MemoryRepo) Insert(_ context.Context, p *brokerpack.StoredPack) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.packs[p.ID]; ok {
		return ErrDuplicateVersion
	}
	m.packs[p.ID] = copyStored(p)
	return nil
}

func (m *MemoryRepo) FindByVersion(_ context.Context, version string) (*brokerpack.StoredPack, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.packs[version]; ok {
		return copyStored(p), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) FindNewest(_ context.Context) (*brokerpack.StoredPack, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var newest *brokerpack.StoredPack
	for _, p := range m.packs {
		if newest == nil || newer(p, newest) {
			newest = p
		}
	}
	if newest == nil {
		return nil, ErrNotFound
	}
	return copyStored(newest), nil
}

func (m *MemoryRepo) GetPointer(_ context.Context) (*brokerpack.LatestPointer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pointer == nil {
		return nil, ErrNotFound
	}
	p := *m.pointer
	return &p, nil
}

func (m *MemoryRepo) UpsertPointer(_ context.Context, p brokerpack.LatestPointer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = brokerpack.PointerID
	m.pointer = &p
	return nil
}

// DeletePointer drops the pointer document, as an out-of-band operator would.
func (m *MemoryRepo) DeletePointer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pointer = nil
}

func (m *MemoryRepo) Ping(context.Context) error { return nil }

// newer orders by created_at, breaking ties on version so the scan is deterministic.
func newer(a, b *brokerpack.StoredPack) bool {
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt > b.CreatedAt
	}
	return a.Version > b.Version
}

func copyStored(p *brokerpack.StoredPack) *brokerpack.StoredPack {
	return &brokerpack.StoredPack{ID: p.ID, BrokerPack: p.BrokerPack.Clone()}
}
