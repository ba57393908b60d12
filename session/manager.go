package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/truefans/server/auth"
)

// Manager keeps the open Stores of every client, keyed by session id.
type Manager struct {
	cfg Config
	log zerolog.Logger

	mu     sync.RWMutex
	stores map[string]*Store
}

func NewManager(cfg Config, log zerolog.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		log:    log,
		stores: make(map[string]*Store),
	}
}

// Config returns the settings every Store of m is built with.
func (m *Manager) Config() Config {
	return m.cfg
}

// Open starts a Store over provider and registers it under a new id. The
// Store is registered even when Init fails; it then starts signed out.
func (m *Manager) Open(ctx context.Context, provider auth.Provider) (string, *Store, error) {
	id := uuid.NewString()
	store := NewStore(provider, m.cfg, m.log)
	store.id = id
	err := store.Init(ctx)

	m.mu.Lock()
	m.stores[id] = store
	m.mu.Unlock()

	return id, store, err
}

func (m *Manager) Get(id string) (*Store, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	store, ok := m.stores[id]
	return store, ok
}

// Close tears down and forgets the Store registered under id.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	store, ok := m.stores[id]
	delete(m.stores, id)
	m.mu.Unlock()

	if ok {
		store.Close()
	}
}

// Len reports how many sessions are open.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.stores)
}

// Shutdown closes every open Store.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	stores := m.stores
	m.stores = make(map[string]*Store)
	m.mu.Unlock()

	for _, store := range stores {
		store.Close()
	}
}
