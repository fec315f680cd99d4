package settings

import (
	"context"
	"sync"

	"github.com/thereceipt/quickreceipt/pkg/receiptformat"
)

// MemoryStore keeps settings for the life of the process
type MemoryStore struct {
	mu    sync.Mutex
	value *receiptformat.CompanySettings
	saves int
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) receiptformat.CompanySettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.value == nil {
		return Default()
	}
	return cloneSettings(*m.value)
}

func (m *MemoryStore) Save(_ context.Context, s receiptformat.CompanySettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := cloneSettings(s)
	m.value = &c
	m.saves++
	return nil
}

// Saves counts calls to Save
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func cloneSettings(s receiptformat.CompanySettings) receiptformat.CompanySettings {
	if s.LogoURL != nil {
		logo := *s.LogoURL
		s.LogoURL = &logo
	}
	return s
}
