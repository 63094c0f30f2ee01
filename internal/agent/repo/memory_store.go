package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/placefinder/server/internal/agent/model"
	errx "github.com/placefinder/server/internal/core/error"
)

// MemoryStore keeps records in process memory. Values are stored encoded so
// callers never share state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	searches map[string][]byte
	bookings map[string][]byte
	newKey   func() string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		searches: make(map[string][]byte),
		bookings: make(map[string][]byte),
		newKey:   uuid.NewString,
	}
}

func (m *MemoryStore) add(records map[string][]byte, kind string, v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", kind, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		key := m.newKey()
		if _, taken := records[key]; taken {
			continue
		}
		records[key] = b
		return key, nil
	}
}

func (m *MemoryStore) update(records map[string][]byte, kind, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := records[key]; !ok {
		return errx.NotFound(kind, key)
	}
	records[key] = b
	return nil
}

func (m *MemoryStore) get(records map[string][]byte, kind, key string, dst any) error {
	m.mu.RLock()
	b, ok := records[key]
	m.mu.RUnlock()
	if !ok {
		return errx.NotFound(kind, key)
	}
	return json.Unmarshal(b, dst)
}

func (m *MemoryStore) delete(records map[string][]byte, kind, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := records[key]; !ok {
		return errx.NotFound(kind, key)
	}
	delete(records, key)
	return nil
}

func (m *MemoryStore) AddSearch(_ context.Context, search *model.SearchData) (string, error) {
	return m.add(m.searches, kindSearch, search)
}

func (m *MemoryStore) UpdateSearch(_ context.Context, key string, search *model.SearchData) error {
	return m.update(m.searches, kindSearch, key, search)
}

func (m *MemoryStore) GetSearch(_ context.Context, key string) (*model.SearchData, error) {
	var s model.SearchData
	if err := m.get(m.searches, kindSearch, key, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemoryStore) DeleteSearch(_ context.Context, key string) error {
	return m.delete(m.searches, kindSearch, key)
}

func (m *MemoryStore) AddBooking(_ context.Context, booking *model.BookingData) (string, error) {
	return m.add(m.bookings, kindBooking, booking)
}

func (m *MemoryStore) UpdateBooking(_ context.Context, key string, booking *model.BookingData) error {
	return m.update(m.bookings, kindBooking, key, booking)
}

func (m *MemoryStore) GetBooking(_ context.Context, key string) (*model.BookingData, error) {
	var b model.BookingData
	if err := m.get(m.bookings, kindBooking, key, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (m *MemoryStore) DeleteBooking(_ context.Context, key string) error {
	return m.delete(m.bookings, kindBooking, key)
}

var _ model.Store = (*MemoryStore)(nil)
