package movie

import (
	"context"
	"testing"
)

// mockStore implements the consumer interface for tests. Hashes are keyed by
// full store key.
type mockStore struct {
	hashes    map[string]map[string]string
	scanKeys  []string
	scanErr   error
	hsetErr   error
	hsetNXErr error
	multiErr  error

	hsetCalls   []string
	hsetNXCalls []string
}

func newMockStore() *mockStore {
	return &mockStore{hashes: make(map[string]map[string]string)}
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	m.hsetCalls = append(m.hsetCalls, key)
	if m.hsetErr != nil {
		return m.hsetErr
	}
	h := m.hashes[key]
	if h == nil {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (m *mockStore) HSetNX(_ context.Context, key, field, value string) (bool, error) {
	m.hsetNXCalls = append(m.hsetNXCalls, key)
	if m.hsetNXErr != nil {
		return false, m.hsetNXErr
	}
	h := m.hashes[key]
	if h == nil {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	if _, exists := h[field]; exists {
		return false, nil
	}
	h[field] = value
	return true, nil
}

func (m *mockStore) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	if m.multiErr != nil {
		return nil, m.multiErr
	}
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		h := m.hashes[k]
		if h == nil {
			h = map[string]string{}
		}
		out[i] = h
	}
	return out, nil
}

func (m *mockStore) Scan(_ context.Context, _ string) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	return m.scanKeys, nil
}

// seed stores a movie hash and registers its key for Scan.
func (m *mockStore) seed(t *testing.T, id string, fields map[string]string) {
	t.Helper()
	key := KeyPrefix + id
	m.hashes[key] = fields
	m.scanKeys = append(m.scanKeys, key)
}
