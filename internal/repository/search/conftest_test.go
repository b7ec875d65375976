package search

import (
	"context"

	"github.com/kinolab/genrecast/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchResult *db.SearchResult
	searchErr    error
	gotQuery     *db.KNNQuery

	indexExists bool
	indexErr    error
}

func (m *mockStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.gotQuery = q
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchResult, nil
}

func (m *mockStore) IndexExists(_ context.Context, _ string) (bool, error) {
	return m.indexExists, m.indexErr
}
