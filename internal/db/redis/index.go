package redis

import (
	"context"

	"github.com/kinolab/genrecast/internal/db"
)

// IndexExists probes index existence via FT.INFO; "unknown index name" means absent.
// The vector index is provisioned externally, so existence is all we need to know.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}
