// Package catalog serves single video records to clients.
package catalog

import (
	"context"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/vidstream/video"
)

// Service reads records on behalf of clients.
type Service struct {
	store video.Store
}

// New creates a catalog Service.
func New(store video.Store) *Service {
	return &Service{store: store}
}

// Fetch returns the record with id and counts the fetch as a view. The returned
// record already carries the incremented count. Concurrent fetches of the same id
// may lose increments.
func (s *Service) Fetch(ctx context.Context, id string) (*video.Record, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	rec.Views++
	err = s.store.UpdateViews(ctx, rec.ID, rec.Views)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return rec, nil
}
