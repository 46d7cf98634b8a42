// Package memstore provides an in-process implementation of video.Store.
//
// It backs the "memory" metadata backend and is the store used by tests, which can
// switch its connection state and inject failures per operation.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/code19m/errx"
	"github.com/google/uuid"
	"github.com/rise-and-shine/vidstream/video"
)

// Op names a store operation for failure injection.
type Op string

const (
	OpInsert      Op = "insert"
	OpGetByID     Op = "get_by_id"
	OpList        Op = "list"
	OpUpdateViews Op = "update_views"
	OpDeleteByID  Op = "delete_by_id"
	OpDeleteMany  Op = "delete_many"
)

// Store is a concurrency-safe in-memory video.Backend.
type Store struct {
	mu      sync.RWMutex
	records map[string]video.Record
	state   video.ConnState
	fail    map[Op]error
	now     func() time.Time
}

// New returns an empty, connected store.
func New() *Store {
	return &Store{
		records: make(map[string]video.Record),
		state:   video.StateConnected,
		fail:    make(map[Op]error),
		now:     time.Now,
	}
}

// SetState changes the reported connection state. Any state other than connected
// makes every operation fail with video.CodeStoreUnavailable.
func (s *Store) SetState(state video.ConnState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// FailOn makes op return err until it is cleared with a nil err.
func (s *Store) FailOn(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

// Status implements video.StatusProvider.
func (s *Store) Status(context.Context) video.ConnState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Insert implements video.Store.
func (s *Store) Insert(ctx context.Context, r *video.Record) (*video.Record, error) {
	err := r.Validate()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.check(ctx, OpInsert)
	if err != nil {
		return nil, err
	}

	rec := *r
	rec.ID = uuid.NewString()
	if rec.UploadDate.IsZero() {
		rec.UploadDate = s.now().UTC()
	}
	s.records[rec.ID] = rec
	return &rec, nil
}

// GetByID implements video.Store.
func (s *Store) GetByID(ctx context.Context, id string) (*video.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	err := s.check(ctx, OpGetByID)
	if err != nil {
		return nil, err
	}

	rec, ok := s.records[id]
	if !ok {
		return nil, video.NotFound(id)
	}
	return &rec, nil
}

// ListByUploadDateDesc implements video.Store.
func (s *Store) ListByUploadDateDesc(ctx context.Context) ([]video.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	err := s.check(ctx, OpList)
	if err != nil {
		return nil, err
	}

	out := make([]video.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	slices.SortStableFunc(out, func(a, b video.Record) int {
		if c := b.UploadDate.Compare(a.UploadDate); c != 0 {
			return c
		}
		// equal timestamps still list deterministically
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

// UpdateViews implements video.Store.
func (s *Store) UpdateViews(ctx context.Context, id string, views int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.check(ctx, OpUpdateViews)
	if err != nil {
		return err
	}

	rec, ok := s.records[id]
	if !ok {
		return video.NotFound(id)
	}
	rec.Views = views
	s.records[id] = rec
	return nil
}

// DeleteByID implements video.Store.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.check(ctx, OpDeleteByID)
	if err != nil {
		return err
	}

	if _, ok := s.records[id]; !ok {
		return video.NotFound(id)
	}
	delete(s.records, id)
	return nil
}

// DeleteMany implements video.Store.
func (s *Store) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.check(ctx, OpDeleteMany)
	if err != nil {
		return 0, err
	}

	var n int64
	for _, id := range ids {
		if _, ok := s.records[id]; ok {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

// Close marks the store disconnected.
func (s *Store) Close(context.Context) error {
	s.SetState(video.StateDisconnected)
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// check must be called with s.mu held.
func (s *Store) check(ctx context.Context, op Op) error {
	if err := ctx.Err(); err != nil {
		return errx.Wrap(err)
	}
	if s.state != video.StateConnected {
		return video.Unavailable(nil, s.state)
	}
	if err, ok := s.fail[op]; ok {
		return err
	}
	return nil
}
