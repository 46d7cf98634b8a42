// Package reconcile keeps video records and blobs consistent.
//
// A record is orphaned when its blob no longer exists. Orphans are pruned eagerly
// on every listing and on demand. Blobs without a record, left behind when a
// compensating delete after a failed upload did not succeed, are swept separately.
package reconcile

import (
	"context"
	"time"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/vidstream/filestore"
	"github.com/rise-and-shine/vidstream/observability/logger"
	"github.com/rise-and-shine/vidstream/video"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

// Engine runs reconciliation passes over the metadata store and the blob store.
type Engine struct {
	store       video.Store
	status      video.StatusProvider
	blobs       filestore.BlobStore
	concurrency int
	log         logger.Logger
	now         func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrency bounds the number of blob existence checks in flight.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// New creates a reconciliation Engine.
func New(store video.Store, status video.StatusProvider, blobs filestore.BlobStore, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		status:      status,
		blobs:       blobs,
		concurrency: defaultConcurrency,
		log:         logger.Named("reconcile"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ListValid returns all records newest first after deleting the orphaned ones.
func (e *Engine) ListValid(ctx context.Context) ([]video.Record, error) {
	valid, _, err := e.reconcile(ctx)
	if err != nil {
		return nil, err
	}
	return valid, nil
}

// Cleanup deletes every orphaned record and returns how many were removed.
func (e *Engine) Cleanup(ctx context.Context) (int64, error) {
	_, deleted, err := e.reconcile(ctx)
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (e *Engine) reconcile(ctx context.Context) ([]video.Record, int64, error) {
	err := video.CheckAvailable(ctx, e.status)
	if err != nil {
		return nil, 0, err
	}

	records, err := e.store.ListByUploadDateDesc(ctx)
	if err != nil {
		return nil, 0, errx.Wrap(err)
	}

	valid, orphans := e.partition(ctx, records)
	if len(orphans) == 0 {
		return valid, 0, nil
	}

	log := e.log.WithContext(ctx)
	for _, o := range orphans {
		log.With("record_id", o.ID, "path", o.Path).Warn("blob missing, removing orphaned record")
	}

	deleted, err := e.store.DeleteMany(ctx, lo.Map(orphans, func(r video.Record, _ int) string { return r.ID }))
	if err != nil {
		return nil, 0, errx.Wrap(err, errx.WithDetails(errx.D{"orphans": len(orphans)}))
	}
	log.With("orphans", len(orphans), "deleted", deleted).Info("orphaned records removed")

	return valid, deleted, nil
}

// partition splits records into those whose blob exists and orphans, keeping the
// input order in both. A record whose existence check fails is kept: it is not
// proven orphaned.
func (e *Engine) partition(ctx context.Context, records []video.Record) ([]video.Record, []video.Record) {
	exists := make([]bool, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range records {
		g.Go(func() error {
			ok, err := e.blobs.Exists(gctx, records[i].Path)
			if err != nil {
				e.log.WithContext(ctx).With("record_id", records[i].ID).Warnx(err)
				exists[i] = true
				return nil
			}
			exists[i] = ok
			return nil
		})
	}
	_ = g.Wait()

	valid := make([]video.Record, 0, len(records))
	var orphans []video.Record
	for i, r := range records {
		if exists[i] {
			valid = append(valid, r)
		} else {
			orphans = append(orphans, r)
		}
	}
	return valid, orphans
}

// DeleteVideo removes a record and its blob. A blob that is already gone is not an
// error; an unknown record id is.
func (e *Engine) DeleteVideo(ctx context.Context, id string) error {
	rec, err := e.store.GetByID(ctx, id)
	if err != nil {
		return errx.Wrap(err)
	}

	log := e.log.WithContext(ctx).With("record_id", rec.ID, "path", rec.Path)

	err = e.blobs.Delete(ctx, rec.Path)
	switch {
	case errx.IsCodeIn(err, filestore.CodeFileNotFound):
		log.Debug("blob already gone")
	case err != nil:
		return errx.Wrap(err)
	default:
		log.Debug("blob deleted")
	}

	err = e.store.DeleteByID(ctx, rec.ID)
	if err != nil {
		return errx.Wrap(err)
	}
	log.Info("video deleted")
	return nil
}

// SweepStrayBlobs deletes blobs that no record references and that are older than
// grace, and returns how many were removed. The grace period keeps blobs of uploads
// whose record is still being inserted.
func (e *Engine) SweepStrayBlobs(ctx context.Context, grace time.Duration) (int, error) {
	err := video.CheckAvailable(ctx, e.status)
	if err != nil {
		return 0, err
	}

	// blobs are listed before records so that a blob committed in between is
	// either referenced or younger than grace
	blobs, err := e.blobs.List(ctx)
	if err != nil {
		return 0, errx.Wrap(err)
	}
	records, err := e.store.ListByUploadDateDesc(ctx)
	if err != nil {
		return 0, errx.Wrap(err)
	}

	referenced := lo.SliceToMap(records, func(r video.Record) (string, struct{}) {
		return r.Path, struct{}{}
	})
	cutoff := e.now().Add(-grace)
	strays := lo.Filter(blobs, func(b filestore.BlobInfo, _ int) bool {
		_, ok := referenced[b.Path]
		return !ok && b.LastModified.Before(cutoff)
	})

	log := e.log.WithContext(ctx)
	removed := 0
	for _, b := range strays {
		err = e.blobs.Delete(ctx, b.Path)
		if err != nil && !errx.IsCodeIn(err, filestore.CodeFileNotFound) {
			log.With("path", b.Path).Warnx(err)
			continue
		}
		removed++
		log.With("path", b.Path, "size", b.Size).Info("stray blob removed")
	}
	return removed, nil
}
