// Package sqlstore provides a bun implementation of video.Store for PostgreSQL and SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/code19m/errx"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
	"github.com/rise-and-shine/vidstream/pg"
	"github.com/rise-and-shine/vidstream/video"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

const uploadDateIndex = "videos_upload_date_idx"

// Store implements video.Backend on a *bun.DB.
type Store struct {
	db          *bun.DB
	pingTimeout time.Duration

	closing atomic.Bool
	closed  atomic.Bool
}

// NewPostgres connects to PostgreSQL through a pgx pool.
func NewPostgres(ctx context.Context, cfg pg.Config, opts Options) (*Store, error) {
	db, err := pg.NewBunDB(ctx, cfg)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return New(ctx, db, opts)
}

// NewSQLite opens (or creates) the SQLite database file at cfg.Path.
func NewSQLite(ctx context.Context, cfg SQLiteConfig, opts Options) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	err := os.MkdirAll(dir, 0o755) //nolint:mnd // directory permissions
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"dir": dir}))
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_foreign_keys=on",
		cfg.Path, cfg.BusyTimeout.Milliseconds())
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	// a single writer avoids SQLITE_BUSY under concurrent uploads
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	pg.ApplyHooks(db, cfg.Debug, filepath.Base(cfg.Path))

	return New(ctx, db, opts)
}

// New wraps an existing *bun.DB and, when opts.Migrate is set, creates the schema.
func New(ctx context.Context, db *bun.DB, opts Options) (*Store, error) {
	s := &Store{db: db, pingTimeout: opts.PingTimeout}
	if s.pingTimeout <= 0 {
		s.pingTimeout = 2 * time.Second //nolint:mnd // default probe timeout
	}

	if opts.Migrate {
		err := s.migrate(ctx)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	q := s.db.NewCreateTable().Model((*row)(nil)).IfNotExists()
	_, err := q.Exec(ctx)
	if err != nil {
		return s.wrap(err, nil)
	}

	iq := s.db.NewCreateIndex().
		Model((*row)(nil)).
		Index(uploadDateIndex).
		Column("upload_date").
		IfNotExists()
	_, err = iq.Exec(ctx)
	if err != nil {
		return s.wrap(err, nil)
	}
	return nil
}

// Status implements video.StatusProvider by pinging the database.
func (s *Store) Status(ctx context.Context) video.ConnState {
	switch {
	case s.closed.Load():
		return video.StateDisconnected
	case s.closing.Load():
		return video.StateDisconnecting
	}

	ctx, cancel := context.WithTimeout(ctx, s.pingTimeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return video.StateDisconnected
	}
	return video.StateConnected
}

// Insert implements video.Store.
func (s *Store) Insert(ctx context.Context, r *video.Record) (*video.Record, error) {
	err := r.Validate()
	if err != nil {
		return nil, err
	}

	m := fromRecord(r)
	m.ID = uuid.NewString()
	if m.UploadDate.IsZero() {
		m.UploadDate = time.Now().UTC()
	}

	q := s.db.NewInsert().Model(m)
	_, err = q.Exec(ctx)
	if err != nil {
		return nil, s.wrap(err, q)
	}
	rec := m.toRecord()
	return &rec, nil
}

// GetByID implements video.Store.
func (s *Store) GetByID(ctx context.Context, id string) (*video.Record, error) {
	m := new(row)
	q := s.db.NewSelect().Model(m).Where("id = ?", id)
	err := q.Scan(ctx)
	if pg.IsNotFound(err) {
		return nil, video.NotFound(id)
	}
	if err != nil {
		return nil, s.wrap(err, q)
	}
	rec := m.toRecord()
	return &rec, nil
}

// ListByUploadDateDesc implements video.Store.
func (s *Store) ListByUploadDateDesc(ctx context.Context) ([]video.Record, error) {
	var rows []row
	q := s.db.NewSelect().Model(&rows).Order("upload_date DESC", "id DESC")
	err := q.Scan(ctx)
	if err != nil && !pg.IsNotFound(err) {
		return nil, s.wrap(err, q)
	}

	out := make([]video.Record, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toRecord())
	}
	return out, nil
}

// UpdateViews implements video.Store.
func (s *Store) UpdateViews(ctx context.Context, id string, views int64) error {
	q := s.db.NewUpdate().Model((*row)(nil)).Set("views = ?", views).Where("id = ?", id)
	res, err := q.Exec(ctx)
	if err != nil {
		return s.wrap(err, q)
	}
	return requireAffected(res, id)
}

// DeleteByID implements video.Store.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	q := s.db.NewDelete().Model((*row)(nil)).Where("id = ?", id)
	res, err := q.Exec(ctx)
	if err != nil {
		return s.wrap(err, q)
	}
	return requireAffected(res, id)
}

// DeleteMany implements video.Store.
func (s *Store) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	q := s.db.NewDelete().Model((*row)(nil)).Where("id IN (?)", bun.In(ids))
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, s.wrap(err, q)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errx.Wrap(err)
	}
	return n, nil
}

// Close closes the underlying database handle.
func (s *Store) Close(context.Context) error {
	s.closing.Store(true)
	err := s.db.Close()
	s.closed.Store(true)
	if err != nil {
		return errx.Wrap(err)
	}
	return nil
}

func (s *Store) wrap(err error, q fmt.Stringer) error {
	if pg.IsConnectionError(err) {
		return video.Unavailable(err, video.StateDisconnected)
	}
	return errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errx.Wrap(err)
	}
	if n == 0 {
		return video.NotFound(id)
	}
	return nil
}
