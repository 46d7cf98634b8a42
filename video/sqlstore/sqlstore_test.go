package sqlstore_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/vidstream/video"
	"github.com/rise-and-shine/vidstream/video/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLite(t *testing.T) *sqlstore.Store {
	t.Helper()
	s, err := sqlstore.NewSQLite(context.Background(), sqlstore.SQLiteConfig{
		Path:        filepath.Join(t.TempDir(), "videos.db"),
		BusyTimeout: time.Second,
	}, sqlstore.Options{PingTimeout: time.Second, Migrate: true})
	if err != nil && strings.Contains(err.Error(), "CGO_ENABLED=0") {
		t.Skip("sqlite3 driver requires cgo")
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func record(name string, uploaded time.Time) *video.Record {
	return &video.Record{
		Title:        name,
		Filename:     "video-" + name + ".mp4",
		OriginalName: name + ".mp4",
		Path:         "videos/video-" + name + ".mp4",
		Size:         1048576,
		Mimetype:     "video/mp4",
		UploadDate:   uploaded,
	}
}

func TestStore_InsertGet(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	assert.Equal(t, video.StateConnected, s.Status(ctx))

	inserted, err := s.Insert(ctx, record("intro", time.Time{}))
	require.NoError(t, err)
	assert.NotEmpty(t, inserted.ID)
	assert.False(t, inserted.UploadDate.IsZero())

	got, err := s.GetByID(ctx, inserted.ID)
	require.NoError(t, err)
	assert.Equal(t, inserted.ID, got.ID)
	assert.Equal(t, "intro", got.Title)
	assert.Equal(t, int64(1048576), got.Size)
	assert.Nil(t, got.Duration)
	assert.Zero(t, got.Views)
	assert.WithinDuration(t, inserted.UploadDate, got.UploadDate, time.Millisecond)

	_, err = s.GetByID(ctx, "missing")
	assert.True(t, errx.IsCodeIn(err, video.CodeVideoNotFound))
}

func TestStore_ListByUploadDateDesc(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, name := range []string{"a", "b", "c"} {
		_, err := s.Insert(ctx, record(name, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	list, err := s.ListByUploadDateDesc(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{list[0].Title, list[1].Title, list[2].Title})
}

func TestStore_UpdateViewsAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	a, err := s.Insert(ctx, record("a", time.Now()))
	require.NoError(t, err)
	b, err := s.Insert(ctx, record("b", time.Now()))
	require.NoError(t, err)
	c, err := s.Insert(ctx, record("c", time.Now()))
	require.NoError(t, err)

	require.NoError(t, s.UpdateViews(ctx, a.ID, 2))
	got, err := s.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)

	err = s.UpdateViews(ctx, "missing", 1)
	assert.True(t, errx.IsCodeIn(err, video.CodeVideoNotFound))

	require.NoError(t, s.DeleteByID(ctx, a.ID))
	err = s.DeleteByID(ctx, a.ID)
	assert.True(t, errx.IsCodeIn(err, video.CodeVideoNotFound))

	n, err := s.DeleteMany(ctx, []string{b.ID, c.ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.DeleteMany(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	list, err := s.ListByUploadDateDesc(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_DuplicateFilenameRejected(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	_, err := s.Insert(ctx, record("same", time.Now()))
	require.NoError(t, err)

	_, err = s.Insert(ctx, record("same", time.Now()))
	require.Error(t, err)
	assert.False(t, video.IsUnavailable(err))
}

func TestStore_Close(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	require.NoError(t, s.Close(ctx))
	assert.Equal(t, video.StateDisconnected, s.Status(ctx))
}
