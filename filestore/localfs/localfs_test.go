package localfs_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/vidstream/filestore"
	"github.com/rise-and-shine/vidstream/filestore/localfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, maxSize int64) (*localfs.Store, string) {
	t.Helper()
	root := t.TempDir()
	s, err := localfs.New(localfs.Config{Root: root, MaxSize: maxSize})
	require.NoError(t, err)
	return s, root
}

func TestStore_Create(t *testing.T) {
	ctx := context.Background()
	s, root := newStore(t, 1024)

	payload := []byte("0123456789")
	info, err := s.Create(ctx, filestore.ContentTypeMP4, "clip.mp4", bytes.NewReader(payload))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(info.Name, "video-"))
	assert.True(t, strings.HasSuffix(info.Name, ".mp4"))
	assert.Equal(t, filestore.PathFor(info.Name), info.Path)
	assert.Equal(t, int64(len(payload)), info.Size)
	assert.Equal(t, filestore.ContentTypeMP4, info.ContentType)

	onDisk, err := os.ReadFile(filepath.Join(root, filestore.VideoPrefix, info.Name))
	require.NoError(t, err)
	assert.Equal(t, payload, onDisk)
}

func TestStore_Create_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		payload     []byte
		wantCode    string
	}{
		{
			name:        "non video content type",
			contentType: "image/png",
			payload:     []byte("png"),
			wantCode:    filestore.CodeUnsupportedContentType,
		},
		{
			name:        "larger than max size",
			contentType: filestore.ContentTypeMP4,
			payload:     bytes.Repeat([]byte("x"), 17),
			wantCode:    filestore.CodeFileTooLarge,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, root := newStore(t, 16)

			_, err := s.Create(context.Background(), tc.contentType, "a.mp4", bytes.NewReader(tc.payload))
			require.Error(t, err)
			assert.True(t, errx.IsCodeIn(err, tc.wantCode))

			entries, err := os.ReadDir(filepath.Join(root, filestore.VideoPrefix))
			require.NoError(t, err)
			assert.Empty(t, entries, "nothing must be left behind")
		})
	}
}

func TestStore_Create_ExactlyMaxSize(t *testing.T) {
	s, _ := newStore(t, 16)

	info, err := s.Create(context.Background(), filestore.ContentTypeMP4, "a.mp4", bytes.NewReader(make([]byte, 16)))
	require.NoError(t, err)
	assert.Equal(t, int64(16), info.Size)
}

func TestStore_Create_CanceledContext(t *testing.T) {
	s, root := newStore(t, 1024)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Create(ctx, filestore.ContentTypeMP4, "a.mp4", strings.NewReader("data"))
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(root, filestore.VideoPrefix))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_ExistsDeleteSize(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, 1024)

	info, err := s.Create(ctx, filestore.ContentTypeVideoWebM, "a.webm", strings.NewReader("hello"))
	require.NoError(t, err)

	ok, err := s.Exists(ctx, info.Path)
	require.NoError(t, err)
	assert.True(t, ok)

	size, err := s.Size(ctx, info.Path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	require.NoError(t, s.Delete(ctx, info.Path))

	ok, err = s.Exists(ctx, info.Path)
	require.NoError(t, err)
	assert.False(t, ok)

	err = s.Delete(ctx, info.Path)
	assert.True(t, errx.IsCodeIn(err, filestore.CodeFileNotFound))

	_, err = s.Size(ctx, info.Path)
	assert.True(t, errx.IsCodeIn(err, filestore.CodeFileNotFound))
}

func TestStore_PathCannotEscapeRoot(t *testing.T) {
	ctx := context.Background()
	s, root := newStore(t, 1024)

	outside := filepath.Join(filepath.Dir(root), "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o600))
	t.Cleanup(func() { _ = os.Remove(outside) })

	ok, err := s.Exists(ctx, "../outside.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_OpenRange(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, 1024)

	info, err := s.Create(ctx, filestore.ContentTypeMP4, "a.mp4", strings.NewReader("0123456789"))
	require.NoError(t, err)

	tests := []struct {
		name       string
		start, end int64
		want       string
		wantCode   string
	}{
		{name: "whole", start: 0, end: -1, want: "0123456789"},
		{name: "prefix", start: 0, end: 3, want: "0123"},
		{name: "middle", start: 4, end: 6, want: "456"},
		{name: "open tail", start: 7, end: -1, want: "789"},
		{name: "last byte", start: 9, end: 9, want: "9"},
		{name: "start past end", start: 10, end: -1, wantCode: filestore.CodeInvalidRange},
		{name: "end past size", start: 0, end: 10, wantCode: filestore.CodeInvalidRange},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rc, err := s.OpenRange(ctx, info.Path, tc.start, tc.end)
			if tc.wantCode != "" {
				require.Error(t, err)
				assert.True(t, errx.IsCodeIn(err, tc.wantCode))
				return
			}
			require.NoError(t, err)
			defer rc.Close()

			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}

	_, err = s.OpenRange(ctx, filestore.PathFor("missing.mp4"), 0, -1)
	assert.True(t, errx.IsCodeIn(err, filestore.CodeFileNotFound))
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	s, root := newStore(t, 1024)

	a, err := s.Create(ctx, filestore.ContentTypeMP4, "a.mp4", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := s.Create(ctx, filestore.ContentTypeMP4, "b.mp4", strings.NewReader("bb"))
	require.NoError(t, err)

	// in-flight temp files and subdirectories are not blobs
	dir := filepath.Join(root, filestore.VideoPrefix)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".upload-123"), []byte("partial"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	blobs, err := s.List(ctx)
	require.NoError(t, err)

	paths := make([]string, 0, len(blobs))
	for _, bl := range blobs {
		paths = append(paths, bl.Path)
	}
	assert.ElementsMatch(t, []string{a.Path, b.Path}, paths)
}

func TestNew_RequiresRoot(t *testing.T) {
	_, err := localfs.New(localfs.Config{})
	require.Error(t, err)
}
