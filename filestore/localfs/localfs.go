// Package localfs provides a filesystem implementation of the filestore.BlobStore interface.
package localfs

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/vidstream/filestore"
)

const (
	dirPerm  = 0o755
	tempGlob = ".upload-*"
)

// Store implements filestore.BlobStore on top of a local directory.
type Store struct {
	root    string
	maxSize int64
	now     func() time.Time
}

// New creates the root and video directories if needed and returns a Store.
func New(cfg Config) (*Store, error) {
	if cfg.Root == "" {
		return nil, errx.New("[localfs]: root directory is required")
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = filestore.DefaultMaxSize
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	err = os.MkdirAll(filepath.Join(root, filestore.VideoPrefix), dirPerm)
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"root": root}))
	}

	return &Store{root: root, maxSize: cfg.MaxSize, now: time.Now}, nil
}

// Create streams r into a temporary file next to its final location and renames it
// into place once the whole stream has been accepted, so readers never observe a
// partially written blob.
func (s *Store) Create(
	ctx context.Context,
	contentType, originalName string,
	r io.Reader,
) (*filestore.BlobInfo, error) {
	if !filestore.IsVideo(contentType) {
		return nil, filestore.UnsupportedContentType(contentType)
	}

	name := filestore.GenerateName(originalName, s.now())
	rel := filestore.PathFor(name)
	dst := s.abs(rel)

	tmp, err := os.CreateTemp(filepath.Dir(dst), tempGlob)
	if err != nil {
		return nil, filestore.IOFailure(err, errx.D{"path": rel})
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	n, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: io.LimitReader(r, s.maxSize+1)})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errx.Wrap(ctxErr)
		}
		return nil, filestore.IOFailure(err, errx.D{"path": rel})
	}
	if n > s.maxSize {
		return nil, filestore.TooLarge(s.maxSize)
	}

	err = tmp.Sync()
	if err != nil {
		return nil, filestore.IOFailure(err, errx.D{"path": rel})
	}
	err = tmp.Close()
	if err != nil {
		return nil, filestore.IOFailure(err, errx.D{"path": rel})
	}
	err = os.Rename(tmpName, dst)
	if err != nil {
		return nil, filestore.IOFailure(err, errx.D{"path": rel})
	}
	committed = true

	return &filestore.BlobInfo{
		Name:         name,
		Path:         rel,
		Size:         n,
		ContentType:  contentType,
		LastModified: s.now(),
	}, nil
}

// Exists reports whether a regular file is stored at path.
func (s *Store) Exists(_ context.Context, p string) (bool, error) {
	info, err := os.Stat(s.abs(p))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, filestore.IOFailure(err, errx.D{"path": p})
	}
	return info.Mode().IsRegular(), nil
}

// Delete removes the file at path.
func (s *Store) Delete(_ context.Context, p string) error {
	err := os.Remove(s.abs(p))
	if errors.Is(err, fs.ErrNotExist) {
		return filestore.NotFound(p)
	}
	if err != nil {
		return filestore.IOFailure(err, errx.D{"path": p})
	}
	return nil
}

// OpenRange opens the file at path positioned at start and limited to the window.
func (s *Store) OpenRange(_ context.Context, p string, start, end int64) (io.ReadCloser, error) {
	f, err := os.Open(s.abs(p))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, filestore.NotFound(p)
	}
	if err != nil {
		return nil, filestore.IOFailure(err, errx.D{"path": p})
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, filestore.IOFailure(err, errx.D{"path": p})
	}

	_, length, err := filestore.ResolveWindow(start, end, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	_, err = f.Seek(start, io.SeekStart)
	if err != nil {
		_ = f.Close()
		return nil, filestore.IOFailure(err, errx.D{"path": p})
	}

	return &rangeReader{Reader: io.LimitReader(f, length), Closer: f}, nil
}

// Size returns the byte length of the file at path.
func (s *Store) Size(_ context.Context, p string) (int64, error) {
	info, err := os.Stat(s.abs(p))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, filestore.NotFound(p)
	}
	if err != nil {
		return 0, filestore.IOFailure(err, errx.D{"path": p})
	}
	return info.Size(), nil
}

// List returns every committed blob in the video directory. In-flight temporary
// files are skipped.
func (s *Store) List(_ context.Context) ([]filestore.BlobInfo, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, filestore.VideoPrefix))
	if err != nil {
		return nil, filestore.IOFailure(err, errx.D{"dir": filestore.VideoPrefix})
	}

	blobs := make([]filestore.BlobInfo, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, filestore.IOFailure(err, errx.D{"name": e.Name()})
		}
		blobs = append(blobs, filestore.BlobInfo{
			Name:         e.Name(),
			Path:         filestore.PathFor(e.Name()),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
	}
	return blobs, nil
}

// abs maps a root-relative slash path to an absolute path that cannot escape root.
func (s *Store) abs(p string) string {
	clean := path.Clean("/" + filepath.ToSlash(p))
	return filepath.Join(s.root, filepath.FromSlash(clean))
}

type rangeReader struct {
	io.Reader
	io.Closer
}

// ctxReader stops an in-progress copy once ctx is done.
type ctxReader struct {
	ctx context.Context //nolint:containedctx // scoped to a single copy
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
