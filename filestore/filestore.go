// Package filestore defines the blob storage contract for raw video files.
//
// A BlobStore owns the bytes of uploaded videos. Blobs are written once under a
// generated, collision-resistant name and afterwards only read (whole or by byte
// range), checked for existence, listed or deleted. Implementations live in
// sub-packages (local filesystem, MinIO) and must be safe for concurrent use.
package filestore

import (
	"context"
	"io"
	"time"
)

// DefaultMaxSize is the upload ceiling applied when none is configured (500 MiB).
const DefaultMaxSize int64 = 500 << 20

// BlobStore defines the storage operations used by the upload, streaming and
// reconciliation flows. Paths are relative to the store's root.
type BlobStore interface {
	// Create validates contentType against the video family, streams r to a freshly
	// generated name preserving the extension of originalName, and returns where it
	// was stored. Streams longer than the configured maximum are rejected with
	// CodeFileTooLarge and nothing is left behind.
	Create(ctx context.Context, contentType, originalName string, r io.Reader) (*BlobInfo, error)

	// Exists reports whether a blob is stored at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Delete removes the blob at path. A missing blob yields CodeFileNotFound so
	// that callers can decide whether to ignore it.
	Delete(ctx context.Context, path string) error

	// OpenRange returns the bytes [start, end] of the blob, both inclusive.
	// end < 0 means "to the end of the blob". The caller must close the reader.
	OpenRange(ctx context.Context, path string, start, end int64) (io.ReadCloser, error)

	// Size returns the current byte length of the blob at path.
	Size(ctx context.Context, path string) (int64, error)

	// List returns every blob stored under the store's video prefix.
	List(ctx context.Context) ([]BlobInfo, error)
}

// BlobInfo describes a stored blob.
type BlobInfo struct {
	// Name is the generated file name, e.g. video-1717171717171-3f2a….mp4.
	Name string
	// Path is the location of the blob relative to the storage root.
	Path string
	// Size is the number of bytes stored.
	Size int64
	// ContentType is the declared media type of the blob.
	ContentType  string
	LastModified time.Time
}
