// Package streaming serves byte windows of stored videos.
//
// The engine resolves a record, checks that its blob still exists, computes the
// serve window from an optional Range header and opens exactly that window on the
// blob store. Bytes are never buffered here: the returned body is read directly by
// the transport.
package streaming

import (
	"context"
	"io"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/vidstream/filestore"
	"github.com/rise-and-shine/vidstream/video"
)

// Stream is an opened window of a video. Body must be closed by the consumer.
type Stream struct {
	Record *video.Record
	Window Window
	Body   io.ReadCloser
}

// Engine opens video streams.
type Engine struct {
	store video.Store
	blobs filestore.BlobStore
}

// New creates a streaming Engine.
func New(store video.Store, blobs filestore.BlobStore) *Engine {
	return &Engine{store: store, blobs: blobs}
}

// Open resolves the record with id and opens the window selected by rangeHeader.
//
// A missing record fails with video.CodeVideoNotFound and a missing blob with
// filestore.CodeFileNotFound. Orphaned records are reported, not reconciled.
func (e *Engine) Open(ctx context.Context, id, rangeHeader string) (*Stream, error) {
	rec, err := e.store.GetByID(ctx, id)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	exists, err := e.blobs.Exists(ctx, rec.Path)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	if !exists {
		return nil, filestore.NotFound(rec.Path)
	}

	size, err := e.blobs.Size(ctx, rec.Path)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	w, err := ParseRange(rangeHeader, size)
	if err != nil {
		return nil, err
	}

	body, err := e.blobs.OpenRange(ctx, rec.Path, w.Start, w.End)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &Stream{Record: rec, Window: w, Body: body}, nil
}
