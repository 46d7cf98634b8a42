// Package upload implements the commit protocol that turns an incoming file into a
// stored blob plus its metadata record.
//
// The blob is always written before the record is inserted. When the insert fails
// the blob is deleted again, so a failed upload leaves neither behind. The
// compensating delete is retried a few times; if it still fails the blob is left
// for the stray blob sweep in package reconcile.
package upload

import (
	"context"
	"io"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/code19m/errx"
	"github.com/rise-and-shine/vidstream/filestore"
	"github.com/rise-and-shine/vidstream/observability/logger"
	"github.com/rise-and-shine/vidstream/ucdef"
	"github.com/rise-and-shine/vidstream/video"
)

// CodeNoFile is returned when the request carries no file.
const CodeNoFile = "NO_FILE"

// OperationID identifies the upload use case.
const OperationID = "upload-video"

var _ ucdef.UserAction[Input, *video.Record] = (*Service)(nil)

// Input is an incoming upload. Title and Description hold every value the form
// field arrived with; only the first is used.
type Input struct {
	File         io.Reader
	OriginalName string
	ContentType  string
	Title        []string
	Description  []string
}

// Service runs the upload commit protocol.
type Service struct {
	blobs  filestore.BlobStore
	store  video.Store
	status video.StatusProvider
	log    logger.Logger

	compensateAttempts uint
	compensateDelay    time.Duration
	now                func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCompensation sets how often and how far apart the compensating blob delete
// is attempted after a failed insert.
func WithCompensation(attempts uint, delay time.Duration) Option {
	return func(s *Service) {
		s.compensateAttempts = attempts
		s.compensateDelay = delay
	}
}

// New creates an upload Service.
func New(blobs filestore.BlobStore, store video.Store, status video.StatusProvider, opts ...Option) *Service {
	s := &Service{
		blobs:              blobs,
		store:              store,
		status:             status,
		log:                logger.Named("upload"),
		compensateAttempts: 3,                     //nolint:mnd // default attempts
		compensateDelay:    50 * time.Millisecond, //nolint:mnd // default delay
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	// retry-go treats zero attempts as unlimited
	if s.compensateAttempts == 0 {
		s.compensateAttempts = 1
	}
	return s
}

func (s *Service) OperationID() string { return OperationID }

// Execute validates in, writes the blob and inserts its record. On success the
// stored record, including its assigned id, is returned.
func (s *Service) Execute(ctx context.Context, in Input) (*video.Record, error) {
	if in.File == nil {
		return nil, errx.New("[upload]: no video file uploaded",
			errx.WithCode(CodeNoFile),
			errx.WithType(errx.T_Validation),
		)
	}

	// fail before any byte is written when the record could not be stored anyway
	err := video.CheckAvailable(ctx, s.status)
	if err != nil {
		return nil, err
	}

	blob, err := s.blobs.Create(ctx, in.ContentType, in.OriginalName, in.File)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	rec := &video.Record{
		Title:        normalizeTitle(in.Title, in.OriginalName),
		Description:  FirstValue(in.Description),
		Filename:     blob.Name,
		OriginalName: in.OriginalName,
		Path:         blob.Path,
		Size:         blob.Size,
		Mimetype:     blob.ContentType,
		UploadDate:   s.now().UTC(),
	}

	stored, err := s.store.Insert(ctx, rec)
	if err != nil {
		s.compensate(ctx, blob.Path)
		return nil, errx.Wrap(err)
	}

	s.log.WithContext(ctx).
		With("record_id", stored.ID, "path", stored.Path, "size", stored.Size).
		Info("video uploaded")
	return stored, nil
}

// compensate removes the blob of a failed upload. Failures are logged, never returned,
// so the insert error stays the one reported to the caller.
func (s *Service) compensate(ctx context.Context, path string) {
	// the request may already be canceled; the cleanup must still run
	ctx = context.WithoutCancel(ctx)
	log := s.log.WithContext(ctx).With("path", path)

	err := retry.Do(
		func() error {
			err := s.blobs.Delete(ctx, path)
			if errx.IsCodeIn(err, filestore.CodeFileNotFound) {
				return nil
			}
			return err
		},
		retry.Attempts(s.compensateAttempts),
		retry.Delay(s.compensateDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.With("attempt", n+1, "error", err.Error()).Warn("compensating blob delete failed, retrying")
		}),
		retry.Context(ctx),
	)
	if err != nil {
		log.Errorx(errx.Wrap(err, errx.WithDetails(errx.D{"path": path})))
		return
	}
	log.Info("blob of failed upload removed")
}
