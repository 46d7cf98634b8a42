// Package miniowr provides a MinIO implementation of the filestore.BlobStore interface.
package miniowr

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/code19m/errx"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rise-and-shine/vidstream/filestore"
)

const (
	codeNoSuchKey = "NoSuchKey"
	codeNotFound  = "NotFound"
)

// Client implements the filestore.BlobStore interface using MinIO.
type Client struct {
	client   *minio.Client
	bucket   string
	maxSize  int64
	partSize uint64
	now      func() time.Time
}

// New creates a MinIO blob store client and makes sure the bucket exists.
func New(ctx context.Context, cfg Config) (*Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errx.Wrap(err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"bucket": cfg.Bucket}))
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{})
		if err != nil {
			return nil, errx.Wrap(err, errx.WithDetails(errx.D{"bucket": cfg.Bucket}))
		}
	}

	if cfg.MaxSize <= 0 {
		cfg.MaxSize = filestore.DefaultMaxSize
	}

	return &Client{
		client:   client,
		bucket:   cfg.Bucket,
		maxSize:  cfg.MaxSize,
		partSize: cfg.PartSize,
		now:      time.Now,
	}, nil
}

// Create streams r into a new object. The length is unknown up front, so the
// upload is multipart and aborted as soon as the stream grows past the maximum.
func (c *Client) Create(
	ctx context.Context,
	contentType, originalName string,
	r io.Reader,
) (*filestore.BlobInfo, error) {
	if !filestore.IsVideo(contentType) {
		return nil, filestore.UnsupportedContentType(contentType)
	}

	name := filestore.GenerateName(originalName, c.now())
	key := filestore.PathFor(name)

	lr := &limitReader{r: r, remaining: c.maxSize}
	info, err := c.client.PutObject(ctx, c.bucket, key, lr, -1, minio.PutObjectOptions{
		ContentType: contentType,
		PartSize:    c.partSize,
	})
	if lr.exceeded {
		_ = c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{})
		return nil, filestore.TooLarge(c.maxSize)
	}
	if err != nil {
		return nil, filestore.IOFailure(err, errx.D{"bucket": c.bucket, "key": key})
	}

	return &filestore.BlobInfo{
		Name:         name,
		Path:         key,
		Size:         info.Size,
		ContentType:  contentType,
		LastModified: info.LastModified,
	}, nil
}

// Exists checks if an object exists at the specified path.
func (c *Client) Exists(ctx context.Context, path string) (bool, error) {
	_, err := c.client.StatObject(ctx, c.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, filestore.IOFailure(err, errx.D{"key": path})
	}
	return true, nil
}

// Delete removes the object at path. MinIO deletes are idempotent, so the object
// is stat'ed first to report missing blobs.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.client.StatObject(ctx, c.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		return c.wrapMinioError(err, path)
	}

	err = c.client.RemoveObject(ctx, c.bucket, path, minio.RemoveObjectOptions{})
	if err != nil {
		return c.wrapMinioError(err, path)
	}
	return nil
}

// OpenRange fetches the inclusive byte window [start, end] of the object.
func (c *Client) OpenRange(ctx context.Context, path string, start, end int64) (io.ReadCloser, error) {
	stat, err := c.client.StatObject(ctx, c.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		return nil, c.wrapMinioError(err, path)
	}

	end, length, err := filestore.ResolveWindow(start, end, stat.Size)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return io.NopCloser(strings.NewReader("")), nil
	}

	opts := minio.GetObjectOptions{}
	err = opts.SetRange(start, end)
	if err != nil {
		return nil, filestore.InvalidRange(start, end, stat.Size)
	}

	obj, err := c.client.GetObject(ctx, c.bucket, path, opts)
	if err != nil {
		return nil, c.wrapMinioError(err, path)
	}
	return obj, nil
}

// Size returns the byte length of the object at path.
func (c *Client) Size(ctx context.Context, path string) (int64, error) {
	stat, err := c.client.StatObject(ctx, c.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		return 0, c.wrapMinioError(err, path)
	}
	return stat.Size, nil
}

// List returns every object under the video prefix.
func (c *Client) List(ctx context.Context) ([]filestore.BlobInfo, error) {
	var blobs []filestore.BlobInfo
	for obj := range c.client.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    filestore.VideoPrefix + "/",
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, filestore.IOFailure(obj.Err, errx.D{"bucket": c.bucket})
		}
		blobs = append(blobs, filestore.BlobInfo{
			Name:         strings.TrimPrefix(obj.Key, filestore.VideoPrefix+"/"),
			Path:         obj.Key,
			Size:         obj.Size,
			ContentType:  obj.ContentType,
			LastModified: obj.LastModified,
		})
	}
	return blobs, nil
}

// wrapMinioError converts MinIO errors to filestore error codes.
func (c *Client) wrapMinioError(err error, path string) error {
	if isNotFound(err) {
		return filestore.NotFound(path)
	}
	return filestore.IOFailure(err, errx.D{"bucket": c.bucket, "key": path})
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == codeNoSuchKey || code == codeNotFound
}

var errLimitExceeded = errors.New("object exceeds maximum size")

// limitReader fails the read that would push the stream past remaining bytes.
type limitReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (l *limitReader) Read(p []byte) (int, error) {
	if l.exceeded {
		return 0, errLimitExceeded
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		l.exceeded = true
		return 0, errLimitExceeded
	}
	return n, err
}
