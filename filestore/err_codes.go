package filestore

import "github.com/code19m/errx"

// Error codes for filestore operations.
const (
	// CodeFileNotFound is returned when no blob exists at the requested path.
	CodeFileNotFound = "FILE_NOT_FOUND"

	// CodeUnsupportedContentType is returned when the declared type is not a video type.
	CodeUnsupportedContentType = "UNSUPPORTED_CONTENT_TYPE"

	// CodeFileTooLarge is returned when the stream exceeds the maximum blob size.
	CodeFileTooLarge = "FILE_TOO_LARGE"

	// CodeInvalidRange is returned when a requested byte window lies outside the blob.
	CodeInvalidRange = "INVALID_RANGE"

	// CodeIOFailure is returned when reading or writing blob bytes fails.
	CodeIOFailure = "IO_FAILURE"
)

// NotFound builds the error returned when no blob exists at path.
func NotFound(path string) error {
	return errx.New("[filestore]: blob not found",
		errx.WithCode(CodeFileNotFound),
		errx.WithType(errx.T_NotFound),
		errx.WithDetails(errx.D{"path": path}),
	)
}

// UnsupportedContentType builds the error returned for non-video uploads.
func UnsupportedContentType(contentType string) error {
	return errx.New("[filestore]: only video files are allowed",
		errx.WithCode(CodeUnsupportedContentType),
		errx.WithType(errx.T_Validation),
		errx.WithDetails(errx.D{"content_type": contentType}),
	)
}

// TooLarge builds the error returned when an upload exceeds maxSize bytes.
func TooLarge(maxSize int64) error {
	return errx.New("[filestore]: file exceeds maximum allowed size",
		errx.WithCode(CodeFileTooLarge),
		errx.WithType(errx.T_Validation),
		errx.WithDetails(errx.D{"max_size": maxSize}),
	)
}

// InvalidRange builds the error returned for a byte window the blob cannot satisfy.
// The "size" detail lets transports answer with "Content-Range: bytes */size".
func InvalidRange(start, end, size int64) error {
	return errx.New("[filestore]: requested range not satisfiable",
		errx.WithCode(CodeInvalidRange),
		errx.WithType(errx.T_Validation),
		errx.WithDetails(errx.D{"start": start, "end": end, "size": size}),
	)
}

// IOFailure wraps a low-level read or write error.
func IOFailure(err error, details errx.D) error {
	return errx.Wrap(err,
		errx.WithCode(CodeIOFailure),
		errx.WithType(errx.T_Internal),
		errx.WithDetails(details),
	)
}
