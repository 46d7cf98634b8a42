package video

import (
	"github.com/code19m/errx"
	"github.com/rise-and-shine/vidstream/val"
)

// Error codes for video metadata operations.
const (
	// CodeVideoNotFound is returned when no record exists with the requested id.
	CodeVideoNotFound = "VIDEO_NOT_FOUND"

	// CodeStoreUnavailable is returned when the metadata backend cannot be reached.
	CodeStoreUnavailable = "STORE_UNAVAILABLE"

	// CodeValidationFailed is returned when a record is missing required attributes.
	CodeValidationFailed = val.CodeValidationFailed
)

// NotFound builds the error returned for an unknown record id.
func NotFound(id string) error {
	return errx.New("[video]: video not found",
		errx.WithCode(CodeVideoNotFound),
		errx.WithType(errx.T_NotFound),
		errx.WithDetails(errx.D{"id": id}),
	)
}

// Unavailable builds the error returned when the metadata backend is unreachable.
// cause may be nil when the condition was detected by a status check.
func Unavailable(cause error, state ConnState) error {
	details := errx.D{"state": string(state)}
	if cause == nil {
		return errx.New("[video]: database not connected",
			errx.WithCode(CodeStoreUnavailable),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(details),
		)
	}
	return errx.Wrap(cause,
		errx.WithCode(CodeStoreUnavailable),
		errx.WithType(errx.T_Internal),
		errx.WithDetails(details),
	)
}

// IsUnavailable reports whether err signals an unreachable metadata backend.
func IsUnavailable(err error) bool {
	return errx.IsCodeIn(err, CodeStoreUnavailable)
}
