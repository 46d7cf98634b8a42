package server

import (
	"errors"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"
	"github.com/rise-and-shine/vidstream/filestore"
	"github.com/rise-and-shine/vidstream/meta"
	"github.com/rise-and-shine/vidstream/upload"
	"github.com/rise-and-shine/vidstream/video"
	"github.com/spf13/cast"
)

// codeRouterError is used for errors raised by the router itself.
const codeRouterError = "ROUTER_ERROR"

// messages are the client-facing texts of known error codes.
//
//nolint:gochecknoglobals // read-only lookup table
var messages = map[string]string{
	video.CodeVideoNotFound:              "Video not found",
	video.CodeStoreUnavailable:           "Database not connected",
	video.CodeValidationFailed:           "Invalid video data",
	filestore.CodeFileNotFound:           "Video file not found",
	filestore.CodeUnsupportedContentType: "Only video files are allowed!",
	filestore.CodeFileTooLarge:           "File too large",
	filestore.CodeInvalidRange:           "Requested range not satisfiable",
	filestore.CodeIOFailure:              "Failed to read or write video file",
	upload.CodeNoFile:                    "No video file uploaded",
}

const internalMessage = "Internal server error"

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	TraceID string            `json:"trace_id,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Trace   string            `json:"trace,omitempty"`
	Details map[string]any    `json:"details,omitempty"`
}

// BuildErrorResponse maps err to an HTTP status and response body. It also sets
// headers the status requires, such as Content-Range for 416.
func BuildErrorResponse(c *fiber.Ctx, err error, hideDetails bool) (int, ErrorResponse) {
	e := mapAnyErrorToErrorX(err)
	status := statusFor(e)

	resp := ErrorResponse{
		Error:   messageFor(e, status),
		Code:    e.Code(),
		TraceID: meta.Get(c.UserContext(), meta.TraceID),
		Fields:  e.Fields(),
	}
	if !hideDetails {
		resp.Trace = e.Trace()
		resp.Details = e.Details()
	}

	if status == fiber.StatusRequestedRangeNotSatisfiable {
		if size, ok := e.Details()["size"]; ok {
			c.Set(fiber.HeaderContentRange, "bytes */"+cast.ToString(cast.ToInt64(size)))
		}
	}
	return status, resp
}

// WriteErrorResponse writes the JSON error response for err and returns err as an
// errx error for the middlewares above.
func WriteErrorResponse(c *fiber.Ctx, err error, hideDetails bool) error {
	status, resp := BuildErrorResponse(c, err, hideDetails)
	_ = c.Status(status).JSON(resp)
	return mapAnyErrorToErrorX(err)
}

// customErrorHandler writes an error response unless one was already written.
func customErrorHandler(hideDetails bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if c.Response().StatusCode() >= fiber.StatusBadRequest {
			return nil
		}
		_ = WriteErrorResponse(c, err, hideDetails)
		return nil
	}
}

func statusFor(e errx.ErrorX) int {
	switch e.Code() {
	case video.CodeStoreUnavailable:
		return fiber.StatusServiceUnavailable
	case filestore.CodeFileTooLarge:
		return fiber.StatusRequestEntityTooLarge
	case filestore.CodeInvalidRange:
		return fiber.StatusRequestedRangeNotSatisfiable
	case codeRouterError:
		if code := cast.ToInt(e.Details()["fiber_code"]); code >= fiber.StatusBadRequest {
			return code
		}
	}
	return mapErrorTypeToHTTPStatusCode(e.Type())
}

func messageFor(e errx.ErrorX, status int) string {
	if msg, ok := messages[e.Code()]; ok {
		return msg
	}
	if status >= fiber.StatusInternalServerError {
		return internalMessage
	}
	return e.Error()
}

// mapErrorTypeToHTTPStatusCode converts an errx.Type to the appropriate HTTP status code.
func mapErrorTypeToHTTPStatusCode(t errx.Type) int {
	switch t {
	case errx.T_Authentication:
		return fiber.StatusUnauthorized
	case errx.T_Forbidden:
		return fiber.StatusForbidden
	case errx.T_NotFound:
		return fiber.StatusNotFound
	case errx.T_Validation:
		return fiber.StatusBadRequest
	case errx.T_Conflict:
		return fiber.StatusConflict
	case errx.T_Throttling:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// mapAnyErrorToErrorX converts any error to an errx.ErrorX. Fiber errors keep
// their status through the "fiber_code" detail.
func mapAnyErrorToErrorX(err error) errx.ErrorX {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		var t errx.Type
		switch {
		case fiberErr.Code == fiber.StatusNotFound:
			t = errx.T_NotFound
		case fiberErr.Code >= fiber.StatusBadRequest && fiberErr.Code < fiber.StatusInternalServerError:
			t = errx.T_Validation
		default:
			t = errx.T_Internal
		}

		err = errx.New(
			fiberErr.Message,
			errx.WithCode(codeRouterError),
			errx.WithType(t),
			errx.WithDetails(errx.D{
				"fiber_code": fiberErr.Code,
				"fiber_msg":  fiberErr.Message,
			}),
		)
	}
	return errx.AsErrorX(err)
}
