package videoapi

import (
	"mime/multipart"
	"strconv"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"
	"github.com/rise-and-shine/vidstream/http/server"
	"github.com/rise-and-shine/vidstream/upload"
	"github.com/rise-and-shine/vidstream/video"
)

type healthResponse struct {
	Status   string          `json:"status"`
	Database video.ConnState `json:"database"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type cleanupResponse struct {
	Message      string `json:"message"`
	Deleted      int64  `json:"deleted"`
	BlobsDeleted *int   `json:"blobs_deleted,omitempty"`
}

type unavailableListResponse struct {
	server.ErrorResponse

	Videos []video.Record `json:"videos"`
}

func (h *Handler) health(c *fiber.Ctx) error {
	state := h.deps.Status.Status(c.UserContext())

	resp := healthResponse{Status: "error", Database: state}
	if state == video.StateConnected {
		resp.Status = "ok"
	}
	return errx.Wrap(c.JSON(resp))
}

func (h *Handler) upload(c *fiber.Ctx) error {
	in := upload.Input{}

	// a missing or unreadable file part leaves File nil and is rejected by the use case
	fh, err := c.FormFile(FormFieldVideo)
	if err == nil {
		var f multipart.File
		f, err = fh.Open()
		if err != nil {
			return errx.Wrap(err, errx.WithType(errx.T_Validation), errx.WithCode(upload.CodeNoFile))
		}
		defer f.Close()

		in.File = f
		in.OriginalName = fh.Filename
		in.ContentType = fh.Header.Get(fiber.HeaderContentType)
	}

	if form, ferr := c.MultipartForm(); ferr == nil {
		in.Title = form.Value["title"]
		in.Description = form.Value["description"]
	}

	rec, err := h.deps.Upload.Execute(c.UserContext(), in)
	if err != nil {
		return errx.Wrap(err)
	}
	return errx.Wrap(c.Status(fiber.StatusCreated).JSON(rec))
}

func (h *Handler) list(c *fiber.Ctx) error {
	records, err := h.deps.Reconcile.ListValid(c.UserContext())
	if video.IsUnavailable(err) {
		status, resp := server.BuildErrorResponse(c, err, h.cfg.HideErrorDetails)
		_ = c.Status(status).JSON(unavailableListResponse{ErrorResponse: resp, Videos: []video.Record{}})
		return errx.Wrap(err)
	}
	if err != nil {
		return errx.Wrap(err)
	}
	return errx.Wrap(c.JSON(records))
}

func (h *Handler) get(c *fiber.Ctx) error {
	rec, err := h.deps.Catalog.Fetch(c.UserContext(), c.Params("id"))
	if err != nil {
		return errx.Wrap(err)
	}
	return errx.Wrap(c.JSON(rec))
}

func (h *Handler) stream(c *fiber.Ctx) error {
	s, err := h.deps.Streaming.Open(c.UserContext(), c.Params("id"), c.Get(fiber.HeaderRange))
	if err != nil {
		return errx.Wrap(err)
	}

	c.Set(fiber.HeaderContentType, s.Record.Mimetype)
	c.Set(fiber.HeaderAcceptRanges, "bytes")
	if s.Window.Partial {
		c.Set(fiber.HeaderContentRange, s.Window.ContentRange())
		c.Status(fiber.StatusPartialContent)
	} else {
		c.Status(fiber.StatusOK)
	}

	h.log.WithContext(c.UserContext()).
		With("record_id", s.Record.ID, "start", s.Window.Start, "end", s.Window.End, "size", s.Window.Size).
		Debug("streaming video")

	// the response body takes ownership of s.Body and closes it after writing,
	// also when the client goes away mid-transfer
	c.Context().SetBodyStream(s.Body, int(s.Window.Length))
	return nil
}

func (h *Handler) delete(c *fiber.Ctx) error {
	err := h.deps.Reconcile.DeleteVideo(c.UserContext(), c.Params("id"))
	if err != nil {
		return errx.Wrap(err)
	}
	return errx.Wrap(c.JSON(messageResponse{Message: "Video deleted successfully"}))
}

func (h *Handler) cleanup(c *fiber.Ctx) error {
	ctx := c.UserContext()

	deleted, err := h.deps.Reconcile.Cleanup(ctx)
	if err != nil {
		return errx.Wrap(err)
	}

	resp := cleanupResponse{Deleted: deleted, Message: "No orphaned videos found"}
	if deleted > 0 {
		resp.Message = "Cleaned up " + strconv.FormatInt(deleted, 10) + " orphaned video records"
	}

	if c.QueryBool("blobs") {
		blobs, err := h.deps.Reconcile.SweepStrayBlobs(ctx, h.cfg.StrayBlobGrace)
		if err != nil {
			return errx.Wrap(err)
		}
		resp.BlobsDeleted = &blobs
	}
	return errx.Wrap(c.JSON(resp))
}
