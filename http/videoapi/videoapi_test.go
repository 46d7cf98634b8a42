package videoapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rise-and-shine/vidstream/catalog"
	"github.com/rise-and-shine/vidstream/filestore/localfs"
	"github.com/rise-and-shine/vidstream/http/server"
	"github.com/rise-and-shine/vidstream/http/server/middleware"
	"github.com/rise-and-shine/vidstream/http/videoapi"
	"github.com/rise-and-shine/vidstream/observability/logger"
	"github.com/rise-and-shine/vidstream/reconcile"
	"github.com/rise-and-shine/vidstream/streaming"
	"github.com/rise-and-shine/vidstream/upload"
	"github.com/rise-and-shine/vidstream/video"
	"github.com/rise-and-shine/vidstream/video/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	app   *fiber.App
	root  string
	blobs *localfs.Store
	store *memstore.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	log, err := logger.New(logger.Config{Disable: true})
	require.NoError(t, err)

	root := t.TempDir()
	blobs, err := localfs.New(localfs.Config{Root: root, MaxSize: 4 << 20})
	require.NoError(t, err)
	store := memstore.New()

	srv := server.NewHTTPServer(server.Config{BodyLimit: 8 << 20, HideErrorDetails: true}, []server.Middleware{
		middleware.NewErrorHandlerMW(true),
		middleware.NewLoggerMW(log),
		middleware.NewMetaInjectMW("vidstream", "test"),
		middleware.NewRecoveryMW(log),
	})

	h := videoapi.New(videoapi.Config{
		HideErrorDetails: true,
		HandleTimeout:    5 * time.Second,
		StrayBlobGrace:   time.Hour,
	}, videoapi.Deps{
		Upload:    upload.New(blobs, store, store, upload.WithCompensation(1, time.Millisecond)),
		Catalog:   catalog.New(store),
		Streaming: streaming.New(store, blobs),
		Reconcile: reconcile.New(store, store, blobs),
		Status:    store,
	})
	srv.RegisterRouter(func(r fiber.Router) {
		h.Register(r.Group("/api"))
	})

	return fixture{app: srv.App(), root: root, blobs: blobs, store: store}
}

func (f fixture) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

type part struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, parts ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, p := range parts {
		if p.filename == "" {
			require.NoError(t, w.WriteField(p.field, string(p.data)))
			continue
		}
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.filename+`"`)
		h.Set("Content-Type", p.contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/upload", &body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func payload(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func (f fixture) upload(t *testing.T, name string, data []byte, fields ...part) video.Record {
	t.Helper()
	parts := append([]part{{field: "video", filename: name, contentType: "video/mp4", data: data}}, fields...)
	resp := f.do(t, multipartRequest(t, parts...))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var rec video.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	return rec
}

func decodeMap(t *testing.T, r io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(r).Decode(&out))
	return out
}

func TestUpload(t *testing.T) {
	f := newFixture(t)
	data := payload(1 << 20)

	rec := f.upload(t, "clip.mp4", data, part{field: "title", data: []byte("Intro")})

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "Intro", rec.Title)
	assert.Equal(t, "clip.mp4", rec.OriginalName)
	assert.Equal(t, int64(1<<20), rec.Size)
	assert.Equal(t, "video/mp4", rec.Mimetype)
	assert.Zero(t, rec.Views)
	assert.True(t, strings.HasPrefix(rec.Filename, "video-"))
	assert.True(t, strings.HasSuffix(rec.Filename, ".mp4"))

	stored, err := os.ReadFile(filepath.Join(f.root, rec.Path))
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestUpload_Rejected(t *testing.T) {
	tests := []struct {
		name       string
		parts      []part
		wantStatus int
		wantError  string
	}{
		{
			name:       "no file",
			parts:      []part{{field: "title", data: []byte("x")}},
			wantStatus: fiber.StatusBadRequest,
			wantError:  "No video file uploaded",
		},
		{
			name:       "wrong field",
			parts:      []part{{field: "file", filename: "a.mp4", contentType: "video/mp4", data: []byte("x")}},
			wantStatus: fiber.StatusBadRequest,
			wantError:  "No video file uploaded",
		},
		{
			name:       "not a video",
			parts:      []part{{field: "video", filename: "notes.txt", contentType: "text/plain", data: []byte("x")}},
			wantStatus: fiber.StatusBadRequest,
			wantError:  "Only video files are allowed!",
		},
		{
			name:       "too large",
			parts:      []part{{field: "video", filename: "big.mp4", contentType: "video/mp4", data: payload(4<<20 + 1)}},
			wantStatus: fiber.StatusRequestEntityTooLarge,
			wantError:  "File too large",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)

			resp := f.do(t, multipartRequest(t, tc.parts...))

			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			assert.Equal(t, tc.wantError, decodeMap(t, resp.Body)["error"])
			assert.Zero(t, f.store.Len())

			blobs, err := f.blobs.List(t.Context())
			require.NoError(t, err)
			assert.Empty(t, blobs)
		})
	}
}

func TestUpload_StoreUnavailable(t *testing.T) {
	f := newFixture(t)
	f.store.SetState(video.StateConnecting)

	resp := f.do(t, multipartRequest(t, part{field: "video", filename: "a.mp4", contentType: "video/mp4", data: payload(10)}))

	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "Database not connected", decodeMap(t, resp.Body)["error"])

	blobs, err := f.blobs.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, blobs)
}

func TestGetVideo_IncrementsViews(t *testing.T) {
	f := newFixture(t)
	rec := f.upload(t, "clip.mp4", payload(10))

	for want := int64(1); want <= 2; want++ {
		resp := f.do(t, httptest.NewRequest(fiber.MethodGet, "/api/videos/"+rec.ID, nil))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var got video.Record
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, want, got.Views)
	}

	resp := f.do(t, httptest.NewRequest(fiber.MethodGet, "/api/videos/missing", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Video not found", decodeMap(t, resp.Body)["error"])
}

func TestListVideos(t *testing.T) {
	f := newFixture(t)
	first := f.upload(t, "first.mp4", payload(10))
	time.Sleep(2 * time.Millisecond)
	second := f.upload(t, "second.mp4", payload(10))
	time.Sleep(2 * time.Millisecond)
	third := f.upload(t, "third.mp4", payload(10))

	require.NoError(t, os.Remove(filepath.Join(f.root, second.Path)))

	resp := f.do(t, httptest.NewRequest(fiber.MethodGet, "/api/videos", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got []video.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, third.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
	assert.Equal(t, 2, f.store.Len())
}

func TestListVideos_Empty(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, httptest.NewRequest(fiber.MethodGet, "/api/videos", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body))
}

func TestListVideos_StoreUnavailable(t *testing.T) {
	f := newFixture(t)
	f.store.SetState(video.StateDisconnected)

	resp := f.do(t, httptest.NewRequest(fiber.MethodGet, "/api/videos", nil))

	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	body := decodeMap(t, resp.Body)
	assert.Equal(t, "Database not connected", body["error"])
	assert.Equal(t, []any{}, body["videos"])
}

func TestStreamVideo(t *testing.T) {
	f := newFixture(t)
	data := payload(1000)
	rec := f.upload(t, "clip.mp4", data)
	streamPath := "/api/videos/" + rec.ID + "/stream"

	tests := []struct {
		name             string
		rangeHeader      string
		wantStatus       int
		wantContentRange string
		wantBody         []byte
	}{
		{
			name:       "full",
			wantStatus: fiber.StatusOK,
			wantBody:   data,
		},
		{
			name:             "closed range",
			rangeHeader:      "bytes=100-199",
			wantStatus:       fiber.StatusPartialContent,
			wantContentRange: "bytes 100-199/1000",
			wantBody:         data[100:200],
		},
		{
			name:             "open range",
			rangeHeader:      "bytes=900-",
			wantStatus:       fiber.StatusPartialContent,
			wantContentRange: "bytes 900-999/1000",
			wantBody:         data[900:],
		},
		{
			name:             "past the end",
			rangeHeader:      "bytes=1000-",
			wantStatus:       fiber.StatusRequestedRangeNotSatisfiable,
			wantContentRange: "bytes */1000",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, streamPath, nil)
			if tc.rangeHeader != "" {
				req.Header.Set(fiber.HeaderRange, tc.rangeHeader)
			}

			resp := f.do(t, req)

			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			assert.Equal(t, tc.wantContentRange, resp.Header.Get(fiber.HeaderContentRange))
			if tc.wantBody == nil {
				return
			}
			assert.Equal(t, "video/mp4", resp.Header.Get(fiber.HeaderContentType))
			assert.Equal(t, "bytes", resp.Header.Get(fiber.HeaderAcceptRanges))
			assert.Equal(t, strconv.Itoa(len(tc.wantBody)), resp.Header.Get(fiber.HeaderContentLength))

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tc.wantBody, body)
		})
	}
}

func TestStreamVideo_NotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.upload(t, "clip.mp4", payload(10))
	require.NoError(t, os.Remove(filepath.Join(f.root, rec.Path)))

	tests := []struct {
		id        string
		wantError string
	}{
		{id: "missing", wantError: "Video not found"},
		{id: rec.ID, wantError: "Video file not found"},
	}

	for _, tc := range tests {
		t.Run(tc.wantError, func(t *testing.T) {
			resp := f.do(t, httptest.NewRequest(fiber.MethodGet, "/api/videos/"+tc.id+"/stream", nil))

			assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
			assert.Equal(t, tc.wantError, decodeMap(t, resp.Body)["error"])
		})
	}

	// streaming reports orphans without reconciling them
	assert.Equal(t, 1, f.store.Len())
}

func TestDeleteVideo(t *testing.T) {
	f := newFixture(t)
	rec := f.upload(t, "clip.mp4", payload(10))

	resp := f.do(t, httptest.NewRequest(fiber.MethodDelete, "/api/videos/"+rec.ID, nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Video deleted successfully", decodeMap(t, resp.Body)["message"])

	_, err := os.Stat(filepath.Join(f.root, rec.Path))
	assert.True(t, os.IsNotExist(err))

	resp = f.do(t, httptest.NewRequest(fiber.MethodDelete, "/api/videos/"+rec.ID, nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCleanup(t *testing.T) {
	f := newFixture(t)
	kept := f.upload(t, "kept.mp4", payload(10))
	gone := f.upload(t, "gone.mp4", payload(10))
	require.NoError(t, os.Remove(filepath.Join(f.root, gone.Path)))

	resp := f.do(t, httptest.NewRequest(fiber.MethodPost, "/api/videos/cleanup", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeMap(t, resp.Body)
	assert.EqualValues(t, 1, body["deleted"])
	assert.Equal(t, "Cleaned up 1 orphaned video records", body["message"])
	assert.NotContains(t, body, "blobs_deleted")

	resp = f.do(t, httptest.NewRequest(fiber.MethodPost, "/api/videos/cleanup", nil))
	body = decodeMap(t, resp.Body)
	assert.EqualValues(t, 0, body["deleted"])
	assert.Equal(t, "No orphaned videos found", body["message"])

	_, err := f.store.GetByID(t.Context(), kept.ID)
	require.NoError(t, err)
}

func TestCleanup_StrayBlobs(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "kept.mp4", payload(10))

	stray, err := f.blobs.Create(t.Context(), "video/mp4", "stray.mp4", bytes.NewReader(payload(10)))
	require.NoError(t, err)
	fresh, err := f.blobs.Create(t.Context(), "video/mp4", "fresh.mp4", bytes.NewReader(payload(10)))
	require.NoError(t, err)

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(f.root, stray.Path), old, old))

	resp := f.do(t, httptest.NewRequest(fiber.MethodPost, "/api/videos/cleanup?blobs=true", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeMap(t, resp.Body)
	assert.EqualValues(t, 0, body["deleted"])
	assert.EqualValues(t, 1, body["blobs_deleted"])

	ok, err := f.blobs.Exists(t.Context(), stray.Path)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.blobs.Exists(t.Context(), fresh.Path)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCleanup_StoreUnavailable(t *testing.T) {
	f := newFixture(t)
	f.store.SetState(video.StateDisconnected)

	resp := f.do(t, httptest.NewRequest(fiber.MethodPost, "/api/videos/cleanup", nil))

	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "Database not connected", decodeMap(t, resp.Body)["error"])
}

func TestHealth(t *testing.T) {
	tests := []struct {
		state      video.ConnState
		wantStatus string
	}{
		{state: video.StateConnected, wantStatus: "ok"},
		{state: video.StateConnecting, wantStatus: "error"},
		{state: video.StateDisconnected, wantStatus: "error"},
	}

	for _, tc := range tests {
		t.Run(string(tc.state), func(t *testing.T) {
			f := newFixture(t)
			f.store.SetState(tc.state)

			resp := f.do(t, httptest.NewRequest(fiber.MethodGet, "/api/health", nil))

			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			body := decodeMap(t, resp.Body)
			assert.Equal(t, tc.wantStatus, body["status"])
			assert.Equal(t, string(tc.state), body["database"])
		})
	}
}
