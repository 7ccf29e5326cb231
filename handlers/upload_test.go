package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/blobdrop/handlers"
	"github.com/dmitrymomot/blobdrop/internal"
	"github.com/dmitrymomot/blobdrop/pkg/blob"
)

func newUploadApp(store blob.Store, opts ...handlers.UploadOption) http.Handler {
	return internal.New(
		internal.WithErrorHandler(handlers.ErrorHandler(nil)),
		internal.WithHandlers(handlers.NewUpload(store, opts...)),
	).Router()
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestUpload_Stores(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	rec := &outcomeRecorder{}
	app := newUploadApp(store, handlers.WithUploadRecorder(rec))

	data := bytes.Repeat([]byte{0xAB}, 1024)
	w := do(app, newUploadRequest(t, &filePart{filename: "cat.png", contentType: "image/png", data: data}))

	require.Equal(t, http.StatusOK, w.Code)

	puts := store.puts()
	require.Len(t, puts, 1)
	require.Equal(t, "images/cat.png", puts[0].key)
	require.Equal(t, data, puts[0].data)
	require.Equal(t, "image/png", puts[0].contentType)
	require.Equal(t, int64(1024), puts[0].size)

	var obj blob.Object
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &obj))
	require.Equal(t, "images/cat.png", obj.Pathname)
	require.Equal(t, "image/png", obj.ContentType)
	require.Equal(t, int64(1024), obj.Size)
	require.NotEmpty(t, obj.HTTPEtag)
	require.Contains(t, w.Body.String(), `"uploadedAt":"2024-01-02T03:04:05Z"`)

	require.Equal(t, []string{handlers.OutcomeStored}, rec.all())
}

func TestUpload_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		part    *filePart
		message string
		outcome string
	}{
		{
			name:    "no file field",
			part:    nil,
			message: handlers.MsgNoFile,
			outcome: handlers.OutcomeNoFile,
		},
		{
			name:    "file under another field",
			part:    &filePart{field: "avatar", filename: "cat.png", contentType: "image/png", data: []byte("png")},
			message: handlers.MsgNoFile,
			outcome: handlers.OutcomeNoFile,
		},
		{
			name:    "zero bytes",
			part:    &filePart{filename: "cat.png", contentType: "image/png", data: nil},
			message: handlers.MsgNoFile,
			outcome: handlers.OutcomeNoFile,
		},
		{
			name:    "pdf",
			part:    &filePart{filename: "doc.pdf", contentType: "application/pdf", data: bytes.Repeat([]byte("x"), 500)},
			message: handlers.MsgNotImage,
			outcome: handlers.OutcomeNotImage,
		},
		{
			name:    "text/plain",
			part:    &filePart{filename: "a.txt", contentType: "text/plain", data: []byte("hi")},
			message: handlers.MsgNotImage,
			outcome: handlers.OutcomeNotImage,
		},
		{
			name:    "no declared type",
			part:    &filePart{filename: "a.png", contentType: "", data: []byte("png")},
			message: handlers.MsgNotImage,
			outcome: handlers.OutcomeNotImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &recordingStore{}
			rec := &outcomeRecorder{}
			app := newUploadApp(store, handlers.WithUploadRecorder(rec))

			w := do(app, newUploadRequest(t, tt.part))

			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Equal(t, tt.message, decodeError(t, w))
			require.Empty(t, store.puts())
			require.Equal(t, []string{tt.outcome}, rec.all())
		})
	}
}

func TestUpload_EmptyFilename(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	rec := &outcomeRecorder{}
	app := newUploadApp(store, handlers.WithUploadRecorder(rec))

	w := do(app, newUploadRequest(t, &filePart{filename: "", contentType: "image/png", data: []byte("png")}))

	require.Equal(t, http.StatusOK, w.Code)
	puts := store.puts()
	require.Len(t, puts, 1)
	require.Equal(t, "images/", puts[0].key)
	require.Equal(t, []byte("png"), puts[0].data)
	require.Equal(t, []string{handlers.OutcomeStored}, rec.all())
}

func TestUpload_PlainValueIsNotAFile(t *testing.T) {
	t.Parallel()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField(handlers.UploadField, "cat.png"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/storage/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	store := &recordingStore{}
	w := do(newUploadApp(store), req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, handlers.MsgNoFile, decodeError(t, w))
	require.Empty(t, store.puts())
}

func TestUpload_DeclaredTypeIgnoresCase(t *testing.T) {
	t.Parallel()

	for _, contentType := range []string{"IMAGE/PNG", "Image/png"} {
		t.Run(contentType, func(t *testing.T) {
			t.Parallel()

			store := &recordingStore{}
			app := newUploadApp(store)

			w := do(app, newUploadRequest(t, &filePart{filename: "a.png", contentType: contentType, data: []byte("png")}))

			require.Equal(t, http.StatusOK, w.Code)
			puts := store.puts()
			require.Len(t, puts, 1)
			require.Equal(t, "images/a.png", puts[0].key)
			require.Equal(t, contentType, puts[0].contentType)
		})
	}
}

func TestUpload_SpillsLargeFileToDisk(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	app := newUploadApp(store, handlers.WithSpoolMemory(64))

	data := bytes.Repeat([]byte("0123456789"), 100)
	w := do(app, newUploadRequest(t, &filePart{filename: "big.png", contentType: "image/png", data: data}))

	require.Equal(t, http.StatusOK, w.Code)
	puts := store.puts()
	require.Len(t, puts, 1)
	require.Equal(t, data, puts[0].data)
	require.Equal(t, int64(len(data)), puts[0].size)
}

func TestUpload_SameNameTwice(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	app := newUploadApp(store)

	part := &filePart{filename: "cat.png", contentType: "image/png", data: []byte("same bytes")}
	require.Equal(t, http.StatusOK, do(app, newUploadRequest(t, part)).Code)
	require.Equal(t, http.StatusOK, do(app, newUploadRequest(t, part)).Code)

	puts := store.puts()
	require.Len(t, puts, 2)
	require.Equal(t, puts[0].key, puts[1].key)
	require.Equal(t, puts[0].data, puts[1].data)
}

func TestUpload_OverwritesInMemoryStore(t *testing.T) {
	t.Parallel()

	store := blob.NewMemoryStore()
	app := newUploadApp(store)

	first := &filePart{filename: "cat.png", contentType: "image/png", data: []byte("v1")}
	second := &filePart{filename: "cat.png", contentType: "image/gif", data: []byte("version two")}
	require.Equal(t, http.StatusOK, do(app, newUploadRequest(t, first)).Code)
	require.Equal(t, http.StatusOK, do(app, newUploadRequest(t, second)).Code)

	require.Equal(t, 1, store.Len())
	obj, err := store.Head(t.Context(), "images/cat.png")
	require.NoError(t, err)
	require.Equal(t, "image/gif", obj.ContentType)
	require.Equal(t, int64(len("version two")), obj.Size)
}

func TestUpload_BodyTooLarge(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	rec := &outcomeRecorder{}
	app := newUploadApp(store, handlers.WithMaxBytes(512), handlers.WithUploadRecorder(rec))

	w := do(app, newUploadRequest(t, &filePart{filename: "big.png", contentType: "image/png", data: bytes.Repeat([]byte("x"), 4096)}))

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	require.Equal(t, handlers.MsgFileTooLarge, decodeError(t, w))
	require.Empty(t, store.puts())
	require.Equal(t, []string{handlers.OutcomeError}, rec.all())
}

func TestUpload_NotMultipart(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	app := newUploadApp(store)

	req := httptest.NewRequest(http.MethodPost, "/api/storage/upload", strings.NewReader(`{"file":"cat.png"}`))
	req.Header.Set("Content-Type", "application/json")

	w := do(app, req)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "Internal Server Error", decodeError(t, w))
	require.Empty(t, store.puts())
}

func TestUpload_StoreFailure(t *testing.T) {
	t.Parallel()

	store := &recordingStore{err: errors.Join(blob.ErrUploadFailed, errors.New("backend down"))}
	rec := &outcomeRecorder{}
	app := newUploadApp(store, handlers.WithUploadRecorder(rec))

	w := do(app, newUploadRequest(t, &filePart{filename: "cat.png", contentType: "image/png", data: []byte("png")}))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "Internal Server Error", decodeError(t, w))
	require.Len(t, store.puts(), 1)
	require.Equal(t, []string{handlers.OutcomeError}, rec.all())
}

func TestUpload_CustomPath(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	app := newUploadApp(store, handlers.WithUploadPath("/upload"))

	req := newUploadRequest(t, &filePart{filename: "cat.png", contentType: "image/png", data: []byte("png")})
	req.URL.Path = "/upload"

	require.Equal(t, http.StatusOK, do(app, req).Code)
	require.Len(t, store.puts(), 1)
}
