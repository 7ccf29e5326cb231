package handlers

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/blobdrop/internal"
	"github.com/dmitrymomot/blobdrop/pkg/blob"
)

// UploadField is the multipart field carrying the file.
const UploadField = "file"

// Client-facing validation messages.
const (
	MsgNoFile   = "No file provided"
	MsgNotImage = "File must be an image"
)

// Upload outcomes reported to an UploadRecorder.
const (
	OutcomeStored   = "stored"
	OutcomeNoFile   = "no_file"
	OutcomeNotImage = "not_image"
	OutcomeError    = "error"
)

// UploadRecorder counts upload attempts by outcome.
type UploadRecorder interface {
	RecordUpload(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordUpload(string) {}

// UploadOption configures the upload handler.
type UploadOption func(*UploadHandler)

// WithUploadRecorder reports each upload's outcome to rec.
func WithUploadRecorder(rec UploadRecorder) UploadOption {
	return func(h *UploadHandler) {
		if rec != nil {
			h.recorder = rec
		}
	}
}

// WithMaxBytes caps the request body. Exceeding it fails the multipart
// decode with *http.MaxBytesError. Zero or negative means no cap.
func WithMaxBytes(n int64) UploadOption {
	return func(h *UploadHandler) {
		h.maxBytes = n
	}
}

// WithSpoolMemory sets how many bytes of the file part are buffered in
// memory before spilling to a temporary file. Default: 10 MiB.
func WithSpoolMemory(n int64) UploadOption {
	return func(h *UploadHandler) {
		if n > 0 {
			h.spoolMemory = n
		}
	}
}

// WithUploadPath overrides the route. Default: /api/storage/upload.
func WithUploadPath(path string) UploadOption {
	return func(h *UploadHandler) {
		if path != "" {
			h.path = path
		}
	}
}

// UploadHandler accepts a multipart image upload and writes it to the
// store under images/<filename>.
type UploadHandler struct {
	store       blob.Store
	recorder    UploadRecorder
	path        string
	maxBytes    int64
	spoolMemory int64
}

// NewUpload creates the upload handler backed by store.
func NewUpload(store blob.Store, opts ...UploadOption) *UploadHandler {
	h := &UploadHandler{
		store:    store,
		recorder:    nopRecorder{},
		path:        "/api/storage/upload",
		spoolMemory: defaultSpoolMemory,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes declares the upload route.
func (h *UploadHandler) Routes(r internal.Router) {
	r.POST(h.path, h.upload)
}

// upload validates the file field and puts it in the store.
// The declared content type is trusted as sent, compared case-insensitively;
// bytes are never sniffed. Repeated uploads of one filename overwrite the
// same key, and an empty filename maps to the bare images/ key.
func (h *UploadHandler) upload(c internal.Context) error {
	req := c.Request()
	if h.maxBytes > 0 {
		req.Body = http.MaxBytesReader(c.Response(), req.Body, h.maxBytes)
	}

	file, err := readFilePart(req, UploadField, h.spoolMemory)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			h.recorder.RecordUpload(OutcomeNoFile)
			return internal.ErrBadRequest(MsgNoFile, internal.WithError(err))
		}
		h.recorder.RecordUpload(OutcomeError)
		return err
	}
	defer file.Close()

	if file.size <= 0 {
		h.recorder.RecordUpload(OutcomeNoFile)
		return internal.ErrBadRequest(MsgNoFile)
	}

	if !blob.IsImageType(file.contentType) {
		h.recorder.RecordUpload(OutcomeNotImage)
		return internal.ErrBadRequest(MsgNotImage)
	}

	obj, err := h.store.Put(c, blob.ImageKey(file.filename), file.body,
		blob.WithContentType(file.contentType),
		blob.WithSize(file.size),
	)
	if err != nil {
		h.recorder.RecordUpload(OutcomeError)
		return err
	}

	h.recorder.RecordUpload(OutcomeStored)
	c.LogDebug("blob stored",
		"key", obj.Pathname,
		"size", obj.Size,
		"content_type", obj.ContentType,
	)
	return c.JSON(http.StatusOK, obj)
}
