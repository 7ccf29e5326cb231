package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/blobdrop/internal"
	"github.com/dmitrymomot/blobdrop/pkg/blob"
)

// MsgBlobNotFound is returned when a key has no stored object.
const MsgBlobNotFound = "Blob not found"

// BlobsHandler serves stored blobs and their descriptors.
type BlobsHandler struct {
	store blob.Store
}

// NewBlobs creates the read-side handler backed by store.
func NewBlobs(store blob.Store) *BlobsHandler {
	return &BlobsHandler{store: store}
}

// Routes declares the read routes. The wildcard is the full storage key.
func (h *BlobsHandler) Routes(r internal.Router) {
	r.Route("/api/storage", func(r internal.Router) {
		r.GET("/head/*", h.head)
		r.GET("/serve/*", h.serve)
	})
}

// head returns the object descriptor as JSON.
func (h *BlobsHandler) head(c internal.Context) error {
	key := c.Param("*")
	if key == "" {
		return internal.ErrNotFound(MsgBlobNotFound)
	}

	obj, err := h.store.Head(c, key)
	if err != nil {
		return notFoundOr(err)
	}
	return c.JSON(http.StatusOK, obj)
}

// serve streams the object content.
func (h *BlobsHandler) serve(c internal.Context) error {
	key := c.Param("*")
	if key == "" {
		return internal.ErrNotFound(MsgBlobNotFound)
	}

	rc, obj, err := h.store.Get(c, key)
	if err != nil {
		return notFoundOr(err)
	}
	defer rc.Close()

	c.SetHeader("Content-Type", obj.ContentType)
	c.SetHeader("Content-Length", strconv.FormatInt(obj.Size, 10))
	if obj.HTTPEtag != "" {
		c.SetHeader("ETag", obj.HTTPEtag)
	}
	if !obj.UploadedAt.IsZero() {
		c.SetHeader("Last-Modified", obj.UploadedAt.UTC().Format(http.TimeFormat))
	}

	c.ResponseWriter().WriteHeader(http.StatusOK)
	if _, err := io.Copy(c.Response(), rc); err != nil {
		c.LogWarn("blob stream interrupted", "key", key, "error", err)
	}
	return nil
}

func notFoundOr(err error) error {
	if errors.Is(err, blob.ErrNotFound) {
		return internal.ErrNotFound(MsgBlobNotFound, internal.WithError(err))
	}
	return err
}
