package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/blobdrop/pkg/blob"
)

type putCall struct {
	key         string
	contentType string
	data        []byte
	size        int64
}

// recordingStore records Put calls. Other methods are not used by uploads.
type recordingStore struct {
	blob.Store

	err   error
	mu    sync.Mutex
	calls []putCall
}

func (s *recordingStore) Put(_ context.Context, key string, r io.Reader, opts ...blob.PutOption) (*blob.Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	// Resolve options through a real store so the fake sees what backends see.
	mem := blob.NewMemoryStore()
	obj, err := mem.Put(context.Background(), key, bytes.NewReader(data), opts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.calls = append(s.calls, putCall{key: key, contentType: obj.ContentType, data: data, size: obj.Size})
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	obj.UploadedAt = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return obj, nil
}

func (s *recordingStore) puts() []putCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]putCall(nil), s.calls...)
}

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *outcomeRecorder) RecordUpload(outcome string) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, outcome)
	r.mu.Unlock()
}

func (r *outcomeRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.outcomes...)
}

// filePart describes one multipart file part. A nil part means the form
// carries only a text field.
type filePart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func newUploadRequest(t *testing.T, part *filePart) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "hello"))

	if part != nil {
		field := part.field
		if field == "" {
			field = "file"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, part.filename))
		if part.contentType != "" {
			h.Set("Content-Type", part.contentType)
		}
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(part.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/storage/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}
