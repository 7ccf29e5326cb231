package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrymomot/blobdrop/internal"
)

// routes serves GET / and GET /blobs/* through fn.
type routes struct {
	fn internal.HandlerFunc
}

func (h routes) Routes(r internal.Router) {
	r.GET("/", h.fn)
	r.GET("/blobs/*", h.fn)
}

// serve runs req through an App with the given middleware and route handler.
func serve(t *testing.T, req *http.Request, fn internal.HandlerFunc, opts ...internal.Option) *httptest.ResponseRecorder {
	t.Helper()

	opts = append(opts, internal.WithHandlers(routes{fn: fn}))
	app := internal.New(opts...)

	w := httptest.NewRecorder()
	app.Router().ServeHTTP(w, req)
	return w
}

func respondOK(c internal.Context) error {
	return c.String(http.StatusOK, "ok")
}
