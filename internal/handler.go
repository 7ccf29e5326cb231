package internal

// Handler declares routes on a router.
//
// Example:
//
//	type Upload struct {
//	    store blob.Store
//	}
//
//	func (h *Upload) Routes(r internal.Router) {
//	    r.POST("/api/storage/upload", h.upload)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers.
// Returning a non-nil error hands it to the app's ErrorHandler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc.
//
// Example:
//
//	func Timing(next internal.HandlerFunc) internal.HandlerFunc {
//	    return func(c internal.Context) error {
//	        start := time.Now()
//	        err := next(c)
//	        c.LogDebug("handled", slog.Duration("took", time.Since(start)))
//	        return err
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler renders errors returned from handlers and middleware.
type ErrorHandler func(Context, error) error
