// Package internal is the HTTP application core: an [App] built on chi, the
// [Context] handlers receive, routing, error rendering hooks and the server
// lifecycle.
//
// Handlers return errors instead of writing failures themselves. Whatever a
// handler or middleware returns goes to the [ErrorHandler] set with
// [WithErrorHandler], unless a response has already been started:
//
//	func (h *Upload) upload(c internal.Context) error {
//	    _, hdr, err := c.FormFile("file")
//	    if errors.Is(err, http.ErrMissingFile) {
//	        return internal.ErrBadRequest("No file provided")
//	    }
//	    ...
//	}
//
// Context implements context.Context, so it can be handed directly to
// storage calls and is cancelled when the client goes away.
//
// [App.Run] listens, serves until SIGINT or SIGTERM, then drains connections
// and runs shutdown hooks within the configured timeout.
package internal
