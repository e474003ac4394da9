// Package httpmiddleware provides composable net/http middleware for the
// storefront server: panic recovery, CORS, rate limiting, request IDs,
// logging, and OpenTelemetry instrumentation.
package httpmiddleware

import "net/http"

// Middleware wraps an http.Handler with additional behaviour.
type Middleware func(http.Handler) http.Handler

// Wrap applies middlewares to a handler. The first middleware in the list
// becomes the outermost layer, so requests pass through them in the order
// given.
func Wrap(h http.Handler, mw ...Middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}
