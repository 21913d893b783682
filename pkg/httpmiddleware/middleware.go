// Package httpmiddleware provides composable net/http middleware for the
// server: recovery, CORS, rate limiting, request IDs, logging, and OTEL
// instrumentation.
package httpmiddleware

import "net/http"

// Middleware is a function that wraps an http.Handler with additional
// behavior.
type Middleware func(http.Handler) http.Handler

// Wrap applies the middlewares to h in order, so the first middleware in the
// list is the outermost one at request time.
func Wrap(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
