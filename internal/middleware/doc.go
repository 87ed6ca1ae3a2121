// Package middleware provides the HTTP middleware wrapped around every
// broker route.
//
// The server chains them outermost first:
//
//	handler := middleware.Chain(mux,
//		middleware.RequestID,
//		middleware.Recovery,
//		middleware.Logger,
//		middleware.Compress,
//	)
//
// RequestID honours an incoming X-Request-ID header and generates a UUID
// otherwise; GetRequestID reads it back from the request context. Logger
// writes one structured line per request and demotes probe paths to debug.
// Recovery turns a handler panic into a Problem Details 500.
package middleware
