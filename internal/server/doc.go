// Package server provides HTTP routing, middleware, and the PKCE
// authorization callback.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Callback Handler
//
// [CallbackHandler] completes the PKCE authorization code flow: the
// provider redirects back with a state and code, the handler hands both
// to the token lifecycle manager, and the exchange result is delivered
// through a channel. It only processes one callback to prevent replay.
//
// # Current Usage
//
// When a user connects a provider, a temporary HTTP server starts on the
// configured host/port, handles the callback, and shuts down after
// receiving the token record.
package server
