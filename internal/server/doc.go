// Package server provides the temporary HTTP server used by the "callback" authorization mode.
//
// [BasicRouter] wraps [http.ServeMux] with method filtering and a [Middleware] stack applied in reverse order
// (last added wraps first). [LogRequests] is the only middleware in use.
//
// [OAuthHandler] serves the redirect URI. It validates the state parameter, captures the authorization code
// and sends it through a channel exactly once; later hits are rejected.
package server
