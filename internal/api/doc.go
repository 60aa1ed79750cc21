// Package api provides the HTTP REST API and WebSocket server for
// TrustEdge Core.
//
// It exposes the trusted-device registry, remote command dispatch, and the
// audit trail to admin consoles, plus a WebSocket event stream carrying
// registry and command events in real time.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// # Authentication
//
// REST routes under /api/v1 (except /health and /auth/login) require a
// Bearer JWT obtained from POST /auth/login. WebSocket connections
// authenticate with a single-use ticket from POST /auth/ws-ticket so the
// JWT never appears in a URL.
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
package api
