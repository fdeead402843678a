// Package server provides HTTP routing, middleware, and an in-memory Vibra API for development.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /tracks/{id}") and
// supports prefixed groups with their own middleware via [BasicRouter.Group].
//
// # Dev API
//
// [API] implements the REST contract the client speaks: JSON bodies, {"error": "..."} failures,
// HS256 bearer tokens minted by [TokenIssuer], and playlist ownership checks (403 for another
// user's playlist, 404 for an unknown one). Data lives in a [Store] seeded by [Seed].
//
// `vibra dev serve` runs it with [Serve]; tests mount it on an httptest server.
package server
