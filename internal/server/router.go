package server

import (
	"net/http"
	"strings"
)

// BasicRouter is a simple HTTP router implementing the [Router] interface.
//
// Uses [http.ServeMux] method patterns internally, so handlers read path
// parameters with [http.Request.PathValue].
type BasicRouter struct {
	mux         *http.ServeMux
	prefix      string
	middlewares []Middleware
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:         http.NewServeMux(),
		middlewares: []Middleware{},
	}
}

// Use adds [Middleware] to the [Router] instance's middleware stack, applied in the order it's added.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Group returns a router that shares the mux and prepends prefix to every path.
//
// The group starts with a copy of the parent's middleware; middleware added to the
// group does not affect the parent.
func (r *BasicRouter) Group(prefix string, middleware ...Middleware) *BasicRouter {
	mw := make([]Middleware, 0, len(r.middlewares)+len(middleware))
	mw = append(mw, r.middlewares...)
	mw = append(mw, middleware...)
	return &BasicRouter{
		mux:         r.mux,
		prefix:      r.prefix + strings.TrimRight(prefix, "/"),
		middlewares: mw,
	}
}

// Handle registers a [Handler] for the specified HTTP method and path.
//
// The handler is wrapped with all registered middleware. An empty path registers the
// group prefix itself.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	pattern := r.prefix + path
	if pattern == "" {
		pattern = "/"
	}
	if method != "" {
		pattern = strings.ToUpper(method) + " " + pattern
	}
	r.mux.Handle(pattern, r.Apply(handler))
}

// HandleFunc is [BasicRouter.Handle] for plain functions.
func (r *BasicRouter) HandleFunc(method, path string, fn http.HandlerFunc) {
	r.Handle(method, path, fn)
}

// Handler registers a custom Handler implementation.
//
// All routes returned by [Handler.Routes] are registered with this handler.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.Apply(handler)

	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware.
//
// Middleware is applied in reverse order (last added wraps first).
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}

	return wrapped
}
