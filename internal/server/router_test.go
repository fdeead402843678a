package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBasicRouter(t *testing.T) {
	t.Run("method patterns and path values", func(t *testing.T) {
		r := NewBasicRouter()
		r.HandleFunc(http.MethodGet, "/items/{id}", func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte("item " + req.PathValue("id")))
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))
		if rec.Body.String() != "item 42" {
			t.Errorf("expected item 42, got %q", rec.Body.String())
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/items/42", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, req)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("first"), mark("second"))
		r.HandleFunc(http.MethodGet, "/", func(http.ResponseWriter, *http.Request) { order = append(order, "handler") })

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("groups", func(t *testing.T) {
		var parentHits, groupHits int
		count := func(n *int) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					*n++
					next.ServeHTTP(w, req)
				})
			}
		}
		ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

		r := NewBasicRouter()
		r.Use(count(&parentHits))
		g := r.Group("/api/", count(&groupHits))
		g.HandleFunc(http.MethodGet, "/a", ok)
		g.HandleFunc(http.MethodGet, "", ok)
		r.HandleFunc(http.MethodGet, "/b", ok)

		for _, path := range []string{"/api/a", "/api", "/b"} {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Code != http.StatusOK {
				t.Errorf("expected 200 for %s, got %d", path, rec.Code)
			}
		}
		if parentHits != 3 || groupHits != 2 {
			t.Errorf("expected parent=3 group=2, got %d/%d", parentHits, groupHits)
		}
	})
}

type staticHandler struct{ routes []string }

func (s staticHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("static")) }
func (s staticHandler) Routes() []string                                 { return s.routes }

func TestRouterHandler(t *testing.T) {
	r := NewBasicRouter()
	r.Handler(staticHandler{routes: []string{"/one", "/two"}})

	for _, path := range []string{"/one", "/two"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Body.String() != "static" {
			t.Errorf("expected static for %s, got %q", path, rec.Body.String())
		}
	}
}
