package functions

import (
	"io"
	"net/http"

	"github.com/rs/cors"
)

// HTTPHandler mounts the functions on a net/http mux for local runs.
func (f *Functions) HTTPHandler() http.Handler {
	h := f.Handlers()
	mux := http.NewServeMux()

	routes := []struct {
		pattern string
		fn      string
	}{
		{"POST /register", "register"},
		{"POST /login", "login"},
		{"GET /users", "getAllUsers"},
		{"GET /users/search", "searchUsers"},
		{"GET /users/me", "getProfile"},
		{"POST /tasks", "createTask"},
		{"GET /tasks", "listTasks"},
		{"PUT /tasks/{id}", "updateTask"},
		{"DELETE /tasks/{id}", "deleteTask"},
		{"GET /presign-upload", "presignUpload"},
		{"GET /presign-download", "presignDownload"},
	}
	for _, rt := range routes {
		mux.Handle(rt.pattern, adapt(h[rt.fn]))
	}

	return cors.AllowAll().Handler(mux)
}

func adapt(fn Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			http.Error(w, `{"success":false,"message":"Request body too large"}`, http.StatusRequestEntityTooLarge)
			return
		}

		req := Request{
			Method:     r.Method,
			Path:       r.URL.Path,
			PathParams: map[string]string{"id": r.PathValue("id")},
			Query:      map[string]string{},
			Headers:    map[string]string{},
			Body:       string(body),
		}
		for k := range r.URL.Query() {
			req.Query[k] = r.URL.Query().Get(k)
		}
		for k := range r.Header {
			req.Headers[k] = r.Header.Get(k)
		}

		resp := fn(r.Context(), req)
		for k, v := range resp.Headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(resp.StatusCode)
		io.WriteString(w, resp.Body)
	})
}
