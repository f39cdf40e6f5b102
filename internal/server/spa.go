package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// handleWebClient serves the built board client from dir. Unknown paths get
// index.html so the client can route them.
func handleWebClient(dir string) http.HandlerFunc {
	files := http.FileServer(http.Dir(dir))

	return func(w http.ResponseWriter, r *http.Request) {
		clean := path.Clean("/" + r.URL.Path)
		name := filepath.Join(dir, filepath.FromSlash(clean))
		if info, err := os.Stat(name); err != nil || info.IsDir() {
			clean = "/"
		}

		r2 := r.Clone(r.Context())
		r2.URL.Path = clean
		r2.URL.RawPath = ""
		files.ServeHTTP(w, r2)
	}
}
