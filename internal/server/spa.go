package server

import (
	"net/http"
	"os"
	"path/filepath"
)

// handleSPA serves the built scoreboard UI from dir. Client-side routes
// like /history/<id> have no file on disk, so any path that isn't a real
// file gets index.html and the router takes it from there.
func handleSPA(dir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean(r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, index)
	}
}
