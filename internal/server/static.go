package server

import (
	"net/http"
	"path/filepath"
)

// IndexPage is the chat frontend served at /
const IndexPage = "frontend_agent.html"

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.opts.StaticDir, IndexPage))
}
