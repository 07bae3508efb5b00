package devserver

import (
	"bytes"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var scriptTag = []byte(`<script async src="` + clientPath + `"></script>`)

// staticHandler serves files below root. HTML responses carry the
// live-reload client.
type staticHandler struct {
	root   string
	index  []string
	logger *slog.Logger
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// path.Clean on a rooted path never climbs above "/".
	name := filepath.Join(h.root, filepath.FromSlash(path.Clean("/"+r.URL.Path)))

	info, err := os.Stat(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if info.IsDir() {
		if !strings.HasSuffix(r.URL.Path, "/") {
			http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
			return
		}
		name, info = h.findIndex(name)
		if info == nil {
			http.NotFound(w, r)
			return
		}
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".html" && ext != ".htm" {
		http.ServeFile(w, r, name)
		return
	}

	body, err := os.ReadFile(name)
	if err != nil {
		h.logger.Warn("Cannot read file.", "path", name, "error", err)
		http.Error(w, "cannot read file", http.StatusInternalServerError)
		return
	}
	body = injectScript(body)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, filepath.Base(name), info.ModTime(), bytes.NewReader(body))
}

func (h *staticHandler) findIndex(dir string) (string, os.FileInfo) {
	for _, idx := range h.index {
		p := filepath.Join(dir, idx)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, info
		}
	}
	return "", nil
}

// injectScript inserts the live-reload client before the last </body>, or
// appends it when the document has none.
func injectScript(body []byte) []byte {
	i := bytes.LastIndex(bytes.ToLower(body), []byte("</body>"))
	if i < 0 {
		return append(body, scriptTag...)
	}
	out := make([]byte, 0, len(body)+len(scriptTag))
	out = append(out, body[:i]...)
	out = append(out, scriptTag...)
	return append(out, body[i:]...)
}
