package spa

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const indexFile = "index.html"

// DefaultMaxAge is the Cache-Control max-age for assets other than index.html.
const DefaultMaxAge = 24 * time.Hour

// Options configures a [Handler].
type Options struct {
	// ExcludePrefixes never fall back to index.html. Defaults to ["/api/"].
	ExcludePrefixes []string
	// MaxAge is the cache lifetime for assets. Zero means DefaultMaxAge; a
	// negative value disables caching.
	MaxAge time.Duration
}

// Handler is an http.Handler serving files from an fs.FS with SPA fallback.
type Handler struct {
	root     fs.FS
	excluded []string
	cache    string
}

// New returns a Handler serving root.
func New(root fs.FS, opts Options) *Handler {
	excluded := opts.ExcludePrefixes
	if excluded == nil {
		excluded = []string{"/api/"}
	}

	maxAge := opts.MaxAge
	if maxAge == 0 {
		maxAge = DefaultMaxAge
	}
	cache := "no-cache"
	if maxAge > 0 {
		cache = "public, max-age=" + strconv.FormatInt(int64(maxAge/time.Second), 10)
	}

	return &Handler{
		root:     root,
		excluded: append([]string(nil), excluded...),
		cache:    cache,
	}
}

// NewDir serves the directory dir.
func NewDir(dir string, opts Options) *Handler {
	return New(os.DirFS(dir), opts)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	name, ok := cleanPath(r.URL.Path)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "Not found")
		return
	}

	for _, prefix := range h.excluded {
		if strings.HasPrefix("/"+name+"/", prefix) {
			writeJSONError(w, http.StatusNotFound, "Not found")
			return
		}
	}

	if name != "" {
		if err := h.serveFile(w, r, name); err == nil {
			return
		} else if !errors.Is(err, fs.ErrNotExist) {
			writeJSONError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	if err := h.serveFile(w, r, indexFile); err != nil {
		writeJSONError(w, http.StatusNotFound, "Not found")
	}
}

// cleanPath maps a URL path to an fs.FS name. "" means the root. Paths with ".."
// segments or other invalid names are rejected.
func cleanPath(urlPath string) (string, bool) {
	for _, seg := range strings.Split(urlPath, "/") {
		if seg == ".." {
			return "", false
		}
	}
	if strings.ContainsAny(urlPath, "\\\x00") {
		return "", false
	}

	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		return "", true
	}
	if !fs.ValidPath(name) {
		return "", false
	}
	return name, true
}

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, name string) error {
	f, err := h.root.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fs.ErrNotExist
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", contentType(name, data))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if name == indexFile {
		w.Header().Set("Cache-Control", "no-cache")
	} else {
		w.Header().Set("Cache-Control", h.cache)
	}

	http.ServeContent(w, r, name, info.ModTime(), bytes.NewReader(data))
	return nil
}

func contentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return mimetype.Detect(data).String()
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
