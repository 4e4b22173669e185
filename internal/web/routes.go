package web

import (
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-kiosk/internal/web/handlers"
	"github.com/kozaktomas/face-kiosk/internal/web/static"
)

func (s *Server) setupRoutes() {
	kioskHandler := handlers.NewKioskHandler(s.app, s.board, s.logger.With("component", "web"))

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", kioskHandler.HealthCheck)
		r.Get("/backend/health", kioskHandler.BackendHealth)

		// Display regions
		r.Get("/regions", kioskHandler.Regions)
		r.Get("/events", kioskHandler.Events)

		// Camera
		r.Get("/preview.jpg", kioskHandler.Preview)
		r.Post("/capture", kioskHandler.Capture)

		// Registration and lists
		r.Post("/register", kioskHandler.Register)
		r.Post("/people/refresh", kioskHandler.RefreshPeople)
		r.Post("/access-log/refresh", kioskHandler.RefreshAccessLog)
	})

	// Serve the kiosk page
	s.router.Get("/*", s.servePage)
}

// contentTypes maps the page's asset extensions to their content type.
var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".json": "application/json",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".ico":  "image/x-icon",
}

// servePage serves the embedded kiosk page. Unknown paths get index.html.
func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	fs := static.GetFileSystem()
	p := r.URL.Path
	if p == "/" {
		p = "/index.html"
	}

	if f, err := fs.Open(p); err == nil {
		defer f.Close()
		if stat, err := f.Stat(); err == nil && !stat.IsDir() {
			contentType, ok := contentTypes[strings.ToLower(path.Ext(p))]
			if !ok {
				contentType = "application/octet-stream"
			}
			w.Header().Set("Content-Type", contentType)
			w.WriteHeader(http.StatusOK)
			io.Copy(w, f)
			return
		}
	}

	index, err := fs.Open("/index.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer index.Close()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.Copy(w, index)
}
