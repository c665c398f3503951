package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/renderer"
	canvasrenderer "github.com/ByLCY/quire/renderer/canvas"
)

// BackendFactory 为每个请求创建一个测量/渲染后端。
type BackendFactory func() renderer.Backend

// Server is the HTTP API for rendering documents.
type Server struct {
	router     chi.Router
	theme      *layout.Theme
	newBackend BackendFactory
	log        *slog.Logger
	cfg        Config

	// renders 是排版任务的信号量，名额由任务 goroutine 自己归还
	renders chan struct{}
}

// NewServer creates and configures the HTTP server. theme 为 nil 时使用默认主题。
func NewServer(theme *layout.Theme, log *slog.Logger, cfg Config) *Server {
	if theme == nil {
		theme = layout.DefaultTheme()
	}
	s := &Server{
		theme: theme,
		newBackend: func() renderer.Backend {
			return canvasrenderer.NewRenderer("")
		},
		log:     log,
		cfg:     cfg,
		renders: make(chan struct{}, max(cfg.MaxConcurrentRenders, 1)),
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		limit := cap(s.renders)
		r.Use(middleware.ThrottleBacklog(limit, limit*4, s.cfg.RenderTimeout))
		r.Post("/render", s.handleRender)
		r.Post("/toc", s.handleTOC)
		r.Post("/layout", s.handleLayout)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
