package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmorgan81/neurophoto/internal/auth"
	"github.com/dmorgan81/neurophoto/internal/config"
	"github.com/dmorgan81/neurophoto/internal/handle"
	"github.com/dmorgan81/neurophoto/internal/log"
	"github.com/dmorgan81/neurophoto/internal/queue"
	"github.com/google/uuid"
	"github.com/samber/do"
)

// Handler is the HTTP surface of the service.
type Handler struct {
	mux *http.ServeMux
}

func NewHandler(i *do.Injector) (*Handler, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authn := do.MustInvoke[auth.Authenticator](i)
	scheduler := do.MustInvoke[*queue.Scheduler](i)
	generate := do.MustInvoke[*handle.GenerateHandler](i)
	models := do.MustInvoke[*handle.ModelHandler](i)
	hist := do.MustInvoke[*handle.HistoryHandler](i)

	mux := http.NewServeMux()
	private := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, auth.Middleware(authn, h))
	}

	mux.HandleFunc("GET /api/health", health(scheduler))
	mux.HandleFunc("GET /api/presets", handle.Presets)
	mux.HandleFunc("GET /api/presets/{category}", handle.PresetCategory)

	private("GET /api/models", models.List)
	private("POST /api/models", models.Create)
	private("GET /api/models/{id}", models.Get)
	private("PUT /api/models/{id}", models.Update)
	private("DELETE /api/models/{id}", models.Delete)

	private("POST /api/generate", generate.Generate())
	private("POST /api/generate/variations", generate.Variations)
	private("POST /api/generate/stream", generate.Stream)
	private("POST /api/generate/collage", generate.Collage())
	private("POST /api/generate/preview", generate.Preview())
	private("POST /api/generate/angles", generate.Angles())

	private("GET /api/history", hist.List)
	private("GET /api/history/feed", hist.Feed)
	private("DELETE /api/history/{id}", hist.Delete)
	private("DELETE /api/history", hist.Clear)

	mux.Handle("GET /p/{id}", do.MustInvoke[*handle.PageHandler](i))
	if !cfg.UseS3() {
		mux.Handle("GET /images/", http.StripPrefix("/images/", http.FileServer(http.Dir(cfg.StorageDir))))
	}

	return &Handler{mux: mux}, nil
}

func health(scheduler *queue.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "scheduler": scheduler.Stats()})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// ServeHTTP gives every request its own logger tagged with a request id.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := r.Header.Get("X-Request-Id")
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set("X-Request-Id", id)

	logger := log.FromContextOrDiscard(r.Context()).With("request_id", id)
	ctx := log.NewContext(r.Context(), logger)
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	h.mux.ServeHTTP(rec, r.WithContext(ctx))
	logger.WithGroup("Handler").Info("handled request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"duration", time.Since(start),
	)
}
