package handle

import (
	"net/http"

	"github.com/dmorgan81/neurophoto/internal/feed"
	"github.com/dmorgan81/neurophoto/internal/history"
	"github.com/dmorgan81/neurophoto/internal/store"
	"github.com/samber/do"
)

type HistoryHandler struct {
	generations *history.Generations
	persister   *store.Persister
	feed        *feed.Generator
}

func NewHistoryHandler(i *do.Injector) (*HistoryHandler, error) {
	return &HistoryHandler{
		generations: do.MustInvoke[*history.Generations](i),
		persister:   do.MustInvoke[*store.Persister](i),
		feed:        do.MustInvoke[*feed.Generator](i),
	}, nil
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gens, err := h.generations.List(ctx, principal(r).UserID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, gens)
}

func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.persister.Delete(ctx, principal(r).UserID, r.PathValue("id")); err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]bool{"success": true})
}

func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := h.persister.Clear(ctx, principal(r).UserID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]any{"success": true, "deleted": n})
}

func (h *HistoryHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rss, err := h.feed.Generate(ctx, principal(r).UserID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write(rss)
}
