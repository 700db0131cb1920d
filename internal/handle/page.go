package handle

import (
	"net/http"

	"github.com/dmorgan81/neurophoto/internal/history"
	"github.com/dmorgan81/neurophoto/internal/log"
	"github.com/dmorgan81/neurophoto/internal/page"
	"github.com/samber/do"
)

// PageHandler serves the public share page of one generation.
type PageHandler struct {
	generations *history.Generations
	templator   *page.Templator
}

func NewPageHandler(i *do.Injector) (*PageHandler, error) {
	return &PageHandler{
		generations: do.MustInvoke[*history.Generations](i),
		templator:   do.MustInvoke[*page.Templator](i),
	}, nil
}

func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	log := log.FromContextOrDiscard(ctx).WithGroup("PageHandler").With("id", id)
	log.Info("rendering share page")

	g, err := h.generations.GetPublic(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	html, err := h.templator.Template(ctx, page.FromGeneration(g))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Last-Modified", g.CreatedAt.UTC().Format(http.TimeFormat))
	w.Write(html)
}
