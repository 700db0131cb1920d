package handle

import (
	"context"
	"net/http"

	"github.com/dmorgan81/neurophoto/internal/config"
	"github.com/dmorgan81/neurophoto/internal/log"
	"github.com/dmorgan81/neurophoto/internal/photo"
	"github.com/dmorgan81/neurophoto/internal/stream"
	"github.com/samber/do"
)

type GenerateHandler struct {
	service  *photo.Service
	maxBytes int64
}

func NewGenerateHandler(i *do.Injector) (*GenerateHandler, error) {
	return &GenerateHandler{
		service:  do.MustInvoke[*photo.Service](i),
		maxBytes: do.MustInvoke[*config.Config](i).MaxUploadBytes,
	}, nil
}

type imageResponse struct {
	Success bool         `json:"success"`
	Image   stream.Image `json:"image"`
}

type imagesResponse struct {
	Success bool           `json:"success"`
	Count   int            `json:"count"`
	Images  []stream.Image `json:"images"`
}

func (h *GenerateHandler) single(fn func(context.Context, string, photo.Request) (stream.Image, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := parseForm(w, r, h.maxBytes); err != nil {
			writeError(ctx, w, err)
			return
		}
		req, err := request(r, h.maxBytes)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		img, err := fn(ctx, principal(r).UserID, req)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		writeJSON(ctx, w, http.StatusOK, imageResponse{Success: true, Image: img})
	}
}

// Generate handles POST /api/generate.
func (h *GenerateHandler) Generate() http.HandlerFunc {
	return h.single(h.service.Generate)
}

// Collage handles POST /api/generate/collage.
func (h *GenerateHandler) Collage() http.HandlerFunc {
	return h.single(h.service.Collage)
}

// Preview handles POST /api/generate/preview.
func (h *GenerateHandler) Preview() http.HandlerFunc {
	return h.single(func(ctx context.Context, _ string, req photo.Request) (stream.Image, error) {
		return h.service.Preview(ctx, req.Params)
	})
}

// Angles handles POST /api/generate/angles.
func (h *GenerateHandler) Angles() http.HandlerFunc {
	return h.single(func(ctx context.Context, _ string, req photo.Request) (stream.Image, error) {
		return h.service.Angles(ctx, req.Params)
	})
}

// Variations handles POST /api/generate/variations.
func (h *GenerateHandler) Variations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := parseForm(w, r, h.maxBytes); err != nil {
		writeError(ctx, w, err)
		return
	}
	req, err := request(r, h.maxBytes)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	imgs, err := h.service.Variations(ctx, principal(r).UserID, req)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, imagesResponse{Success: true, Count: len(imgs), Images: imgs})
}

// Stream handles POST /api/generate/stream with server-sent events. Errors
// before the first event are ordinary JSON errors.
func (h *GenerateHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := log.FromContextOrDiscard(ctx).WithGroup("GenerateHandler")

	if err := parseForm(w, r, h.maxBytes); err != nil {
		writeError(ctx, w, err)
		return
	}
	req, err := request(r, h.maxBytes)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var sse *stream.SSEWriter
	var emit func(stream.Event)
	err = h.service.Stream(ctx, principal(r).UserID, req, func(e stream.Event) {
		if sse == nil {
			sse = stream.NewSSEWriter(w)
			emit = sse.Emitter(ctx)
		}
		emit(e)
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	log.Info("stream closed")
}
