package handle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmorgan81/neurophoto/internal/auth"
	"github.com/dmorgan81/neurophoto/internal/history"
	"github.com/dmorgan81/neurophoto/internal/image"
	"github.com/dmorgan81/neurophoto/internal/log"
)

var errNotFound = errors.New("not found")

type errorBody struct {
	Error   string     `json:"error"`
	Kind    image.Kind `json:"kind,omitempty"`
	Message string     `json:"message,omitempty"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContextOrDiscard(ctx).Warn("writing response", "err", err)
	}
}

// writeError maps err onto a status code. Generation failures keep their kind
// so a client can tell a safety block from an empty answer.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	log := log.FromContextOrDiscard(ctx)

	var failure *image.Failure
	var bad badRequest
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &failure):
		code := http.StatusBadGateway
		if failure.Kind == image.KindSafetyBlocked {
			code = http.StatusUnprocessableEntity
		}
		log.Warn("generation failed", "kind", failure.Kind, "message", failure.Message)
		writeJSON(ctx, w, code, errorBody{Error: failure.Kind.Describe(), Kind: failure.Kind, Message: failure.Message})
	case errors.As(err, &bad):
		writeJSON(ctx, w, http.StatusBadRequest, errorBody{Error: bad.Error()})
	case errors.As(err, &tooLarge):
		writeJSON(ctx, w, http.StatusRequestEntityTooLarge, errorBody{Error: fmt.Sprintf("Upload exceeds %d bytes", tooLarge.Limit)})
	case errors.Is(err, history.ErrNotFound), errors.Is(err, errNotFound):
		writeJSON(ctx, w, http.StatusNotFound, errorBody{Error: "Not found"})
	case errors.Is(err, auth.ErrUnauthorized):
		writeJSON(ctx, w, http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
	case errors.Is(err, context.Canceled):
		log.Info("request cancelled", "err", err)
	default:
		log.Error("request failed", "err", err)
		writeJSON(ctx, w, http.StatusInternalServerError, errorBody{Error: "Internal error"})
	}
}

type badRequest struct {
	msg string
}

func (b badRequest) Error() string {
	return b.msg
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.FromContext(r.Context())
	return p
}
