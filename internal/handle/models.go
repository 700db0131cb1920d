package handle

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmorgan81/neurophoto/internal/config"
	"github.com/dmorgan81/neurophoto/internal/history"
	"github.com/dmorgan81/neurophoto/internal/prompt"
	"github.com/samber/do"
)

type ModelHandler struct {
	models   *history.Models
	maxBytes int64
}

func NewModelHandler(i *do.Injector) (*ModelHandler, error) {
	return &ModelHandler{
		models:   do.MustInvoke[*history.Models](i),
		maxBytes: do.MustInvoke[*config.Config](i).MaxJSONBytes,
	}, nil
}

type modelBody struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Gender      string         `json:"gender"`
	Photos      history.Photos `json:"photos"`
}

func (h *ModelHandler) decode(w http.ResponseWriter, r *http.Request) (modelBody, error) {
	var body modelBody
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBytes)).Decode(&body)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return body, err
	}
	if err != nil {
		return body, badRequest{"Invalid JSON body"}
	}
	if strings.TrimSpace(body.Name) == "" || strings.TrimSpace(body.Gender) == "" {
		return body, badRequest{"Name and gender are required"}
	}
	body.Gender = string(prompt.ParseGender(body.Gender))
	return body, nil
}

func (h *ModelHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	models, err := h.models.List(ctx, principal(r).UserID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, models)
}

func (h *ModelHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	m, err := h.models.Get(ctx, principal(r).UserID, r.PathValue("id"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, m)
}

func (h *ModelHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := h.decode(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	m, err := h.models.Create(ctx, history.Model{
		UserID:      principal(r).UserID,
		Name:        body.Name,
		Description: body.Description,
		Gender:      body.Gender,
		Photos:      body.Photos,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, m)
}

func (h *ModelHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := h.decode(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	m, err := h.models.Update(ctx, history.Model{
		ID:          r.PathValue("id"),
		UserID:      principal(r).UserID,
		Name:        body.Name,
		Description: body.Description,
		Gender:      body.Gender,
		Photos:      body.Photos,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, m)
}

func (h *ModelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.models.Delete(ctx, principal(r).UserID, r.PathValue("id")); err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]bool{"success": true})
}
