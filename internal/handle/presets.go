package handle

import (
	"net/http"

	"github.com/dmorgan81/neurophoto/internal/prompt"
)

// Presets handles GET /api/presets.
func Presets(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, prompt.Presets())
}

// PresetCategory handles GET /api/presets/{category}.
func PresetCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	presets, ok := prompt.Presets()[r.PathValue("category")]
	if !ok {
		writeError(ctx, w, errNotFound)
		return
	}
	writeJSON(ctx, w, http.StatusOK, presets)
}
