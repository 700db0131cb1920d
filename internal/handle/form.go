package handle

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmorgan81/neurophoto/internal/photo"
	"github.com/dmorgan81/neurophoto/internal/prompt"
)

// A form carries up to three files of maxBytes each; the whole body may hold
// one more maxBytes of fields and multipart framing.
const bodyFiles = 4

// parseForm accepts multipart and urlencoded bodies alike. The body is capped
// at bodyFiles*maxBytes; formFile caps each file at maxBytes.
func parseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, bodyFiles*maxBytes)
	err := r.ParseMultipartForm(maxBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return formError(err, bodyFiles*maxBytes)
	}
	return nil
}

// formError reports an exceeded body limit as *http.MaxBytesError whether or
// not the multipart reader wrapped it.
func formError(err error, limit int64) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return tooLarge
	}
	if strings.Contains(err.Error(), "request body too large") {
		return &http.MaxBytesError{Limit: limit}
	}
	return badRequest{"Invalid form: " + err.Error()}
}

func formFile(r *http.Request, maxBytes int64, names ...string) ([]byte, error) {
	for _, name := range names {
		f, _, err := r.FormFile(name)
		if errors.Is(err, http.ErrMissingFile) || (err != nil && r.MultipartForm == nil) {
			continue
		}
		if err != nil {
			return nil, badRequest{"Invalid " + name + ": " + err.Error()}
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
		if err != nil {
			return nil, err
		}
		if int64(len(data)) > maxBytes {
			return nil, &http.MaxBytesError{Limit: maxBytes}
		}
		return data, nil
	}
	return nil, nil
}

func formInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(r.FormValue(name)))
	return n
}

func formSliders(r *http.Request) (*prompt.Sliders, error) {
	raw := strings.TrimSpace(r.FormValue("sliders"))
	if raw == "" {
		return nil, nil
	}
	var s prompt.Sliders
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, badRequest{"Invalid sliders: " + err.Error()}
	}
	return &s, nil
}

// params reads the generation parameters shared by every endpoint. The model
// description arrives as "description" from the model editor and as
// "modelDescription" elsewhere.
func params(r *http.Request, maxBytes int64) (prompt.Params, error) {
	p := prompt.Params{
		ModelDescription: strings.TrimSpace(r.FormValue("modelDescription") + " " + r.FormValue("description")),
		Age:              formInt(r, "age"),
		Height:           formInt(r, "height"),
		ProductType:      r.FormValue("productType"),
		Clothing:         r.FormValue("clothing"),
		Background:       r.FormValue("background"),
		Pose:             r.FormValue("pose"),
		AspectRatio:      prompt.ParseAspectRatio(r.FormValue("aspectRatio")),
		Resolution:       prompt.ParseResolution(r.FormValue("imageSize")),
	}
	if g := r.FormValue("gender"); g != "" {
		p.Gender = prompt.ParseGender(g)
	}

	var err error
	if p.Sliders, err = formSliders(r); err != nil {
		return p, err
	}
	if p.ModelPhoto, err = formFile(r, maxBytes, "referencePhoto", "modelPhoto"); err != nil {
		return p, err
	}
	if p.ProductImage, err = formFile(r, maxBytes, "productImage"); err != nil {
		return p, err
	}
	if p.BackgroundImage, err = formFile(r, maxBytes, "backgroundImage"); err != nil {
		return p, err
	}
	return p, nil
}

func request(r *http.Request, maxBytes int64) (photo.Request, error) {
	p, err := params(r, maxBytes)
	return photo.Request{ModelID: r.FormValue("modelId"), Params: p, Count: formInt(r, "count")}, err
}
