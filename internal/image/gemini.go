package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmorgan81/neurophoto/internal/config"
	"github.com/dmorgan81/neurophoto/internal/log"
	"github.com/dmorgan81/neurophoto/internal/prompt"
	"github.com/samber/do"
	"github.com/samber/lo"
)

type GeminiGenerator struct {
	Client  *http.Client
	Key     string
	Model   string
	BaseURL string
}

func NewGeminiGenerator(i *do.Injector) (Generator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &GeminiGenerator{
		Client:  do.MustInvoke[*http.Client](i),
		Key:     do.MustInvokeNamed[string](i, "gemini_key"),
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	}, nil
}

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini returned %d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}

type generateRequest struct {
	Contents         []requestContent `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type requestContent struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
	ImageSize   string `json:"imageSize,omitempty"`
}

func newGenerateRequest(req Request) generateRequest {
	parts := lo.Map(req.References, func(r prompt.Reference, _ int) Part {
		return Part{InlineData: &InlineData{
			MimeType: http.DetectContentType(r.Data),
			Data:     base64.StdEncoding.EncodeToString(r.Data),
		}}
	})
	parts = append(parts, Part{Text: req.Text})

	var ic *imageConfig
	if req.AspectRatio != prompt.AspectRatioAuto || req.Resolution != prompt.ResolutionAuto {
		ic = &imageConfig{AspectRatio: string(req.AspectRatio), ImageSize: string(req.Resolution)}
	}
	return generateRequest{
		Contents: []requestContent{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
			ImageConfig:        ic,
		},
	}
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (*Envelope, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("gemini").With(
		"model", g.Model,
		"references", len(req.References),
		"aspectRatio", req.AspectRatio,
		"resolution", req.Resolution,
	)
	log.Info("generating image via gemini")

	body, err := json.Marshal(newGenerateRequest(req))
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimSuffix(g.BaseURL, "/"), g.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Add("Content-Type", "application/json")
	httpReq.Header.Add("x-goog-api-key", g.Key)

	resp, err := g.Client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding gemini response: %w", err)
	}
	log.Info("received response from gemini", "candidates", len(env.Candidates), "responseId", env.ResponseID)
	return &env, nil
}
