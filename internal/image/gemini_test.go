package image

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmorgan81/neurophoto/internal/prompt"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

func TestGeminiGenerate(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/test-model:generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "key" {
			t.Errorf("api key = %q", r.Header.Get("x-goog-api-key"))
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("request body: %v", err)
		}
		io.WriteString(w, `{"candidates":[{"finishReason":"STOP","content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"aGVsbG8="}}]}}],"responseId":"r1"}`)
	}))
	defer srv.Close()

	g := &GeminiGenerator{Client: srv.Client(), Key: "key", Model: "test-model", BaseURL: srv.URL + "/"}
	req := Request{
		Text:        "a photo",
		References:  []prompt.Reference{{Kind: prompt.ReferenceModel, Data: pngHeader}},
		AspectRatio: prompt.AspectRatio3x4,
	}
	out, err := Run(context.Background(), g, req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(out.Data) != "hello" {
		t.Errorf("data = %q", out.Data)
	}

	parts := got.Contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("parts = %d, want reference + text", len(parts))
	}
	if parts[0].InlineData.MimeType != "image/png" || parts[0].InlineData.Data != base64.StdEncoding.EncodeToString(pngHeader) {
		t.Errorf("reference part = %+v", parts[0].InlineData)
	}
	if parts[1].Text != "a photo" {
		t.Errorf("text part = %q", parts[1].Text)
	}
	if ic := got.GenerationConfig.ImageConfig; ic == nil || ic.AspectRatio != "3:4" || ic.ImageSize != "" {
		t.Errorf("image config = %+v", ic)
	}
}

func TestGeminiStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"status":"RESOURCE_EXHAUSTED"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := &GeminiGenerator{Client: srv.Client(), Model: "m", BaseURL: srv.URL}
	_, err := g.Generate(context.Background(), Request{Text: "x"})
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusTooManyRequests {
		t.Fatalf("err = %v, want StatusError 429", err)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("message %q must mention 429", err)
	}
}

func TestNewGenerateRequestWithoutHints(t *testing.T) {
	r := newGenerateRequest(Request{Text: "x"})
	if r.GenerationConfig.ImageConfig != nil {
		t.Error("image config sent without hints")
	}
	if len(r.GenerationConfig.ResponseModalities) != 2 {
		t.Errorf("modalities = %v", r.GenerationConfig.ResponseModalities)
	}
}
