package page

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmorgan81/neurophoto/internal/history"
)

func TestTemplate(t *testing.T) {
	params := FromGeneration(history.Generation{
		ImageURL:    "https://cdn/alice/1_gen.png",
		ProductType: "<b>dress</b>",
		CreatedAt:   time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
	})
	html, err := (&Templator{}).Template(context.Background(), params)
	if err != nil {
		t.Fatalf("Template: %v", err)
	}
	body := string(html)
	for _, want := range []string{`src="https://cdn/alice/1_gen.png"`, "&lt;b&gt;dress&lt;/b&gt;", "2026-03-01 12:30", "Generated photo"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(body, "<dt>Pose</dt>") {
		t.Error("empty pose rendered")
	}
}
