package feed

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmorgan81/neurophoto/internal/history"
)

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	db, err := history.Open(ctx, filepath.Join(t.TempDir(), "feed.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Shutdown()

	gens := db.Generations()
	g, err := gens.Insert(ctx, history.Generation{
		UserID:      "alice",
		ImageURL:    "https://cdn/alice/1_gen.png",
		Filename:    "alice/1_gen.png",
		MimeType:    "image/png",
		ProductType: "t-shirt",
		Background:  "studio",
	})
	if err != nil {
		t.Fatal(err)
	}

	rss, err := New(gens, "https://photo.example/").Generate(ctx, "alice")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	body := string(rss)
	for _, want := range []string{"<rss", "t-shirt · studio", "https://photo.example/p/" + g.ID, "https://cdn/alice/1_gen.png"} {
		if !strings.Contains(body, want) {
			t.Errorf("feed missing %q:\n%s", want, body)
		}
	}

	rss, err = New(gens, "https://photo.example").Generate(ctx, "bob")
	if err != nil || strings.Contains(string(rss), "<item>") {
		t.Errorf("bob's feed = %s, %v", rss, err)
	}
}
