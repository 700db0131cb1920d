package feed

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmorgan81/neurophoto/internal/config"
	"github.com/dmorgan81/neurophoto/internal/history"
	"github.com/dmorgan81/neurophoto/internal/log"
	"github.com/gorilla/feeds"
	"github.com/samber/do"
	"github.com/samber/lo"
)

type Generator struct {
	generations *history.Generations
	baseURL     string
}

func NewGenerator(i *do.Injector) (*Generator, error) {
	return New(do.MustInvoke[*history.Generations](i), do.MustInvoke[*config.Config](i).PublicBaseURL), nil
}

func New(generations *history.Generations, baseURL string) *Generator {
	return &Generator{generations: generations, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Generate renders a user's generations as RSS, newest first.
func (g *Generator) Generate(ctx context.Context, userID string) ([]byte, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("feed").With("user", userID)
	log.Info("generating rss feed")

	gens, err := g.generations.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	feed := feeds.Feed{
		Title:       "NeuroPhoto",
		Description: "AI generated product photos",
		Link:        &feeds.Link{Href: g.baseURL},
	}
	if len(gens) > 0 {
		feed.Updated = gens[0].CreatedAt
	}
	feed.Items = lo.Map(gens, func(gen history.Generation, _ int) *feeds.Item {
		return &feeds.Item{
			Id:          gen.ID,
			Title:       title(gen),
			Description: gen.Pose,
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/p/%s", g.baseURL, gen.ID)},
			Enclosure:   &feeds.Enclosure{Url: gen.ImageURL, Type: gen.MimeType, Length: "0"},
			Created:     gen.CreatedAt,
		}
	})
	feed.Sort(func(a, b *feeds.Item) bool {
		return a.Created.After(b.Created)
	})

	rss, err := feed.ToRss()
	return []byte(rss), err
}

func title(g history.Generation) string {
	parts := lo.Filter([]string{g.ModelName, g.ProductType, g.Background}, func(s string, _ int) bool { return s != "" })
	if len(parts) == 0 {
		return "Generation " + g.ID
	}
	return strings.Join(parts, " · ")
}
