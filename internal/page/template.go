package page

import (
	"bytes"
	"context"
	_ "embed"
	"html/template"
	"sync"
	"time"

	"github.com/dmorgan81/neurophoto/internal/history"
	"github.com/dmorgan81/neurophoto/internal/log"
	"github.com/samber/lo"
)

//go:embed assets/share.html
var shareTmpl string

type Params struct {
	Title       string
	Image       string
	ProductType string
	Background  string
	Pose        string
	Created     time.Time
}

func FromGeneration(g history.Generation) Params {
	return Params{
		Title:       lo.Ternary(g.ModelName != "", g.ModelName, "Generated photo"),
		Image:       g.ImageURL,
		ProductType: g.ProductType,
		Background:  g.Background,
		Pose:        g.Pose,
		Created:     g.CreatedAt,
	}
}

type Templator struct {
	tmpl *template.Template
	once sync.Once
}

func (g *Templator) Template(ctx context.Context, params Params) ([]byte, error) {
	g.once.Do(func() {
		g.tmpl = template.Must(template.New("share").Parse(shareTmpl))
	})

	log := log.FromContextOrDiscard(ctx).WithGroup("templator").With("image", params.Image)
	log.Info("generating share page")

	var data bytes.Buffer
	if err := g.tmpl.Execute(&data, params); err != nil {
		return nil, err
	}
	return data.Bytes(), nil
}
