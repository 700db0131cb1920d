package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dmorgan81/neurophoto/internal/history"
	"github.com/dmorgan81/neurophoto/internal/log"
	"github.com/samber/do"
	"github.com/samber/lo"
)

// PersistParams is everything recorded about one generated image.
type PersistParams struct {
	UserID         string
	ModelID        string
	Data           []byte
	MimeType       string
	Suffix         string
	ProductType    string
	Background     string
	Pose           string
	Gender         string
	VariationIndex *int
	Parameters     map[string]string
}

type Persisted struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Persister stores generated images and their history records, and removes
// both again.
type Persister struct {
	storage     Storage
	invalidator Invalidator
	generations *history.Generations
	now         func() time.Time
}

func NewPersister(i *do.Injector) (*Persister, error) {
	return New(do.MustInvoke[Storage](i), do.MustInvoke[Invalidator](i), do.MustInvoke[*history.Generations](i)), nil
}

func New(storage Storage, invalidator Invalidator, generations *history.Generations) *Persister {
	return &Persister{storage: storage, invalidator: invalidator, generations: generations, now: time.Now}
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	}
	return "png"
}

func (p *Persister) Persist(ctx context.Context, params PersistParams) (Persisted, error) {
	name := fmt.Sprintf("%s/%d_%s.%s", params.UserID, p.now().UnixMilli(), params.Suffix, extension(params.MimeType))
	log := log.FromContextOrDiscard(ctx).WithGroup("persister").With("user", params.UserID, "name", name)
	log.Info("persisting generation")

	metadata := map[string]string{
		"user":    params.UserID,
		"model":   params.ModelID,
		"product": params.ProductType,
		"pose":    params.Pose,
	}
	if params.VariationIndex != nil {
		metadata["variation"] = strconv.Itoa(*params.VariationIndex)
	}

	url, err := p.storage.Upload(ctx, UploadParams{
		Name:        name,
		Data:        params.Data,
		ContentType: params.MimeType,
		Metadata:    metadata,
	})
	if err != nil {
		return Persisted{}, fmt.Errorf("uploading %s: %w", name, err)
	}

	g, err := p.generations.Insert(ctx, history.Generation{
		UserID:         params.UserID,
		ModelID:        lo.Ternary(params.ModelID != "", &params.ModelID, nil),
		ImageURL:       url,
		Filename:       name,
		MimeType:       params.MimeType,
		ProductType:    params.ProductType,
		Background:     params.Background,
		Pose:           params.Pose,
		Gender:         params.Gender,
		IsVariation:    params.VariationIndex != nil,
		VariationIndex: params.VariationIndex,
		Parameters:     params.Parameters,
	})
	if err != nil {
		return Persisted{}, err
	}
	return Persisted{ID: g.ID, URL: url, Filename: name}, nil
}

// Delete removes one generation, its file and any cached copy.
func (p *Persister) Delete(ctx context.Context, userID, id string) error {
	g, err := p.generations.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	return p.removeFiles(ctx, []history.Generation{g})
}

// Clear removes every generation of a user.
func (p *Persister) Clear(ctx context.Context, userID string) (int, error) {
	gens, err := p.generations.Clear(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(gens), p.removeFiles(ctx, gens)
}

// removeFiles is best effort: the records are already gone, so a file that
// cannot be removed is only logged.
func (p *Persister) removeFiles(ctx context.Context, gens []history.Generation) error {
	log := log.FromContextOrDiscard(ctx).WithGroup("persister")

	for _, g := range gens {
		if err := p.storage.Remove(ctx, g.Filename); err != nil {
			log.Warn("removing file", "name", g.Filename, "err", err)
		}
	}
	if len(gens) == 0 {
		return nil
	}
	paths := lo.Map(gens, func(g history.Generation, _ int) string { return "/" + g.Filename })
	return p.invalidator.Invalidate(ctx, paths)
}
