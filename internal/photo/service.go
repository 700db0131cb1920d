package photo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmorgan81/neurophoto/internal/config"
	"github.com/dmorgan81/neurophoto/internal/history"
	"github.com/dmorgan81/neurophoto/internal/image"
	"github.com/dmorgan81/neurophoto/internal/log"
	"github.com/dmorgan81/neurophoto/internal/prompt"
	"github.com/dmorgan81/neurophoto/internal/queue"
	"github.com/dmorgan81/neurophoto/internal/store"
	"github.com/dmorgan81/neurophoto/internal/stream"
	"github.com/samber/do"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const defaultVariations = 2

// Request asks for product shots of a saved model.
type Request struct {
	ModelID string
	Params  prompt.Params
	Count   int
}

type Service struct {
	synthesizer *prompt.Synthesizer
	generator   image.Generator
	scheduler   *queue.Scheduler
	controller  *stream.Controller
	models      *history.Models
	persister   *store.Persister

	maxVariations int
	streamShots   int
}

func NewService(i *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &Service{
		synthesizer:   do.MustInvoke[*prompt.Synthesizer](i),
		generator:     do.MustInvoke[image.Generator](i),
		scheduler:     do.MustInvoke[*queue.Scheduler](i),
		controller:    do.MustInvoke[*stream.Controller](i),
		models:        do.MustInvoke[*history.Models](i),
		persister:     do.MustInvoke[*store.Persister](i),
		maxVariations: cfg.MaxVariations,
		streamShots:   cfg.StreamShots,
	}, nil
}

// withModel fills the model's description, gender and preview photo into
// params unless the caller already set them.
func (s *Service) withModel(ctx context.Context, userID string, req Request) (prompt.Params, error) {
	p := req.Params
	if req.ModelID == "" {
		return p, nil
	}
	m, err := s.models.Get(ctx, userID, req.ModelID)
	if err != nil {
		return p, fmt.Errorf("model %s: %w", req.ModelID, err)
	}
	p.ModelDescription = lo.Ternary(p.ModelDescription != "", p.ModelDescription, m.Description)
	p.Gender = lo.Ternary(p.Gender != "", p.Gender, prompt.ParseGender(m.Gender))
	if len(p.ModelPhoto) == 0 {
		p.ModelPhoto = m.PreviewPhoto()
	}
	return p, nil
}

// generate runs one directive through the scheduler. A classified failure is
// returned as a *image.Failure error.
func (s *Service) generate(ctx context.Context, d prompt.Directive) (image.Outcome, error) {
	req := image.NewRequest(d)
	outcome, err := s.scheduler.Submit(ctx, func(ctx context.Context) (image.Outcome, error) {
		return image.Run(ctx, s.generator, req)
	})
	if err != nil {
		return image.Outcome{}, err
	}
	return outcome, outcome.Err()
}

// persist stores o. When that fails the returned image carries the data
// inline alongside the error.
func (s *Service) persist(ctx context.Context, userID string, req Request, p prompt.Params, d prompt.Directive, o image.Outcome, suffix string, idx *int) (stream.Image, error) {
	img := stream.Image{MimeType: o.MimeType, Pose: d.Pose}
	saved, err := s.persister.Persist(ctx, store.PersistParams{
		UserID:         userID,
		ModelID:        req.ModelID,
		Data:           o.Data,
		MimeType:       o.MimeType,
		Suffix:         suffix,
		ProductType:    p.ProductType,
		Background:     p.Background,
		Pose:           d.Pose,
		Gender:         string(p.Gender),
		VariationIndex: idx,
		Parameters:     parameters(p),
	})
	if err != nil {
		img.Data = o.Data
		return img, err
	}
	img.ID, img.URL = saved.ID, saved.URL
	return img, nil
}

func parameters(p prompt.Params) map[string]string {
	return lo.OmitByValues(map[string]string{
		"aspectRatio": string(p.AspectRatio),
		"imageSize":   string(p.Resolution),
	}, []string{""})
}

// Generate makes and stores a single product shot.
func (s *Service) Generate(ctx context.Context, userID string, req Request) (stream.Image, error) {
	return s.saved(ctx, userID, req, prompt.ModeProduct, "gen")
}

// Collage makes and stores a 2x2 collage of the product in four poses.
func (s *Service) Collage(ctx context.Context, userID string, req Request) (stream.Image, error) {
	return s.saved(ctx, userID, req, prompt.ModeCollage, "collage")
}

func (s *Service) saved(ctx context.Context, userID string, req Request, mode prompt.Mode, suffix string) (stream.Image, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("photo").With("model", req.ModelID, "mode", mode)
	log.Info("generating product photo")

	p, err := s.withModel(ctx, userID, req)
	if err != nil {
		return stream.Image{}, err
	}
	d := s.synthesizer.Synthesize(p, mode)
	log.Debug("synthesized directive", "directive", d)

	o, err := s.generate(ctx, d)
	if err != nil {
		return stream.Image{}, err
	}
	img, err := s.persist(ctx, userID, req, p, d, o, suffix, nil)
	if err != nil {
		log.Error("persisting generation failed, returning it inline", "err", err)
	}
	return img, nil
}

// Variations makes several product shots with different poses at once. Shots
// that fail are logged and left out; only when all of them fail is the first
// failure returned.
func (s *Service) Variations(ctx context.Context, userID string, req Request) ([]stream.Image, error) {
	n := lo.Clamp(lo.Ternary(req.Count > 0, req.Count, defaultVariations), 1, s.maxVariations)
	log := log.FromContextOrDiscard(ctx).WithGroup("photo").With("model", req.ModelID, "count", n)
	log.Info("generating variations")

	p, err := s.withModel(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	directives := s.synthesizer.Variations(p, n)

	type indexed struct {
		idx int
		img stream.Image
	}
	var (
		mu       sync.Mutex
		images   []indexed
		failures []error
	)
	var group errgroup.Group
	for idx, d := range directives {
		group.Go(func() error {
			o, err := s.generate(ctx, d)
			if err != nil {
				log.Warn("variation failed", "index", idx, "err", err)
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
				return nil
			}
			img, err := s.persist(ctx, userID, req, p, d, o, fmt.Sprintf("var_%d", idx), lo.ToPtr(idx))
			if err != nil {
				log.Error("persisting variation failed, returning it inline", "index", idx, "err", err)
			}
			mu.Lock()
			images = append(images, indexed{idx, img})
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	if len(images) == 0 && len(failures) > 0 {
		return nil, failures[0]
	}
	sort.Slice(images, func(i, j int) bool { return images[i].idx < images[j].idx })
	return lo.Map(images, func(x indexed, _ int) stream.Image { return x.img }), nil
}

type publisher struct {
	service *Service
	userID  string
	req     Request
	params  prompt.Params
}

func (p publisher) Publish(ctx context.Context, idx int, d prompt.Directive, o image.Outcome) (stream.Published, error) {
	img, err := p.service.persist(ctx, p.userID, p.req, p.params, d, o, fmt.Sprintf("stream_%d", idx), lo.ToPtr(idx))
	if err != nil {
		return stream.Published{}, err
	}
	return stream.Published{ID: img.ID, URL: img.URL}, nil
}

// Stream generates the configured number of shots in parallel and emits each
// as it finishes. The generations outlive a client that disconnects; their
// results are still stored.
func (s *Service) Stream(ctx context.Context, userID string, req Request, emit func(stream.Event)) error {
	log := log.FromContextOrDiscard(ctx).WithGroup("photo").With("model", req.ModelID, "shots", s.streamShots)
	log.Info("streaming product photos")

	p, err := s.withModel(ctx, userID, req)
	if err != nil {
		return err
	}
	directives := s.synthesizer.Variations(p, s.streamShots)
	s.controller.
		WithPublisher(publisher{service: s, userID: userID, req: req, params: p}).
		Run(context.WithoutCancel(ctx), directives, emit)
	return nil
}

// Preview makes a portrait of a prospective model. It is not stored.
func (s *Service) Preview(ctx context.Context, p prompt.Params) (stream.Image, error) {
	return s.unsaved(ctx, p, prompt.ModePreview)
}

// Angles makes a 2x2 collage of a prospective model from four angles. It is
// not stored.
func (s *Service) Angles(ctx context.Context, p prompt.Params) (stream.Image, error) {
	return s.unsaved(ctx, p, prompt.ModeAngles)
}

func (s *Service) unsaved(ctx context.Context, p prompt.Params, mode prompt.Mode) (stream.Image, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("photo").With("mode", mode)
	log.Info("generating model image")

	d := s.synthesizer.Synthesize(p, mode)
	o, err := s.generate(ctx, d)
	if err != nil {
		return stream.Image{}, err
	}
	return stream.Image{MimeType: o.MimeType, Data: o.Data, Pose: d.Pose}, nil
}
