package stream

import (
	"context"
	"errors"
	"sync"

	"github.com/dmorgan81/neurophoto/internal/image"
	"github.com/dmorgan81/neurophoto/internal/log"
	"github.com/dmorgan81/neurophoto/internal/prompt"
	"github.com/dmorgan81/neurophoto/internal/queue"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

// Published identifies a stored image.
type Published struct {
	ID  string
	URL string
}

// Publisher stores a successful outcome before it is emitted.
type Publisher interface {
	Publish(ctx context.Context, index int, d prompt.Directive, o image.Outcome) (Published, error)
}

type Controller struct {
	scheduler *queue.Scheduler
	generator image.Generator
	publisher Publisher
}

func NewController(i *do.Injector) (*Controller, error) {
	return &Controller{
		scheduler: do.MustInvoke[*queue.Scheduler](i),
		generator: do.MustInvoke[image.Generator](i),
	}, nil
}

func New(scheduler *queue.Scheduler, generator image.Generator) *Controller {
	return &Controller{scheduler: scheduler, generator: generator}
}

// WithPublisher returns a copy of c that publishes every success through p.
func (c *Controller) WithPublisher(p Publisher) *Controller {
	cc := *c
	cc.publisher = p
	return &cc
}

// Run emits Start, then one Image or Error event per directive as each
// finishes, then Done. A failing task never affects its siblings. emit is
// never called concurrently.
func (c *Controller) Run(ctx context.Context, directives []prompt.Directive, emit func(Event)) {
	log := log.FromContextOrDiscard(ctx).WithGroup("stream").With("count", len(directives))
	log.Info("starting parallel generation")

	var mu sync.Mutex
	send := func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		emit(e)
	}

	send(Start(len(directives)))

	var group errgroup.Group
	for idx, d := range directives {
		group.Go(func() error {
			send(c.run(ctx, idx, d))
			return nil
		})
	}
	_ = group.Wait()

	log.Info("parallel generation finished")
	send(Done())
}

func (c *Controller) run(ctx context.Context, idx int, d prompt.Directive) Event {
	log := log.FromContextOrDiscard(ctx).WithGroup("stream").With("index", idx)
	req := image.NewRequest(d)

	outcome, err := c.scheduler.Submit(ctx, func(ctx context.Context) (image.Outcome, error) {
		return image.Run(ctx, c.generator, req)
	})
	if err != nil {
		kind := image.KindUpstreamError
		if errors.Is(err, context.DeadlineExceeded) {
			kind = image.KindTimeout
		}
		return ErrorEvent(idx, &image.Failure{Kind: kind, Message: err.Error()})
	}
	if !outcome.OK() {
		log.Warn("generation failed", "kind", outcome.Failure.Kind, "message", outcome.Failure.Message)
		return ErrorEvent(idx, outcome.Failure)
	}

	img := Image{MimeType: outcome.MimeType, Pose: d.Pose}
	if c.publisher == nil {
		img.Data = outcome.Data
		return ImageEvent(idx, img)
	}

	pub, err := c.publisher.Publish(ctx, idx, d, outcome)
	if err != nil {
		log.Error("publishing image failed, sending inline", "err", err)
		img.Data = outcome.Data
		return ImageEvent(idx, img)
	}
	img.ID, img.URL = pub.ID, pub.URL
	return ImageEvent(idx, img)
}
