package image

import (
	"context"

	"github.com/dmorgan81/neurophoto/internal/prompt"
)

// Request is one upstream call: the directive text, reference images and
// image-config hints.
type Request struct {
	Text        string
	References  []prompt.Reference
	AspectRatio prompt.AspectRatio
	Resolution  prompt.Resolution
}

func NewRequest(d prompt.Directive) Request {
	return Request{
		Text:        d.Text,
		References:  d.References,
		AspectRatio: d.AspectRatio,
		Resolution:  d.Resolution,
	}
}

type Generator interface {
	Generate(context.Context, Request) (*Envelope, error)
}

// Run makes one upstream call and validates the answer. Transport and status
// failures come back as errors; everything the validator can classify comes
// back as an Outcome.
func Run(ctx context.Context, g Generator, req Request) (Outcome, error) {
	env, err := g.Generate(ctx, req)
	if err != nil {
		return Outcome{}, err
	}
	return Validate(ctx, env), nil
}
