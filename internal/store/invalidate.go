package store

import (
	"context"

	"github.com/dmorgan81/neurophoto/internal/log"
)

type Invalidator interface {
	Invalidate(context.Context, []string) error
}

// NoopInvalidator is used when nothing caches the images.
type NoopInvalidator struct{}

func (NoopInvalidator) Invalidate(ctx context.Context, paths []string) error {
	log.FromContextOrDiscard(ctx).WithGroup("invalidator").Debug("nothing to invalidate", "paths", paths)
	return nil
}
