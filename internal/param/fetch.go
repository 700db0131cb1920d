package param

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dmorgan81/neurophoto/internal/log"
	"github.com/samber/lo"
)

type Fetcher interface {
	Fetch(context.Context, string) (string, error)
	FetchAll(context.Context, string) ([]string, error)
}

// EnvFetcher reads parameters from the environment. A path maps to a
// variable name by upper-casing it and turning separators into underscores,
// so "/neurophoto/gemini-key" reads NEUROPHOTO_GEMINI_KEY. FetchAll returns
// every variable below the prefix, sorted by name.
type EnvFetcher struct{}

func envName(path string) string {
	name := strings.Trim(path, "/")
	name = strings.NewReplacer("/", "_", "-", "_", ".", "_").Replace(name)
	return strings.ToUpper(name)
}

func (EnvFetcher) Fetch(ctx context.Context, path string) (string, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("env").With("path", path)
	log.Info("fetching single parameter")

	v, ok := os.LookupEnv(envName(path))
	if !ok {
		return "", fmt.Errorf("parameter %s: %s not set", path, envName(path))
	}
	return v, nil
}

func (EnvFetcher) FetchAll(ctx context.Context, path string) ([]string, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("env").With("path", path)
	log.Info("fetching all parameters")

	prefix := envName(path) + "_"
	vars := lo.Filter(os.Environ(), func(kv string, _ int) bool { return strings.HasPrefix(kv, prefix) })
	sort.Strings(vars)
	return lo.Map(vars, func(kv string, _ int) string {
		_, v, _ := strings.Cut(kv, "=")
		return v
	}), nil
}
