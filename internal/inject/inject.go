package inject

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/dmorgan81/neurophoto/internal/auth"
	"github.com/dmorgan81/neurophoto/internal/config"
	"github.com/dmorgan81/neurophoto/internal/feed"
	"github.com/dmorgan81/neurophoto/internal/handle"
	"github.com/dmorgan81/neurophoto/internal/handler"
	"github.com/dmorgan81/neurophoto/internal/history"
	"github.com/dmorgan81/neurophoto/internal/image"
	"github.com/dmorgan81/neurophoto/internal/log"
	"github.com/dmorgan81/neurophoto/internal/page"
	"github.com/dmorgan81/neurophoto/internal/param"
	"github.com/dmorgan81/neurophoto/internal/photo"
	"github.com/dmorgan81/neurophoto/internal/prompt"
	"github.com/dmorgan81/neurophoto/internal/queue"
	"github.com/dmorgan81/neurophoto/internal/store"
	"github.com/dmorgan81/neurophoto/internal/stream"
	"github.com/samber/do"
)

// Setup wires every service lazily. AWS clients are only built when S3 or an
// SSM parameter is configured.
func Setup(ctx context.Context, cfg *config.Config) *do.Injector {
	log := log.FromContextOrDiscard(ctx)

	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			log.Debug(fmt.Sprintf(format, args...))
		},
	})
	do.ProvideValue(injector, cfg)
	do.Provide[aws.Config](injector, func(i *do.Injector) (aws.Config, error) {
		return awsconfig.LoadDefaultConfig(ctx)
	})
	do.Provide[*ssm.Client](injector, func(i *do.Injector) (*ssm.Client, error) {
		return ssm.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*s3.Client](injector, func(i *do.Injector) (*s3.Client, error) {
		return s3.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*cloudfront.Client](injector, func(i *do.Injector) (*cloudfront.Client, error) {
		return cloudfront.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.ProvideValue(injector, &http.Client{Timeout: cfg.GeminiHTTPTimeout})

	do.Provide[param.Fetcher](injector, func(i *do.Injector) (param.Fetcher, error) {
		if cfg.GeminiAPIKeyParam == "" && cfg.AuthTokensParam == "" {
			return param.EnvFetcher{}, nil
		}
		return param.NewParameterStoreFetcher(i)
	})
	do.ProvideNamed[string](injector, "gemini_key", func(i *do.Injector) (string, error) {
		if cfg.GeminiAPIKeyParam == "" {
			return cfg.GeminiAPIKey, nil
		}
		return do.MustInvoke[param.Fetcher](i).Fetch(ctx, cfg.GeminiAPIKeyParam)
	})

	do.Provide(injector, history.NewDB)
	do.Provide(injector, history.NewModels)
	do.Provide(injector, history.NewGenerations)

	do.Provide[store.Storage](injector, func(i *do.Injector) (store.Storage, error) {
		if cfg.UseS3() {
			return store.NewS3Uploader(i)
		}
		return store.NewFileUploader(i)
	})
	do.Provide[store.Invalidator](injector, func(i *do.Injector) (store.Invalidator, error) {
		if cfg.Distribution == "" {
			return store.NoopInvalidator{}, nil
		}
		return store.NewCloudFrontInvalidator(i)
	})
	do.Provide(injector, store.NewPersister)

	do.Provide(injector, prompt.NewSynthesizer)
	do.Provide(injector, image.NewGeminiGenerator)
	do.Provide(injector, queue.NewScheduler)
	do.Provide(injector, stream.NewController)
	do.Provide(injector, photo.NewService)

	do.Provide(injector, auth.NewStaticAuthenticator)
	do.Provide(injector, feed.NewGenerator)
	do.ProvideValue(injector, &page.Templator{})

	do.Provide(injector, handle.NewGenerateHandler)
	do.Provide(injector, handle.NewModelHandler)
	do.Provide(injector, handle.NewHistoryHandler)
	do.Provide(injector, handle.NewPageHandler)
	do.Provide(injector, handler.NewHandler)

	return injector
}
