package param

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/dmorgan81/neurophoto/internal/log"
	"github.com/samber/do"
	"github.com/samber/lo"
)

// ParameterStoreFetcher reads SecureString parameters from SSM.
type ParameterStoreFetcher struct {
	client *ssm.Client
}

func NewParameterStoreFetcher(i *do.Injector) (Fetcher, error) {
	return &ParameterStoreFetcher{client: do.MustInvoke[*ssm.Client](i)}, nil
}

func (f *ParameterStoreFetcher) Fetch(ctx context.Context, path string) (string, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("parameter store").With("path", path)
	log.Info("fetching single parameter")

	out, err := f.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(path),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("fetching parameter %s: %w", path, err)
	}
	return aws.ToString(out.Parameter.Value), nil
}

// FetchAll returns the values of every parameter below path, ordered by
// parameter name.
func (f *ParameterStoreFetcher) FetchAll(ctx context.Context, path string) ([]string, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("parameter store").With("path", path)
	log.Info("fetching all parameters")

	var params []types.Parameter
	pager := ssm.NewGetParametersByPathPaginator(f.client, &ssm.GetParametersByPathInput{
		Path:           aws.String(path),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching parameters below %s: %w", path, err)
		}
		params = append(params, page.Parameters...)
	}
	log.Info("fetched parameters", "count", len(params))

	sort.Slice(params, func(i, j int) bool { return aws.ToString(params[i].Name) < aws.ToString(params[j].Name) })
	return lo.Map(params, func(p types.Parameter, _ int) string {
		return aws.ToString(p.Value)
	}), nil
}
