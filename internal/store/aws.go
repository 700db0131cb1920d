package store

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmorgan81/neurophoto/internal/config"
	"github.com/dmorgan81/neurophoto/internal/log"
	"github.com/samber/do"
)

// S3Uploader stores images in a bucket served from PublicBaseURL, usually a
// CloudFront distribution in front of it.
type S3Uploader struct {
	Client        *s3.Client
	Bucket        string
	PublicBaseURL string
}

func NewS3Uploader(i *do.Injector) (*S3Uploader, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &S3Uploader{
		Client:        do.MustInvoke[*s3.Client](i),
		Bucket:        cfg.Bucket,
		PublicBaseURL: cfg.PublicBaseURL,
	}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, params UploadParams) (string, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("s3").With(
		"name", params.Name,
		"content-type", params.ContentType,
		"bucket", u.Bucket,
	)
	log.Info("uploading to s3")

	_, err := u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(u.Bucket),
		Key:          aws.String(params.Name),
		ContentType:  aws.String(params.ContentType),
		Body:         bytes.NewReader(params.Data),
		Metadata:     params.Metadata,
		StorageClass: s3types.StorageClassIntelligentTiering,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(u.PublicBaseURL, "/") + "/" + params.Name, nil
}

func (u *S3Uploader) Remove(ctx context.Context, name string) error {
	log := log.FromContextOrDiscard(ctx).WithGroup("s3").With("name", name, "bucket", u.Bucket)
	log.Info("deleting from s3")

	_, err := u.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(name),
	})
	return err
}

type CloudFrontInvalidator struct {
	Client       *cloudfront.Client
	Distribution string
}

func NewCloudFrontInvalidator(i *do.Injector) (*CloudFrontInvalidator, error) {
	return &CloudFrontInvalidator{
		Client:       do.MustInvoke[*cloudfront.Client](i),
		Distribution: do.MustInvoke[*config.Config](i).Distribution,
	}, nil
}

func (i *CloudFrontInvalidator) Invalidate(ctx context.Context, paths []string) error {
	log := log.FromContextOrDiscard(ctx).WithGroup("cloudfront").With("paths", paths, "distribution", i.Distribution)
	log.Info("invalidating paths in cloudfront")

	_, err := i.Client.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(i.Distribution),
		InvalidationBatch: &cftypes.InvalidationBatch{
			CallerReference: aws.String(time.Now().UTC().Format("20060102150405.000000")),
			Paths: &cftypes.Paths{
				Quantity: aws.Int32(int32(len(paths))),
				Items:    paths,
			},
		},
	})
	return err
}
