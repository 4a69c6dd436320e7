package connector

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type S3ConnectorConfig struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// listObjectsAPI is the part of *s3.Client the connector needs.
type listObjectsAPI interface {
	ListObjects(ctx context.Context, params *s3.ListObjectsInput, optFns ...func(*s3.Options)) (*s3.ListObjectsOutput, error)
}

type S3Connector struct {
	client listObjectsAPI
}

// NewS3Connector builds a connector on top of the AWS default config chain.
// Static credentials are used only when an access key is given.
func NewS3Connector(ctx context.Context, cfg S3ConnectorConfig) (*S3Connector, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newS3Connector(client), nil
}

func newS3Connector(client listObjectsAPI) *S3Connector {
	return &S3Connector{client: client}
}

func (c *S3Connector) List(bucket, prefix string) Pager {
	return &s3Pager{
		client: c.client,
		bucket: bucket,
		prefix: prefix,
	}
}

type s3Pager struct {
	client listObjectsAPI
	bucket string
	prefix string

	marker *string
	done   bool
}

func (p *s3Pager) HasMorePages() bool {
	return !p.done
}

func (p *s3Pager) NextPage(ctx context.Context) ([]Object, error) {
	if p.done {
		return nil, ErrNoMorePages
	}

	out, err := p.client.ListObjects(ctx, &s3.ListObjectsInput{
		Bucket: aws.String(p.bucket),
		Prefix: aws.String(p.prefix),
		Marker: p.marker,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("failed to list objects in bucket %s with prefix %s (%s): %w", p.bucket, p.prefix, apiErr.ErrorCode(), err)
		}
		return nil, fmt.Errorf("failed to list objects in bucket %s with prefix %s: %w", p.bucket, p.prefix, err)
	}

	objects := make([]Object, 0, len(out.Contents))
	for _, obj := range out.Contents {
		if obj.Key == nil {
			continue
		}
		objects = append(objects, Object{
			Key:               *obj.Key,
			Name:              path.Base(*obj.Key),
			SizeBytes:         uint64(aws.ToInt64(obj.Size)),
			ETag:              aws.ToString(obj.ETag),
			ModifiedTimestamp: obj.LastModified,
		})
	}

	if !aws.ToBool(out.IsTruncated) {
		p.done = true
		return objects, nil
	}

	// The next page starts after the last key we have seen.
	switch {
	case len(objects) > 0:
		p.marker = aws.String(objects[len(objects)-1].Key)
	case aws.ToString(out.NextMarker) != "":
		p.marker = out.NextMarker
	default:
		p.done = true
		return nil, fmt.Errorf("truncated listing of bucket %s with prefix %s has no marker to continue from", p.bucket, p.prefix)
	}

	return objects, nil
}
