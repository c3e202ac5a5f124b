// Package storage uploads run artifacts to S3-compatible object
// storage and returns shareable links for the video description.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"newscast/config"
	apperrors "newscast/errors"
)

type Client struct {
	client   *s3.Client
	bucket   string
	endpoint string
}

func NewClient(cfg config.StorageConfig) (*Client, error) {
	const op = "storage.NewClient"

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{URL: cfg.Endpoint}, nil
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, apperrors.Internal(op, err, "Failed to load storage configuration")
	}

	return &Client{
		client:   s3.NewFromConfig(awsCfg),
		bucket:   cfg.Bucket,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
	}, nil
}

// UploadNotes stores the study-notes artifact publicly and returns
// its URL.
func (c *Client) UploadNotes(ctx context.Context, key, content string) (string, error) {
	const op = "Client.UploadNotes"

	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(content),
		ContentType: aws.String("text/markdown; charset=utf-8"),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", apperrors.Internal(op, err, "Failed to upload notes")
	}

	return fmt.Sprintf("%s/%s/%s", c.endpoint, c.bucket, key), nil
}
