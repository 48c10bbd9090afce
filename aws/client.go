// Package aws defines functions used to interact with the AWS API
package aws

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/spf13/viper"
)

type S3Client struct {
	C      *s3.Client
	Bucket *string

	// PublicURL is the prefix objects are served from
	PublicURL string
}

func NewS3(ctx context.Context) (*S3Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(viper.GetString("aws.region")),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			viper.GetString("aws.access_key_id"),
			viper.GetString("aws.secret_access_key"),
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	bucket := aws.String(viper.GetString("aws.bucket"))
	endpoint := viper.GetString("aws.endpoint")

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// S3 compatible stores (R2, MinIO) need a custom endpoint and path style
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("bucket '%s' does not exist", *bucket)
			}
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return &S3Client{
		C:         client,
		Bucket:    bucket,
		PublicURL: PublicURL(viper.GetString("aws.public_url"), endpoint, *bucket, viper.GetString("aws.region")),
	}, nil
}

// PublicURL picks the prefix uploaded objects are reachable under
func PublicURL(configured, endpoint, bucket, region string) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}

	if endpoint != "" {
		return strings.TrimRight(endpoint, "/") + "/" + bucket
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
}

// URL returns the public URL of key
func (s *S3Client) URL(key string) string {
	return s.PublicURL + "/" + key
}

// KeyFromURL returns the object key of a URL produced by URL. ok is false for
// anything hosted elsewhere.
func (s *S3Client) KeyFromURL(u string) (string, bool) {
	prefix := s.PublicURL + "/"
	if s.PublicURL == "" || !strings.HasPrefix(u, prefix) {
		return "", false
	}

	key := strings.TrimPrefix(u, prefix)
	return key, key != ""
}
