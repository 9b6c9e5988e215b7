// Package objectstore persists uploaded KYC images and returns stable
// retrieval URLs, backed by S3-compatible storage.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"bankassist/pkg/platform/sentinel"
)

// PutAPI is the subset of the S3 client this gateway uses.
type PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store uploads objects and derives their public URL.
type Store struct {
	client PutAPI
	region string
	// publicBaseURL, when set, fronts the bucket (CDN or Supabase-style
	// public endpoint). Otherwise the virtual-hosted S3 URL is returned.
	publicBaseURL string
}

func New(client PutAPI, region, publicBaseURL string) *Store {
	return &Store{client: client, region: region, publicBaseURL: strings.TrimSuffix(publicBaseURL, "/")}
}

// NewFromConfig builds the store from an AWS config.
func NewFromConfig(cfg aws.Config, publicBaseURL string) *Store {
	return New(s3.NewFromConfig(cfg), cfg.Region, publicBaseURL)
}

// Put uploads one object and returns its retrieval URL. Failures wrap
// sentinel.ErrUnavailable; the caller reports them and retries the step.
func (s *Store) Put(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put %s/%s: %w: %w", bucket, key, sentinel.ErrUnavailable, err)
	}

	if s.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, bucket, key), nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.region, key), nil
}
