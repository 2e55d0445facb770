package store

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dkeye/cowork/internal/config"
	"github.com/dkeye/cowork/internal/core"
)

// ObjectAPI is the part of *s3.Client the store calls.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// NewS3Client builds a client for AWS or any S3-compatible endpoint.
func NewS3Client(conf config.S3Config) (*s3.Client, error) {
	if conf.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}
	opts := s3.Options{
		Region:           conf.Region,
		RetryMode:        aws.RetryModeAdaptive,
		RetryMaxAttempts: 3,
	}
	if conf.AccessKeyID != "" || conf.SecretAccessKey != "" {
		opts.Credentials = aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			conf.AccessKeyID,
			conf.SecretAccessKey,
			"",
		))
	}
	if conf.Endpoint != "" {
		opts.BaseEndpoint = aws.String(conf.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts), nil
}

// S3Store keeps one object per resource under prefix.
type S3Store struct {
	api    ObjectAPI
	bucket string
	prefix string
}

func NewS3Store(api ObjectAPI, bucket, prefix string) *S3Store {
	return &S3Store{api: api, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Store) key(resourceID string) (string, error) {
	name, err := objectName(resourceID)
	if err != nil {
		return "", err
	}
	if s.prefix == "" {
		return name, nil
	}
	return path.Join(s.prefix, name), nil
}

func (s *S3Store) Save(ctx context.Context, resourceID, content string) (core.SaveResult, error) {
	key, err := s.key(resourceID)
	if err != nil {
		return core.SaveResult{}, err
	}
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(content),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return core.SaveResult{}, fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	return core.SaveResult{Path: "s3://" + s.bucket + "/" + key, UpdatedAt: time.Now().UTC()}, nil
}

// Delete removes the object. S3 treats a missing key as success.
func (s *S3Store) Delete(ctx context.Context, resourceID string) error {
	key, err := s.key(resourceID)
	if err != nil {
		return err
	}
	_, err = s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from S3: %w", key, err)
	}
	return nil
}
