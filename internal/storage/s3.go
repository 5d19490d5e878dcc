package storage

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client is the part of *s3.Client that S3Storage uses.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config describes a bucket on AWS or an S3-compatible service.
type S3Config struct {
	Bucket         string
	Region         string
	AccessKeyID    string
	SecretKey      string
	Endpoint       string // optional, for MinIO and friends
	BaseURL        string // public URL prefix; derived from bucket and region when empty
	ForcePathStyle bool
}

// S3Storage stores uploads as objects in one bucket.
type S3Storage struct {
	client  S3Client
	bucket  string
	baseURL string
}

var _ Storage = (*S3Storage)(nil)

// S3Option customizes NewS3Storage.
type S3Option func(*s3Options)

type s3Options struct {
	client S3Client
}

// WithS3Client uses client instead of building one from the AWS config.
func WithS3Client(client S3Client) S3Option {
	return func(o *s3Options) { o.client = client }
}

func NewS3Storage(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Storage, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	var o s3Options
	for _, opt := range opts {
		opt(&o)
	}

	client := o.client
	if client == nil {
		loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}

		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("storage: loading AWS config: %w", err)
		}
		client = s3.NewFromConfig(awsCfg, func(so *s3.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
		})
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Endpoint != "" {
			baseURL = fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.Endpoint, "/"), cfg.Bucket)
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &S3Storage{client: client, bucket: cfg.Bucket, baseURL: baseURL}, nil
}

func (s *S3Storage) Save(ctx context.Context, fh *multipart.FileHeader, key string) (string, error) {
	if fh == nil {
		return "", ErrNilFile
	}
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	contentType, _, err := DetectImage(fh)
	if err != nil {
		contentType = "application/octet-stream"
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("storage: opening upload: %w", err)
	}
	defer src.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          src,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(fh.Size),
	})
	if err != nil {
		return "", classifyS3Error(err, key)
	}

	return s.baseURL + key, nil
}

func classifyS3Error(err error, key string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("storage: putting %s (code %s): %w", key, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("storage: putting %s: %w", key, err)
}
