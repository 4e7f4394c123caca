package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	zlog "github.com/rs/zerolog/log"
	appConfig "github.com/sareehouse/storefront-api/config"
)

// S3Interface defines the object storage operations the image host needs
type S3Interface interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
	DeleteObject(ctx context.Context, key string) error
	PublicURL(key string) string
}

// S3Service stores product images in an S3 bucket
type S3Service struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

var s3ServiceInstance S3Interface

// InitS3Service initializes the S3 service with AWS credentials.
// Static credentials are used when configured, otherwise the default AWS chain applies.
func InitS3Service(ctx context.Context, cfg *appConfig.Config) (S3Interface, error) {
	if cfg.AWSS3Bucket == "" {
		return nil, fmt.Errorf("AWS_S3_BUCKET is required for image uploads")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	publicURL := strings.TrimRight(cfg.AWSS3PublicURL, "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.AWSS3Bucket, cfg.AWSRegion)
	}

	s3ServiceInstance = &S3Service{
		client:    s3.NewFromConfig(awsConfig),
		bucket:    cfg.AWSS3Bucket,
		publicURL: publicURL,
	}
	return s3ServiceInstance, nil
}

// GetS3Service returns the initialized S3 service instance
func GetS3Service() S3Interface {
	return s3ServiceInstance
}

// SetS3Service sets the S3 service instance (primarily for testing)
func SetS3Service(service S3Interface) {
	s3ServiceInstance = service
}

// PutObject uploads bytes under key
func (s *S3Service) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	zlog.Debug().Str("key", key).Int("bytes", len(body)).Msg("uploaded object")
	return nil
}

// DeleteObject removes key from the bucket
func (s *S3Service) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

// PublicURL returns the address browsers load key from
func (s *S3Service) PublicURL(key string) string {
	return s.publicURL + "/" + key
}
