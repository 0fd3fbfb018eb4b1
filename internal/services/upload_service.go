package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rooklabs/marquee/internal/models"
)

// UploadResult carries the stored object's key and public URL
type UploadResult struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
}

// S3UploadService stores uploaded images in an S3 bucket. It only tracks
// keys and URLs; file format concerns stay with the caller.
type S3UploadService struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	urlPrefix     string
	presignExpiry time.Duration
	logger        *slog.Logger
}

// NewS3UploadService creates a new S3-backed upload service
func NewS3UploadService(region, bucket string, presignExpiry time.Duration, logger *slog.Logger) (*S3UploadService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	return &S3UploadService{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        bucket,
		urlPrefix:     fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region),
		presignExpiry: presignExpiry,
		logger:        logger,
	}, nil
}

// UploadImage stores the file under a fresh key and returns its location.
// The key is folder/uuid-filename with whitespace collapsed to underscores.
func (s *S3UploadService) UploadImage(ctx context.Context, body io.Reader, filename, contentType string, size int64, folder string) (*UploadResult, error) {
	if size <= 0 {
		return nil, models.ErrBadRequest
	}

	key := uuid.New().String()
	if filename != "" {
		key += "-" + strings.Join(strings.Fields(filename), "_")
	}
	if folder != "" {
		key = strings.TrimRight(folder, "/") + "/" + key
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		s.logger.Error("failed to upload object to S3",
			slog.String("key", key), slog.Any("error", err))
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	s.logger.Info("object uploaded", slog.String("key", key), slog.Int64("size", size))

	return &UploadResult{
		Key:         key,
		URL:         s.urlPrefix + "/" + url.PathEscape(key),
		Size:        size,
		ContentType: contentType,
	}, nil
}

// PresignDownload generates a time-limited download URL for a stored object
func (s *S3UploadService) PresignDownload(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", models.ErrBadRequest
	}

	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignExpiry))
	if err != nil {
		s.logger.Error("failed to presign download URL",
			slog.String("key", key), slog.Any("error", err))
		return "", fmt.Errorf("failed to presign URL: %w", err)
	}

	return req.URL, nil
}

// DeleteObject removes a stored object by key
func (s *S3UploadService) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return models.ErrBadRequest
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Error("failed to delete object from S3",
			slog.String("key", key), slog.Any("error", err))
		return fmt.Errorf("failed to delete from S3: %w", err)
	}

	return nil
}
