package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cockroachdb/errors"
	"github.com/invoicegen/invoicegen/internal/config"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/invoicegen/invoicegen/internal/logger"
)

const defaultPresignExpiryDuration = 30 * time.Minute

// Service archives invoice PDFs and hands out time limited download links
type Service interface {
	UploadDocument(ctx context.Context, document *Document) error
	GetPresignedUrl(ctx context.Context, id, fileName string) (string, error)
	GetDocument(ctx context.Context, id string) ([]byte, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type s3ServiceImpl struct {
	client *s3.Client
	config config.S3Config
	logger *logger.Logger
}

// NewService returns nil when archiving is disabled; callers check for that
func NewService(cfg *config.Configuration, logger *logger.Logger) (Service, error) {
	if !cfg.S3.Enabled {
		logger.Info("s3 archive is disabled")
		return nil, nil
	}

	awsCfg, err := config.LoadAwsConfig(context.Background(), cfg.S3)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to load aws config").
			Mark(ierr.ErrHTTPClient)
	}

	return &s3ServiceImpl{
		client: config.NewS3Client(awsCfg),
		config: cfg.S3,
		logger: logger,
	}, nil
}

// ObjectKey places documents under the configured prefix
func ObjectKey(prefix, id string) string {
	if prefix == "" {
		return fmt.Sprintf("%s.pdf", id)
	}
	return fmt.Sprintf("%s/%s.pdf", prefix, id)
}

func (s *s3ServiceImpl) key(id string) string {
	return ObjectKey(s.config.KeyPrefix, id)
}

func (s *s3ServiceImpl) Exists(ctx context.Context, id string) (bool, error) {
	key := s.key(id)
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		var nf *types.NotFound
		if errors.As(err, &nsk) || errors.As(err, &nf) {
			return false, nil
		}
		return false, ierr.WithError(err).
			WithMessagef("bucket:%s, key:%s", s.config.Bucket, key).
			WithHint("Failed to check archived document").
			Mark(ierr.ErrHTTPClient)
	}
	return true, nil
}

func (s *s3ServiceImpl) GetPresignedUrl(ctx context.Context, id, fileName string) (string, error) {
	key := s.key(id)
	expiry := s.config.PresignExpiryDuration
	if expiry <= 0 {
		expiry = defaultPresignExpiryDuration
	}

	presigner := s3.NewPresignClient(s.client)
	result, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(s.config.Bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%s", fileName)),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to get presigned url").
			WithMessagef("bucket:%s, key:%s", s.config.Bucket, key).
			Mark(ierr.ErrHTTPClient)
	}
	return result.URL, nil
}

func (s *s3ServiceImpl) UploadDocument(ctx context.Context, document *Document) error {
	key := s.key(document.ID)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(s.config.Bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(document.Data),
		ContentType:        aws.String(document.ContentType()),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%s", document.FileName)),
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to upload document").
			WithMessagef("bucket:%s, key:%s", s.config.Bucket, key).
			Mark(ierr.ErrHTTPClient)
	}

	s.logger.Debugw("uploaded document", "bucket", s.config.Bucket, "key", key, "size", len(document.Data))
	return nil
}

func (s *s3ServiceImpl) GetDocument(ctx context.Context, id string) ([]byte, error) {
	key := s.key(id)
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ierr.WithError(err).
				WithHint("Document not found").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get document").
			WithMessagef("bucket:%s, key:%s", s.config.Bucket, key).
			Mark(ierr.ErrHTTPClient)
	}
	defer result.Body.Close()

	return io.ReadAll(result.Body)
}
