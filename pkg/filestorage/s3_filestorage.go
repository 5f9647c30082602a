package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config - параметры S3-совместимого хранилища (AWS S3 или MinIO)
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // пусто - стандартный AWS endpoint
	PathStyle bool
}

// s3API - подмножество клиента, которое мы используем (удобно подменять в тестах)
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3FileStorage struct {
	client s3API
	bucket string
	now    func() time.Time
}

func NewS3FileStorage(ctx context.Context, cfg S3Config) (*S3FileStorage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: не указан bucket")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("s3: не удалось загрузить конфигурацию AWS: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return newS3FileStorage(client, cfg.Bucket), nil
}

func newS3FileStorage(client s3API, bucket string) *S3FileStorage {
	return &S3FileStorage{client: client, bucket: bucket, now: time.Now}
}

func (s *S3FileStorage) Save(ctx context.Context, file io.Reader, fileName string, prefix string) (string, error) {
	key := objectKey(prefix, s.now(), fileName)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file,
	}
	if ct := contentTypeFor(fileName); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("s3: не удалось сохранить %s: %w", key, err)
	}
	return key, nil
}

func (s *S3FileStorage) Delete(ctx context.Context, filePath string) error {
	key := strings.TrimPrefix(filePath, "/")
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil
		}
		return fmt.Errorf("s3: не удалось удалить %s: %w", key, err)
	}
	return nil
}

func contentTypeFor(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return ""
	}
}
