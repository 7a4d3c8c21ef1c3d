package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"

	reports "market-reports/internal/reports/domain"
)

// API is the subset of the S3 client used by Store.
type API interface {
	HeadObjectWithContext(ctx aws.Context, input *awss3.HeadObjectInput, opts ...request.Option) (*awss3.HeadObjectOutput, error)
	GetObjectWithContext(ctx aws.Context, input *awss3.GetObjectInput, opts ...request.Option) (*awss3.GetObjectOutput, error)
	PutObjectWithContext(ctx aws.Context, input *awss3.PutObjectInput, opts ...request.Option) (*awss3.PutObjectOutput, error)
	DeleteObjectWithContext(ctx aws.Context, input *awss3.DeleteObjectInput, opts ...request.Option) (*awss3.DeleteObjectOutput, error)
}

// Store keeps canonical reports as objects under a bucket prefix.
type Store struct {
	api    API
	bucket string
	prefix string
}

// NewStore constructs a store.
func NewStore(api API, bucket, prefix string) (*Store, error) {
	if api == nil {
		return nil, errors.New("s3 cache: nil client")
	}
	if bucket == "" {
		return nil, errors.New("s3 cache: empty bucket")
	}
	return &Store{api: api, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

// NewClient builds an S3 client for region. A non-empty endpoint switches
// to path-style addressing for S3-compatible services.
func NewClient(region, endpoint string) (*awss3.S3, error) {
	cfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return awss3.New(sess), nil
}

// Exists reports whether key has an object.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.api.HeadObjectWithContext(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Read returns the object body for key.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	out, err := s.api.GetObjectWithContext(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, reports.ErrCacheMiss
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// Write puts data under key.
func (s *Store) Write(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return reports.ErrInvalidCacheKey
	}
	_, err := s.api.PutObjectWithContext(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv; charset=utf-8"),
	})
	return err
}

// Remove deletes the object for key.
func (s *Store) Remove(ctx context.Context, key string) error {
	_, err := s.api.DeleteObjectWithContext(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

func (s *Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	switch aerr.Code() {
	case awss3.ErrCodeNoSuchKey, "NotFound":
		return true
	default:
		return false
	}
}
