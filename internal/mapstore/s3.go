package mapstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config configures the S3-backed map store.
type S3Config struct {
	Region       string
	Endpoint     string // Optional; set for MinIO or other S3-compatible stores
	AccessKey    string // Optional; default credential chain when empty
	SecretKey    string
	BucketPrefix string // Prepended to the container name to form the bucket name
}

// s3API is the subset of the S3 client used by S3Store.
type s3API interface {
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store implements Store on S3 buckets. Map metadata is stored as object
// user metadata, which S3 returns with lower-cased keys.
type S3Store struct {
	client       s3API
	bucketPrefix string
	logger       *slog.Logger
}

// NewS3Store builds an S3 client from cfg using the default AWS config chain.
func NewS3Store(ctx context.Context, cfg S3Config, logger *slog.Logger) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Store(client, cfg.BucketPrefix, logger), nil
}

func newS3Store(client s3API, bucketPrefix string, logger *slog.Logger) *S3Store {
	return &S3Store{
		client:       client,
		bucketPrefix: bucketPrefix,
		logger:       logger.With("component", "mapstore", "backend", "s3"),
	}
}

func (s *S3Store) bucket(container string) string {
	return s.bucketPrefix + container
}

// ListMapEntries lists all objects in the container's bucket and reads the
// user metadata of each one.
func (s *S3Store) ListMapEntries(ctx context.Context, container string) ([]Entry, error) {
	bucket := s.bucket(container)
	s.logger.Debug("list maps", "bucket", bucket)

	var entries []Entry
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{Bucket: aws.String(bucket)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, wrapS3Error(err, bucket, "")
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
				Bucket: aws.String(bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				s.logger.Warn("head map object", "bucket", bucket, "key", key, "error", err)
				continue
			}
			entries = append(entries, Entry{Name: key, Metadata: head.Metadata})
		}
	}
	return entries, nil
}

// FetchMapBytes downloads a map object.
func (s *S3Store) FetchMapBytes(ctx context.Context, container, name string) ([]byte, error) {
	bucket := s.bucket(container)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		return nil, wrapS3Error(err, bucket, name)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read map %s/%s: %w", bucket, name, err)
	}
	return data, nil
}

// PutMap uploads a map object with its metadata.
func (s *S3Store) PutMap(ctx context.Context, container, name string, image []byte, metadata map[string]string) error {
	bucket := s.bucket(container)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(name),
		Body:     bytes.NewReader(image),
		Metadata: metadata,
	})
	if err != nil {
		return wrapS3Error(err, bucket, name)
	}
	s.logger.Info("map uploaded", "bucket", bucket, "key", name, "bytes", len(image))
	return nil
}

func wrapS3Error(err error, bucket, key string) error {
	var noBucket *types.NoSuchBucket
	if errors.As(err, &noBucket) {
		return fmt.Errorf("bucket %s: %w", bucket, ErrContainerNotFound)
	}
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return fmt.Errorf("object %s/%s: %w", bucket, key, ErrMapNotFound)
	}
	if strings.Contains(err.Error(), "NoSuchBucket") {
		return fmt.Errorf("bucket %s: %w", bucket, ErrContainerNotFound)
	}
	return fmt.Errorf("s3 %s/%s: %w", bucket, key, err)
}
