package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"editorial/internal/config"
	"editorial/internal/fileutil"
)

// Sink stores one exported document under name.
type Sink interface {
	Name() string
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// NewSink builds the sink selected by cfg.Destination.
func NewSink(ctx context.Context, cfg config.Archive) (Sink, error) {
	switch cfg.Destination {
	case config.ArchiveFile, "":
		return NewFileSink(cfg.Dir), nil
	case config.ArchiveS3:
		return NewS3Sink(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported archive destination %q", cfg.Destination)
	}
}

// FileSink writes documents into a directory.
type FileSink struct {
	dir string
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

func (f *FileSink) Name() string { return config.ArchiveFile }

// Put writes data atomically and returns the file path.
func (f *FileSink) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := filepath.Join(f.dir, filepath.Base(name))
	if err := fileutil.WriteFileAtomic(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write archive %q: %w", target, err)
	}
	if err := fileutil.VerifyFile(target, data); err != nil {
		return "", fmt.Errorf("verify archive %q: %w", target, err)
	}
	return target, nil
}

// S3Sink uploads documents to an S3-compatible bucket.
type S3Sink struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Sink creates an S3 sink. Static credentials from cfg win over the
// default AWS credential chain; a custom endpoint switches to path-style
// addressing for MinIO and similar servers. Extra client options apply last.
func NewS3Sink(ctx context.Context, cfg config.Archive, opts ...func(*s3.Options)) (*S3Sink, error) {
	if strings.TrimSpace(cfg.S3Bucket) == "" {
		return nil, fmt.Errorf("archive.s3_bucket required for s3 destination")
	}
	region := cfg.S3Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
		for _, opt := range opts {
			opt(o)
		}
	})
	return &S3Sink{client: client, bucket: cfg.S3Bucket, prefix: strings.Trim(cfg.S3Prefix, "/")}, nil
}

func (s *S3Sink) Name() string { return config.ArchiveS3 }

// Put uploads data and returns the s3:// URI of the object.
func (s *S3Sink) Put(ctx context.Context, name string, data []byte) (string, error) {
	key := path.Base(name)
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
		Metadata:      map[string]string{"sha256": fileutil.Checksum(data)},
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
