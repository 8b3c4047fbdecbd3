package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/multierr"
)

// S3Config holds explicit construction parameters of the S3 driver.
// The container of an object is the bucket it lives in.
type S3Config struct {
	Region          string
	Endpoint        string // optional; if set enables custom endpoint (e.g. MinIO)
	AccessKeyID     string // optional (falls back to default credentials chain)
	SecretAccessKey string // optional
	SessionToken    string // optional
	PathStyle       bool
}

// S3 implements Store using an S3-compatible backend (AWS S3 or MinIO).
type S3 struct {
	client *s3.Client
}

var _ Store = (*S3)(nil)

// NewS3 creates an S3 blob store from its configuration.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3{client: client}, nil
}

func (s *S3) Driver() Driver { return DriverS3 }

func (s *S3) Fetch(ctx context.Context, container, name string) (b []byte, err error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(name),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		var nf *types.NotFound
		if errors.As(err, &nsk) || errors.As(err, &nf) {
			return nil, fmt.Errorf("%s/%s: %w", container, name, ErrNotExist)
		}
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, out.Body.Close())
	}()
	return io.ReadAll(out.Body)
}

func (s *S3) Store(ctx context.Context, container, name string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(container),
		Key:           aws.String(name),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if ct := contentType(name); ct != "" {
		input.ContentType = aws.String(ct)
	}
	_, err := s.client.PutObject(ctx, input)
	return err
}

// contentType guesses the MIME type from the object name, defaulting to
// plain text for the audit log.
func contentType(name string) string {
	switch ext := path.Ext(name); ext {
	case ".log":
		return "text/plain; charset=utf-8"
	default:
		return mime.TypeByExtension(ext)
	}
}
