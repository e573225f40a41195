package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"user-admin/internal/core/config"
)

// ErrArchiveDisabled is returned when no bucket is configured.
var ErrArchiveDisabled = errors.New("export archive is not configured")

type Archive struct {
	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
	Location string `json:"location"`
}

type Archiver interface {
	Archive(ctx context.Context, body io.Reader) (Archive, error)
}

type uploader interface {
	Upload(ctx context.Context, in *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Archiver stores exports under <prefix>/users-<timestamp>.csv.
type S3Archiver struct {
	up     uploader
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3Archiver builds the client from the export section. A custom endpoint
// (MinIO and friends) switches to path-style addressing. Static keys are used
// when present, otherwise the default AWS credential chain.
func NewS3Archiver(ctx context.Context, c config.Export) (*S3Archiver, error) {
	if !c.Enabled() {
		return nil, ErrArchiveDisabled
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.AccessKey != "" && c.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Archiver(manager.NewUploader(client), c.Bucket, c.Prefix), nil
}

func newS3Archiver(up uploader, bucket, prefix string) *S3Archiver {
	return &S3Archiver{up: up, bucket: bucket, prefix: strings.Trim(prefix, "/"), now: time.Now}
}

func (a *S3Archiver) key() string {
	name := fmt.Sprintf("users-%s.csv", a.now().UTC().Format("20060102T150405Z"))
	if a.prefix == "" {
		return name
	}
	return a.prefix + "/" + name
}

func (a *S3Archiver) Archive(ctx context.Context, body io.Reader) (Archive, error) {
	key := a.key()
	out, err := a.up.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(ContentType),
		Metadata:    map[string]string{"export-id": uuid.NewString()},
	})
	if err != nil {
		return Archive{}, fmt.Errorf("upload %s to %s: %w", key, a.bucket, err)
	}
	return Archive{Bucket: a.bucket, Key: key, Location: out.Location}, nil
}
