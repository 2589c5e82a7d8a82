// Package storage stages uploaded files in an S3-compatible bucket so the
// generation API can fetch them by URL.
package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	URLExpiry time.Duration
}

type Uploader struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	urlExpiry time.Duration
}

func NewUploader(ctx context.Context, opts Options) (*Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load object store config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.Endpoint)
		o.UsePathStyle = true
	})

	return &Uploader{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    opts.Bucket,
		urlExpiry: opts.URLExpiry,
	}, nil
}

// ObjectKey builds a collision-resistant key for one staged file: a date
// prefix for housekeeping, a uuid so concurrent uploads of identically named
// files never clash, and the display name kept for debuggability.
func ObjectKey(displayName string) string {
	return fmt.Sprintf("references/%s/%s-%s",
		time.Now().UTC().Format("2006/01/02"), uuid.New(), displayName)
}

// Upload writes the local file to the bucket and returns a presigned GET URL
// the generation API can fetch without credentials. The URL stays valid for
// the configured expiry.
func (u *Uploader) Upload(ctx context.Context, localPath, displayName, contentType string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	key := ObjectKey(displayName)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", displayName, err)
	}

	signed, err := u.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(u.urlExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}

	return signed.URL, nil
}
