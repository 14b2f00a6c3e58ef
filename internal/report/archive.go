package report

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the part of *s3.Client used by S3Archiver.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver keeps a copy of every report in a bucket.
type S3Archiver struct {
	client S3API
	bucket string
	prefix string
}

func NewS3Archiver(client S3API, bucket, prefix string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, prefix: prefix}
}

// ObjectKey builds <prefix>/<runnable>/<UTC timestamp>.json<ext>.
func (a *S3Archiver) ObjectKey(runnable string, at time.Time, ext string) string {
	name := at.UTC().Format("20060102T150405Z") + ".json" + ext
	return path.Join(a.prefix, runnable, name)
}

// Archive uploads data under key and returns the s3:// URI.
func (a *S3Archiver) Archive(ctx context.Context, key string, data []byte) (string, error) {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("putting object: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", a.bucket, key), nil
}
