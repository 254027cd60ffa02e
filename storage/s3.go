package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Store keeps blobs in an S3 bucket. Used when posters must survive
// instance replacement; selected at startup via S3_BUCKET.
type S3Store struct {
	client *s3.S3
	bucket string
}

func NewS3Store(region, bucket string) *S3Store {
	sess := session.Must(session.NewSession(&aws.Config{
		Region: aws.String(region),
	}))
	return &S3Store{
		client: s3.New(sess),
		bucket: bucket,
	}
}

func (s *S3Store) Save(ctx context.Context, logicalPath string, r io.Reader) (*SavedFile, error) {
	// PutObject needs a seekable body, so the upload is buffered. Posters
	// are capped at a few MB by the handler before reaching here.
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(content)

	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(logicalPath),
		Body:   bytes.NewReader(content),
	})
	if err != nil {
		return nil, err
	}

	return &SavedFile{
		StoredPath: logicalPath,
		Hash:       hex.EncodeToString(sum[:]),
		Size:       int64(len(content)),
	}, nil
}

func (s *S3Store) Open(ctx context.Context, storedPath string) (io.ReadCloser, error) {
	output, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storedPath),
	})
	if err != nil {
		return nil, err
	}
	return output.Body, nil
}

func (s *S3Store) Remove(ctx context.Context, storedPath string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storedPath),
	})
	return err
}
