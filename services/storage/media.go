package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

// MediaStore handles course banners, lesson videos and material files on
// an S3-compatible object store.
type MediaStore struct {
	s3Client *s3.S3
	bucket   string
	endpoint string
	cdnURL   string
}

// MediaConfig holds configuration for the media store
type MediaConfig struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
	CDNURL    string
}

// NewMediaStore creates a new media store client
func NewMediaStore(config MediaConfig) (*MediaStore, error) {
	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
		Endpoint:         aws.String(config.Endpoint),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create media storage session: %w", err)
	}

	return &MediaStore{
		s3Client: s3.New(sess),
		bucket:   config.Bucket,
		endpoint: config.Endpoint,
		cdnURL:   config.CDNURL,
	}, nil
}

// ObjectKey builds a collision-free object key for an upload, keeping the
// original extension. prefix is the media class, e.g. "course_banners".
func ObjectKey(prefix, filename string) string {
	return fmt.Sprintf("%s/%s%s", prefix, uuid.New().String(), filepath.Ext(filename))
}

// Upload stores an object and returns its key
func (m *MediaStore) Upload(ctx context.Context, key string, data io.Reader, contentType string) error {
	_, err := m.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        aws.ReadSeekCloser(data),
		ACL:         aws.String("public-read"),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload media object: %w", err)
	}
	return nil
}

// URL returns the public URL for a stored object key
func (m *MediaStore) URL(key string) string {
	if key == "" {
		return ""
	}
	if m.cdnURL != "" {
		return fmt.Sprintf("%s/%s", m.cdnURL, key)
	}
	return fmt.Sprintf("https://%s.%s/%s", m.bucket, m.endpoint, key)
}

// Delete removes an object; missing objects are not an error
func (m *MediaStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := m.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete media object: %w", err)
	}
	return nil
}
