package deploy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/haneulsoft/ai-relay/internal/domain"
)

// S3Store keeps one object per deployment. Creation time and size travel as
// object metadata so the document body stays byte-exact HTML.
type S3Store struct {
	client *s3.Client
	bucket string
}

const (
	metaCreatedAt = "created-at"
	metaSizeBytes = "size-bytes"
)

func NewS3Store(ctx context.Context, region, bucket string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &S3Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

func NewS3StoreWithConfig(cfg aws.Config, bucket string) *S3Store {
	return &S3Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}
}

func (s *S3Store) Put(ctx context.Context, d *domain.Deployment) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(d.ID),
		Body:        bytes.NewReader([]byte(d.HTML)),
		ContentType: aws.String("text/html; charset=utf-8"),
		Metadata: map[string]string{
			metaCreatedAt: d.CreatedAt.UTC().Format(time.RFC3339),
			metaSizeBytes: strconv.Itoa(d.SizeBytes),
		},
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put deployment object: %w", err)
	}

	return nil
}

func (s *S3Store) Get(ctx context.Context, id string) (*domain.Deployment, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, domain.ErrDeploymentNotFound
		}
		return nil, fmt.Errorf("get deployment object: %w", err)
	}
	defer output.Body.Close()

	html, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("read deployment object: %w", err)
	}

	d := &domain.Deployment{
		ID:        id,
		HTML:      string(html),
		SizeBytes: len(html),
	}

	if v, ok := output.Metadata[metaCreatedAt]; ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			d.CreatedAt = t
		}
	}
	if v, ok := output.Metadata[metaSizeBytes]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			d.SizeBytes = n
		}
	}

	return d, nil
}
