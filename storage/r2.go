package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/xyber-shield/api-go/config"
)

// R2Store keeps attachments in a Cloudflare R2 bucket under staging/ and
// reports/ prefixes. R2 has no rename, so Commit is copy-then-delete.
type R2Store struct {
	Client   *s3.Client
	R2Config *config.R2Config
}

func NewR2Store() *R2Store {
	r2Config := config.GetR2Config()

	r2Client := s3.New(s3.Options{
		BaseEndpoint: aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2Config.AccountID)),
		Credentials: credentials.NewStaticCredentialsProvider(
			r2Config.AccessKeyID,
			r2Config.SecretAccessKey,
			"",
		),
		Region: r2Config.Region,
	})

	return &R2Store{
		Client:   r2Client,
		R2Config: r2Config,
	}
}

func (s *R2Store) Stage(ctx context.Context, r io.Reader, size int64, contentType string) (string, error) {
	key := "staging/" + uuid.New().String()

	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.R2Config.BucketName),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", err
	}

	return key, nil
}

func (s *R2Store) Commit(ctx context.Context, stagingKey, storedName string) error {
	permanentKey := s.PermanentPath(storedName)

	_, err := s.Client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.R2Config.BucketName),
		CopySource: aws.String(fmt.Sprintf("%s/%s", s.R2Config.BucketName, stagingKey)),
		Key:        aws.String(permanentKey),
	})
	if err != nil {
		return err
	}

	return s.deleteObject(ctx, stagingKey)
}

func (s *R2Store) Discard(ctx context.Context, stagingKey string) error {
	return s.deleteObject(ctx, stagingKey)
}

func (s *R2Store) PermanentPath(storedName string) string {
	return "reports/" + storedName
}

func (s *R2Store) deleteObject(ctx context.Context, key string) error {
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.R2Config.BucketName),
		Key:    aws.String(key),
	})
	return err
}
