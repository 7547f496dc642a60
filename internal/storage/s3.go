package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the settings for AWS S3 or an S3-compatible endpoint
// (Supabase Storage's S3 gateway, MinIO).
type S3Config struct {
	Bucket         string
	Region         string
	Endpoint       string // empty for AWS
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
}

// S3Signer presigns GetObject requests.
type S3Signer struct {
	presigner *s3.PresignClient
	bucket    string
}

func NewS3Signer(ctx context.Context, cfg S3Config) (*S3Signer, error) {
	if err := missing("s3", map[string]string{
		"bucket":     cfg.Bucket,
		"region":     cfg.Region,
		"access key": cfg.AccessKey,
		"secret key": cfg.SecretKey,
	}); err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return &S3Signer{
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
	}, nil
}

func (s *S3Signer) SignedGetURL(ctx context.Context, objectName string, ttl time.Duration) (string, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectName),
	}
	req, err := s.presigner.PresignGetObject(ctx, input, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("storage: presign GET %s: %w", objectName, err)
	}
	return req.URL, nil
}

var _ Signer = (*S3Signer)(nil)
