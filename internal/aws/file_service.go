package aws

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type FileService interface {
	// UploadFile stores body under prefix/<uuid><ext> and returns its public URL
	UploadFile(ctx context.Context, prefix, ext, contentType string, body io.Reader) (string, error)
	TestConnection(ctx context.Context) error
}

type fileService struct {
	s3       *s3.Client
	uploader *manager.Uploader
	bucket   string
	region   string
}

func NewFileService(ctx context.Context, accessKey, secretKey, bucketName, region string) (FileService, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}

	// Static keys when configured, otherwise the default chain (env, profile, role)
	if accessKey != "" && secretKey != "" {
		credProvider := aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     accessKey,
				SecretAccessKey: secretKey,
			}, nil
		})
		opts = append(opts, config.WithCredentialsProvider(credProvider))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	return &fileService{
		s3:       client,
		uploader: manager.NewUploader(client),
		bucket:   bucketName,
		region:   region,
	}, nil
}

func (s *fileService) UploadFile(ctx context.Context, prefix, ext, contentType string, body io.Reader) (string, error) {
	key := ObjectKey(prefix, ext)

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		log.Error().Err(err).Str("bucket", s.bucket).Str("key", key).Msg("S3 upload failed")
		return "", fmt.Errorf("error uploading %s: %w", key, err)
	}

	log.Info().Str("bucket", s.bucket).Str("key", key).Msg("Uploaded file to S3")
	return PublicURL(s.bucket, s.region, key), nil
}

func (s *fileService) TestConnection(ctx context.Context) error {
	_, err := s.s3.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		log.Error().Err(err).Str("bucket", s.bucket).Msg("AWS S3 connection test failed")
	}
	return err
}

// ObjectKey builds a collision-free key such as notes/<uuid>.png
func ObjectKey(prefix, ext string) string {
	return path.Join(prefix, uuid.NewString()+ext)
}

func PublicURL(bucket, region, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}
