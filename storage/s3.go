package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"tech-pulse/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client erstellt einen S3-Client für das Modell-Backup.
func NewS3Client(cfg *config.Config) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.ModelS3URL,
				SigningRegion:     cfg.ModelS3Region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.ModelS3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.ModelS3Key, cfg.ModelS3Secret, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

// ModelBackup lädt den Modell-Blob nach jedem erfolgreichen Save zusätzlich
// in ein S3-Bucket hoch. Es gibt genau einen Backup-Key: wie die lokale Datei
// wird er bei jedem Lauf überschrieben.
type ModelBackup struct {
	Client *s3.Client
	Bucket string
	Key    string
}

// NewModelBackup erstellt das Backup-Ziel für den Modell-Blob.
func NewModelBackup(client *s3.Client, bucket string) *ModelBackup {
	return &ModelBackup{Client: client, Bucket: bucket, Key: "topic_model.gob"}
}

// Upload schreibt den Blob nach S3.
func (b *ModelBackup) Upload(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err := b.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &b.Bucket,
		Key:    &b.Key,
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("upload model blob to s3: %w", err)
	}
	return nil
}
