package storage

import (
	"bytes"
	"context"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jpcervantes/tours-api/internal/config"
)

type S3Storage struct {
	cfg    config.S3Config
	client *s3.Client
}

func NewS3Storage(cfg config.S3Config) *S3Storage {
	awsConf, err := awscfg.LoadDefaultConfig(context.TODO(),
		awscfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awscfg.WithRegion(cfg.Region),
	)
	if err != nil {
		log.Fatal(err)
	}

	return &S3Storage{
		cfg:    cfg,
		client: s3.NewFromConfig(awsConf),
	}
}

// Upload sube el archivo y devuelve la clave relativa con un "/"
// inicial. Una sola operación bloqueante, sin reintentos: la política
// de reintento, si existe, es del llamador. Misma clave = sobrescribe.
func (s *S3Storage) Upload(ctx context.Context, folder string, file []byte, contentType, id string) (string, error) {
	key := ObjectKey(s.cfg.Environment, folder, id)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}

	return "/" + key, nil
}

// Delete borra un objeto por su clave relativa. Lo usa la compensación
// del lote de media cuando una subida posterior falla.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(strings.TrimLeft(key, "/")),
	})
	return err
}
