// Package storage keeps tenant branding assets in object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const logoBucket = "tenant-branding"

// LogoStore uploads tenant logos and returns the URL stored in the
// tenant's branding settings.
type LogoStore interface {
	UploadLogo(ctx context.Context, tenantID uuid.UUID, filename, contentType string, size int64, r io.Reader) (string, error)
	RemoveLogo(ctx context.Context, tenantID uuid.UUID, objectURL string) error
}

type minioLogoStore struct {
	client   *minio.Client
	endpoint string
	useSSL   bool
}

func NewMinioLogoStore(endpoint, accessKey, secretKey string, useSSL bool) (LogoStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	s := &minioLogoStore{client: client, endpoint: endpoint, useSSL: useSSL}
	if err := s.ensureBucket(context.Background()); err != nil {
		log.Printf("WARN: could not ensure logo bucket: %v", err)
	}
	return s, nil
}

func (s *minioLogoStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, logoBucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.client.MakeBucket(ctx, logoBucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (s *minioLogoStore) UploadLogo(ctx context.Context, tenantID uuid.UUID, filename, contentType string, size int64, r io.Reader) (string, error) {
	objectName := fmt.Sprintf("%s/logo-%s-%s", tenantID, uuid.NewString()[:8], sanitize(filename))
	_, err := s.client.PutObject(ctx, logoBucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload logo: %w", err)
	}

	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, logoBucket, objectName), nil
}

func (s *minioLogoStore) RemoveLogo(ctx context.Context, tenantID uuid.UUID, objectURL string) error {
	marker := fmt.Sprintf("/%s/", logoBucket)
	idx := strings.Index(objectURL, marker)
	if idx < 0 {
		return fmt.Errorf("unrecognized logo url %q", objectURL)
	}
	objectName := objectURL[idx+len(marker):]
	if !strings.HasPrefix(objectName, tenantID.String()+"/") {
		return fmt.Errorf("logo url %q does not belong to tenant %s", objectURL, tenantID)
	}
	if err := s.client.RemoveObject(ctx, logoBucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove logo: %w", err)
	}
	return nil
}

func sanitize(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, " ", "_")
	return name
}
