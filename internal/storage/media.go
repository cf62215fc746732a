package storage

import (
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"videotube/internal/config"
)

// MediaStorage stores uploaded media (avatars, cover images, videos,
// thumbnails) in an S3-compatible bucket and hands back public URLs that are
// persisted on the documents referencing them.
type MediaStorage struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

func NewMediaStorage(cfg config.MediaConfig) (*MediaStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("error checking bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("error creating bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MediaStorage{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: mediaBaseURL(cfg),
	}, nil
}

// Upload streams a multipart file into the bucket under the given folder and
// returns the public URL of the stored object.
func (s *MediaStorage) Upload(ctx context.Context, folder string, file *multipart.FileHeader) (string, error) {
	reader, err := file.Open()
	if err != nil {
		return "", err
	}
	defer reader.Close()

	key := objectKey(folder, file.Filename)

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(file.Filename))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, reader, file.Size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}

	return s.baseURL + "/" + key, nil
}

// Remove deletes the object a previously returned URL points at. URLs that
// do not belong to this bucket are ignored so stale references never block a
// document delete.
func (s *MediaStorage) Remove(ctx context.Context, objectURL string) error {
	key, ok := keyFromURL(s.baseURL, objectURL)
	if !ok {
		return nil
	}
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func mediaBaseURL(cfg config.MediaConfig) string {
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/") + "/" + cfg.Bucket
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return scheme + "://" + cfg.Endpoint + "/" + cfg.Bucket
}

func objectKey(folder, filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".bin"
	}
	return path.Join(folder, uuid.NewString()+ext)
}

func keyFromURL(baseURL, objectURL string) (string, bool) {
	trimmed := strings.TrimSpace(objectURL)
	if trimmed == "" || !strings.HasPrefix(trimmed, baseURL+"/") {
		return "", false
	}

	key := strings.TrimPrefix(trimmed, baseURL+"/")
	if key == "" {
		return "", false
	}
	return key, true
}
