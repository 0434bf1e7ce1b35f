package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wipefix/wipefix/backend/go-services/internal/brokerpack"
)

// LatestDocument is the body of <prefix>/latest.json, the shape the web client polls.
type LatestDocument struct {
	Version   string `json:"version"`
	URL       string `json:"url"`
	UpdatedAt string `json:"updated_at"`
}

// PackMirror publishes sanitized packs as static JSON objects in a MinIO/S3 bucket.
type PackMirror struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewPackMirror creates a MinIO client and ensures the bucket exists.
func NewPackMirror(cfg *MinIOConfig) (*PackMirror, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	m := &PackMirror{client: mc, bucket: cfg.Bucket, prefix: cfg.prefix()}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		// ignore "already exists" style errors
		exist, xerr := mc.BucketExists(ctx, m.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return m, nil
}

// PublishPack writes <prefix>/<version>.json. Pack objects are immutable, so they may be cached.
func (m *PackMirror) PublishPack(ctx context.Context, p brokerpack.BrokerPack) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return m.put(ctx, packKey(m.prefix, p.Version), body, "public, max-age=31536000, immutable")
}

// PublishLatest rewrites <prefix>/latest.json to point at the given pack.
func (m *PackMirror) PublishLatest(ctx context.Context, ptr brokerpack.LatestPointer) error {
	body, err := json.Marshal(latestDocument(m.prefix, ptr))
	if err != nil {
		return err
	}
	return m.put(ctx, latestKey(m.prefix), body, "no-cache")
}

func (m *PackMirror) put(ctx context.Context, key string, body []byte, cacheControl string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType:  "application/json",
		CacheControl: cacheControl,
	})
	if err != nil {
		return fmt.Errorf("minio put %s: %w", key, err)
	}
	return nil
}

func packKey(prefix, version string) string {
	return prefix + "/" + version + ".json"
}

func latestKey(prefix string) string {
	return prefix + "/latest.json"
}

func latestDocument(prefix string, ptr brokerpack.LatestPointer) LatestDocument {
	return LatestDocument{
		Version:   ptr.Version,
		URL:       "/" + packKey(prefix, ptr.Version),
		UpdatedAt: ptr.UpdatedAt,
	}
}
