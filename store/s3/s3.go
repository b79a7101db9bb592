package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/unkn0wn-root/resizecache/store"
)

// Bucket reads and writes whole objects. Puts are single PutObject calls, so
// a rendition is either fully visible or absent.
type Bucket struct {
	client *minio.Client
	bucket string
	prefix string
}

var (
	_ store.Origin = (*Bucket)(nil)
	_ store.Cache  = (*Bucket)(nil)
)

// New creates a Bucket. It does not contact the server.
func New(cfg Config) (*Bucket, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentialsFor(cfg),
			Secure: cfg.UseSSL,
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
	}

	return &Bucket{
		client: client,
		bucket: cfg.Bucket,
		prefix: normalizePrefix(cfg.Prefix),
	}, nil
}

func credentialsFor(cfg Config) *credentials.Credentials {
	if cfg.AccessKey != "" {
		return credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken)
	}
	return credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvAWS{},
		&credentials.EnvMinio{},
		&credentials.IAM{Client: &http.Client{Transport: http.DefaultTransport}},
	})
}

// Name returns the bucket name.
func (b *Bucket) Name() string { return b.bucket }

// Exists issues a HEAD (StatObject); the payload is never transferred.
func (b *Bucket) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.client.StatObject(ctx, b.bucket, b.key(key), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if err = translate(err); errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// Get downloads the whole object.
func (b *Bucket) Get(ctx context.Context, key string) (store.Object, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, b.key(key), minio.GetObjectOptions{})
	if err != nil {
		return store.Object{}, translate(err)
	}
	defer func() {
		_ = obj.Close()
	}()

	// GetObject is lazy; Stat performs the request and surfaces NoSuchKey.
	info, err := obj.Stat()
	if err != nil {
		return store.Object{}, translate(err)
	}

	buf := make([]byte, info.Size)
	if _, err := io.ReadFull(obj, buf); err != nil {
		return store.Object{}, translate(err)
	}

	return store.Object{
		Data:         buf,
		ContentType:  info.ContentType,
		CacheControl: info.Metadata.Get("Cache-Control"),
	}, nil
}

// Put uploads obj with Content-Type and Cache-Control set on the object, so
// the bucket can also be served directly by a CDN.
func (b *Bucket) Put(ctx context.Context, key string, obj store.Object) error {
	_, err := b.client.PutObject(
		ctx,
		b.bucket,
		b.key(key),
		bytes.NewReader(obj.Data),
		int64(len(obj.Data)),
		minio.PutObjectOptions{
			ContentType:  obj.ContentType,
			CacheControl: obj.CacheControl,
		},
	)
	if err != nil {
		return translate(err)
	}
	return nil
}

// Close is a no-op; minio clients hold no resources beyond idle connections.
func (b *Bucket) Close(context.Context) error { return nil }

func (b *Bucket) key(name string) string {
	if b.prefix == "" {
		return name
	}
	return b.prefix + "/" + name
}

func normalizePrefix(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.Trim(p, "/")
}

// translate maps minio errors onto store errors.
func translate(err error) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NotFound":
		return store.ErrNotFound
	}
	if resp.StatusCode == http.StatusNotFound && resp.Code != "NoSuchBucket" {
		return store.ErrNotFound
	}
	return fmt.Errorf("s3: %w", err)
}
