// Package s3 implements store.Origin and store.Cache on an S3-compatible
// bucket (AWS S3, MinIO, R2) using minio-go.
package s3

import (
	"fmt"

	"github.com/minio/minio-go/v7"
)

// Config holds bucket connection settings.
type Config struct {
	// Endpoint is the S3 host (e.g. "s3.amazonaws.com", "localhost:9000").
	Endpoint string

	// Bucket is the bucket name.
	Bucket string

	// Region is the bucket region. Empty lets minio-go discover it.
	Region string

	// AccessKey and SecretKey enable static credentials. When both are empty
	// the AWS environment variables and then the instance role are tried.
	AccessKey    string
	SecretKey    string
	SessionToken string

	// UseSSL enables HTTPS.
	UseSSL bool

	// Prefix is prepended to every key, e.g. "originals".
	Prefix string

	// Client is an optional pre-configured client. If provided, Endpoint,
	// Region and the credentials are ignored.
	Client *minio.Client
}

// validate checks that either Client or Endpoint is set, and that a bucket
// is named in both cases.
func (c *Config) validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	if c.Client != nil {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when client is not provided")
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return fmt.Errorf("access key and secret key must be set together")
	}
	return nil
}
