package lode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/justapithecus/lode/lode"
	lodes3 "github.com/justapithecus/lode/lode/s3"
)

// Backend names a storage backend for published builds.
type Backend string

const (
	BackendFS Backend = "fs"
	BackendS3 Backend = "s3"
)

// StoreConfig selects and configures a publish backend.
type StoreConfig struct {
	// Backend is fs or s3.
	Backend Backend
	// Path is a root directory for fs, or "bucket/prefix" for s3.
	Path string
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint for S3-compatible providers.
	Endpoint string
	// UsePathStyle forces path-style addressing.
	UsePathStyle bool
}

// Validate checks the backend and path.
func (c *StoreConfig) Validate() error {
	switch c.Backend {
	case BackendFS, BackendS3:
	default:
		return fmt.Errorf("unknown publish backend %q (want fs or s3)", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("publish path is required for %s backend", c.Backend)
	}
	return nil
}

// S3Config holds configuration for the S3 backend.
type S3Config struct {
	Bucket       string
	Prefix       string
	Region       string
	Endpoint     string
	UsePathStyle bool
}

// Validate checks that required S3 configuration is present.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("S3 bucket is required")
	}
	return nil
}

// ParseS3Path splits "bucket/prefix" into its parts.
func ParseS3Path(path string) (bucket, prefix string) {
	bucket, prefix, _ = strings.Cut(strings.TrimPrefix(path, "s3://"), "/")
	return bucket, strings.Trim(prefix, "/")
}

// NewStoreFactory returns a store factory for cfg.
func NewStoreFactory(ctx context.Context, cfg StoreConfig) (lode.StoreFactory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Backend == BackendFS {
		return lode.NewFSFactory(cfg.Path), nil
	}
	bucket, prefix := ParseS3Path(cfg.Path)
	return NewS3Factory(ctx, S3Config{
		Bucket:       bucket,
		Prefix:       prefix,
		Region:       cfg.Region,
		Endpoint:     cfg.Endpoint,
		UsePathStyle: cfg.UsePathStyle,
	})
}

// NewS3Factory creates an S3 store factory using the AWS SDK default
// credential chain.
func NewS3Factory(ctx context.Context, s3cfg S3Config) (lode.StoreFactory, error) {
	if err := s3cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*config.LoadOptions) error
	if s3cfg.Region != "" {
		opts = append(opts, config.WithRegion(s3cfg.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, wrapStorageError("init", s3cfg.Bucket, fmt.Errorf("load AWS config: %w", err))
	}

	var s3Opts []func(*s3.Options)
	if s3cfg.Endpoint != "" {
		endpoint := s3cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if s3cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	client := s3.NewFromConfig(awsConfig, s3Opts...)

	return func() (lode.Store, error) {
		return lodes3.New(client, lodes3.Config{
			Bucket: s3cfg.Bucket,
			Prefix: s3cfg.Prefix,
		})
	}, nil
}
