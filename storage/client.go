// Package storage provides the S3-backed object store client that the
// synchronization workflows run against.
//
// The client keeps product reference tracking on the objects themselves:
// every artifact records the set of product releases that shipped it in
// its object metadata, uploads union a new product into that set, and
// deletions remove the reference and only delete the object once no
// product refers to it any more. Metadata and index documents are not
// product-owned and bypass the tracking entirely.
package storage

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/charmbracelet/log"

	"github.com/ligangty/charon/internal/worker"
)

// Client represents an object store client with configurable options.
// It provides thread-safe batch operations with bounded concurrency.
type Client struct {
	// api is the underlying AWS SDK S3 client
	api S3API

	// concurrency bounds parallel per-object operations in batch calls
	concurrency int

	// logger receives per-object progress and failure logs
	logger *log.Logger
}

// New creates a new client with the provided options. It loads AWS
// credentials using the default credential chain and applies the
// specified configuration options.
//
// Example:
//
//	client, err := storage.New(ctx,
//	    storage.WithRegion("us-west-2"),
//	    storage.WithConcurrency(10),
//	)
func New(ctx context.Context, opts ...Option) (*Client, error) {
	clientCfg := &clientConfig{
		maxRetries:  3,
		concurrency: worker.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(clientCfg)
	}

	var cfg aws.Config
	var err error
	if clientCfg.awsConfig != nil {
		cfg = *clientCfg.awsConfig
	} else {
		cfg, err = config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, NewError("client initialization", err)
		}
	}

	if clientCfg.region != "" {
		cfg.Region = clientCfg.region
	} else if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if clientCfg.maxRetries > 0 {
		cfg.RetryMaxAttempts = clientCfg.maxRetries
	}

	var s3Opts []func(*s3.Options)
	if clientCfg.endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(clientCfg.endpoint)
		})
	}
	if clientCfg.forcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &Client{
		api:         s3.NewFromConfig(cfg, s3Opts...),
		concurrency: clientCfg.concurrency,
		logger:      ensureLogger(clientCfg.logger),
	}, nil
}

// NewWithAPI creates a client over a pre-built API implementation.
// Intended for tests and S3-compatible backends.
func NewWithAPI(api S3API, opts ...Option) *Client {
	clientCfg := &clientConfig{
		concurrency: worker.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(clientCfg)
	}
	return &Client{
		api:         api,
		concurrency: clientCfg.concurrency,
		logger:      ensureLogger(clientCfg.logger),
	}
}

func ensureLogger(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return logger
}
