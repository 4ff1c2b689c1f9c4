package storage

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/charmbracelet/log"
)

// clientConfig holds the settings assembled by the functional options.
type clientConfig struct {
	region         string
	endpoint       string
	maxRetries     int
	concurrency    int
	forcePathStyle bool
	awsConfig      *aws.Config
	logger         *log.Logger
}

// Option configures the client.
type Option func(*clientConfig)

// WithRegion sets the AWS region for storage operations.
// If not specified, uses the default region from the credential chain.
func WithRegion(region string) Option {
	return func(c *clientConfig) {
		c.region = region
	}
}

// WithEndpoint sets a custom endpoint URL.
// This is useful for S3-compatible services or local testing.
func WithEndpoint(endpoint string) Option {
	return func(c *clientConfig) {
		c.endpoint = endpoint
	}
}

// WithMaxRetries sets the maximum number of retry attempts for failed
// operations. Default is 3 retries.
func WithMaxRetries(maxRetries int) Option {
	return func(c *clientConfig) {
		c.maxRetries = maxRetries
	}
}

// WithConcurrency bounds the number of parallel per-object operations
// in batch calls. Default is 5.
func WithConcurrency(concurrency int) Option {
	return func(c *clientConfig) {
		if concurrency > 0 {
			c.concurrency = concurrency
		}
	}
}

// WithForcePathStyle forces path-style URLs instead of virtual-hosted
// style. Required for S3-compatible services without virtual hosting.
func WithForcePathStyle(forcePathStyle bool) Option {
	return func(c *clientConfig) {
		c.forcePathStyle = forcePathStyle
	}
}

// WithAWSConfig provides a custom AWS configuration, overriding the
// default credential chain loading.
func WithAWSConfig(config *aws.Config) Option {
	return func(c *clientConfig) {
		c.awsConfig = config
	}
}

// WithLogger wires a logger for per-object progress and failure logs.
func WithLogger(logger *log.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}
