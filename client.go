package s4

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"

	s4errors "github.com/input-output-hk/catalyst-forge-libs/aws/s4/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/internal/operations/download"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/internal/operations/upload"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
)

// defaultRegion is used when neither the options nor the environment name one.
const defaultRegion = "us-east-1"

// Client runs s4 operations against one S3 endpoint. It is safe for
// concurrent use; the iterators and uploads it starts are not.
type Client struct {
	// s3Client is the collaborator every operation goes through
	s3Client s3api.S3API

	// config holds the AWS configuration; zero for clients built with NewWithClient
	config aws.Config

	cfg        s4types.ClientConfig
	fs         fs.Filesystem
	logger     *slog.Logger
	metrics    *metrics.Recorder
	uploader   *upload.Uploader
	downloader *download.Downloader
}

// New creates a client with the provided options. AWS configuration is
// loaded with the default credential chain unless WithAWSConfig is given.
//
// Example:
//
//	client, err := s4.New(
//	    s4.WithRegion("us-west-2"),
//	    s4.WithEndpoint("http://localhost:4566"),
//	    s4.WithForcePathStyle(true),
//	)
func New(opts ...s4types.Option) (*Client, error) {
	clientCfg := defaultConfig()
	for _, opt := range opts {
		opt(&clientCfg)
	}

	var cfg aws.Config
	if clientCfg.CustomAWSConfig != nil {
		cfg = *clientCfg.CustomAWSConfig
		if clientCfg.AccessKeyID != "" {
			cfg.Credentials = aws.NewCredentialsCache(staticCredentials(clientCfg))
		}
	} else {
		var loadOpts []func(*config.LoadOptions) error
		if clientCfg.Region != "" {
			loadOpts = append(loadOpts, config.WithRegion(clientCfg.Region))
		}
		if clientCfg.AccessKeyID != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(staticCredentials(clientCfg)))
		}

		var err error
		cfg, err = config.LoadDefaultConfig(context.Background(), loadOpts...)
		if err != nil {
			return nil, s4errors.NewError("client initialization", s4errors.CodeUnknown, err)
		}
	}

	if clientCfg.Region != "" {
		cfg.Region = clientCfg.Region
	} else if cfg.Region == "" {
		cfg.Region = defaultRegion
	}
	if clientCfg.MaxRetries > 0 {
		cfg.RetryMaxAttempts = clientCfg.MaxRetries
	}

	s3Client := s3.NewFromConfig(cfg, s3Options(clientCfg)...)

	c, err := newClient(s3Client, clientCfg)
	if err != nil {
		return nil, err
	}
	c.config = cfg
	return c, nil
}

// NewWithClient creates a client around an existing S3API implementation,
// such as a preconfigured *s3.Client or a test double. Options that only
// affect AWS configuration are ignored.
func NewWithClient(s3Client s3api.S3API, opts ...s4types.Option) (*Client, error) {
	clientCfg := defaultConfig()
	for _, opt := range opts {
		opt(&clientCfg)
	}
	return newClient(s3Client, clientCfg)
}

func newClient(s3Client s3api.S3API, clientCfg s4types.ClientConfig) (*Client, error) {
	filesystem := clientCfg.Filesystem
	if filesystem == nil {
		filesystem = billy.NewOSFS("/")
	}
	logger := clientCfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	rec, err := metrics.New(clientCfg.Registerer)
	if err != nil {
		return nil, s4errors.NewError("client initialization", s4errors.CodeUnknown, err)
	}

	return &Client{
		s3Client:   s3Client,
		cfg:        clientCfg,
		fs:         filesystem,
		logger:     logger,
		metrics:    rec,
		uploader:   upload.New(s3Client, clientCfg.MultipartThreshold, logger, rec),
		downloader: download.New(s3Client, filesystem, logger, rec),
	}, nil
}

func defaultConfig() s4types.ClientConfig {
	return s4types.ClientConfig{
		MaxRetries:         3,
		MultipartThreshold: s4types.DefaultMultipartThreshold,
	}
}

func staticCredentials(cfg s4types.ClientConfig) credentials.StaticCredentialsProvider {
	return credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)
}

func s3Options(clientCfg s4types.ClientConfig) []func(*s3.Options) {
	var s3Opts []func(*s3.Options)

	if clientCfg.Endpoint != "" {
		endpoint := clientCfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	if clientCfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	// A custom HTTP client wins over a plain timeout.
	switch {
	case clientCfg.CustomHTTPClient != nil:
		httpClient := clientCfg.CustomHTTPClient
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	case clientCfg.Timeout > 0:
		httpClient := &http.Client{Timeout: clientCfg.Timeout}
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	}

	return s3Opts
}

// Region returns the region the client was configured with. It is empty
// for clients built with NewWithClient.
func (c *Client) Region() string {
	return c.config.Region
}

// DefaultBucket returns the bucket used when an operation is given none.
func (c *Client) DefaultBucket() string {
	return c.cfg.DefaultBucket
}

// Close releases resources held by the client. It is currently a no-op.
func (c *Client) Close() error {
	return nil
}
