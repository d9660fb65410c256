package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s4"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
)

// ClientFactory builds the client a command runs against.
type ClientFactory func(cfg Config, logger *slog.Logger) (*s4.Client, error)

// NewClient is the ClientFactory used by the s4 binary.
func NewClient(cfg Config, logger *slog.Logger) (*s4.Client, error) {
	opts := []s4types.Option{
		s4.WithForcePathStyle(cfg.PathStyle),
		s4.WithMaxRetries(cfg.MaxRetries),
		s4.WithLogger(logger),
	}
	if cfg.Region != "" {
		opts = append(opts, s4.WithRegion(cfg.Region))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, s4.WithEndpoint(cfg.Endpoint))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, s4.WithCredentials(cfg.AccessKeyID, cfg.SecretAccessKey))
	}
	if cfg.DefaultBucket != "" {
		opts = append(opts, s4.WithDefaultBucket(cfg.DefaultBucket))
	}
	if cfg.PartSize > 0 {
		opts = append(opts, s4.WithPartSize(cfg.PartSize))
	}
	if cfg.MultipartThreshold > 0 {
		opts = append(opts, s4.WithMultipartThreshold(cfg.MultipartThreshold))
	}
	return s4.New(opts...)
}

// app carries the state shared between the root command and its children.
type app struct {
	newClient  ClientFactory
	configFile string
	client     *s4.Client
	logger     *slog.Logger
}

// NewRootCommand creates the s4 command tree. A nil factory selects NewClient.
func NewRootCommand(newClient ClientFactory) *cobra.Command {
	if newClient == nil {
		newClient = NewClient
	}
	a := &app{newClient: newClient}

	cmd := &cobra.Command{
		Use:   "s4",
		Short: "Stream objects to and from S3",
		Long: `s4 lists, retrieves and uploads S3 objects without buffering whole
listings or objects in memory.

Settings are read from flags, S4_* environment variables and an optional
YAML config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.client == nil {
				return nil
			}
			return a.client.Close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "path to a YAML config file")
	flags.String("region", "", "AWS region")
	flags.String("endpoint", "", "custom S3 endpoint URL")
	flags.Bool("path-style", false, "use path-style addressing")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.String("bucket", "", "bucket used when a command omits one")

	cmd.AddCommand(
		newLsCommand(a),
		newGetCommand(a),
		newCatCommand(a),
		newPutCommand(a),
		newUploadsCommand(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := LoadConfig(cmd.Flags(), a.configFile)
	if err != nil {
		return err
	}

	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	a.logger.Debug("configuration loaded",
		"region", cfg.Region,
		"endpoint", cfg.Endpoint,
		"pathStyle", cfg.PathStyle)

	client, err := a.newClient(cfg, a.logger)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	a.client = client
	return nil
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand(nil)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// bucketArg returns the bucket argument, which "-" leaves to the client's
// default bucket.
func bucketArg(args []string) string {
	if len(args) == 0 || args[0] == "-" {
		return ""
	}
	return args[0]
}

// localPath resolves path against the working directory, since the client
// filesystem is rooted at "/".
func localPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return abs, nil
}
