package cli

import (
	"github.com/spf13/cobra"
)

func newGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <bucket> <key> [file]",
		Short: "Download an object",
		Long: `Download an object to a new file, or to standard output when no file is
given. An existing file is never overwritten.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, key := bucketArg(args), args[1]

			if len(args) == 2 {
				_, err := a.client.Download(cmd.Context(), bucket, key, cmd.OutOrStdout())
				return err
			}

			path, err := localPath(args[2])
			if err != nil {
				return err
			}
			result, err := a.client.DownloadFile(cmd.Context(), bucket, key, path)
			if err != nil {
				return err
			}
			a.logger.Info("object downloaded",
				"key", result.Key,
				"path", path,
				"bytes", result.BytesWritten,
				"duration", result.Duration)
			return nil
		},
	}
}
