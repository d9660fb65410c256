package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s4"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
)

func newPutCommand(a *app) *cobra.Command {
	var (
		partSize     int64
		contentType  string
		storageClass string
		metadata     map[string]string
	)

	cmd := &cobra.Command{
		Use:   "put <bucket> <key> <file>",
		Short: "Upload a file",
		Long: `Upload a file, or standard input when file is "-". Sources whose size
reaches the multipart threshold are uploaded in parts; a failed multipart
upload is aborted before the command exits.`,
		Example: `  # Upload in 16 MiB parts
  s4 put my-bucket backups/db.tar db.tar --part-size 16777216

  # Stream from a pipe
  tar c ./data | s4 put my-bucket backups/data.tar -`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, key := bucketArg(args), args[1]

			var opts []s4types.UploadOption
			if cmd.Flags().Changed("part-size") {
				opts = append(opts, s4.WithUploadPartSize(partSize))
			}
			if contentType != "" {
				opts = append(opts, s4.WithContentType(contentType))
			}
			if storageClass != "" {
				opts = append(opts, s4.WithStorageClass(s4types.StorageClass(storageClass)))
			}
			if len(metadata) > 0 {
				opts = append(opts, s4.WithMetadata(metadata))
			}

			var (
				result *s4types.UploadResult
				err    error
			)
			if args[2] == "-" {
				result, err = a.client.Upload(cmd.Context(), bucket, key, cmd.InOrStdin(), opts...)
			} else {
				var path string
				if path, err = localPath(args[2]); err != nil {
					return err
				}
				result, err = a.client.UploadFile(cmd.Context(), bucket, key, path, opts...)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", result.Key, result.Size, result.ETag)
			a.logger.Info("object uploaded",
				"key", result.Key,
				"bytes", result.Size,
				"parts", result.Parts,
				"duration", result.Duration)
			return nil
		},
	}

	cmd.Flags().Int64Var(&partSize, "part-size", 0, "multipart part size in bytes")
	cmd.Flags().StringVar(&contentType, "content-type", "", "content type (detected when empty)")
	cmd.Flags().StringVar(&storageClass, "storage-class", "", "storage class of the object")
	cmd.Flags().StringToStringVar(&metadata, "metadata", nil, "user metadata as key=value pairs")
	return cmd
}
