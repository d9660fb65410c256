package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newUploadsCommand(a *app) *cobra.Command {
	var abort bool

	cmd := &cobra.Command{
		Use:   "uploads <bucket> [prefix]",
		Short: "List or abort incomplete multipart uploads",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket := bucketArg(args)
			prefix := ""
			if len(args) == 2 {
				prefix = args[1]
			}
			out := cmd.OutOrStdout()

			if abort {
				n, err := a.client.AbortIncompleteUploads(cmd.Context(), bucket, prefix)
				fmt.Fprintf(out, "aborted %d uploads\n", n)
				return err
			}

			uploads, err := a.client.ListMultipartUploads(cmd.Context(), bucket, prefix)
			if err != nil {
				return err
			}
			for _, u := range uploads {
				fmt.Fprintf(out, "%s\t%s\t%s\n", u.Key, u.UploadID, u.Initiated.UTC().Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&abort, "abort", false, "abort every listed upload")
	return cmd
}
