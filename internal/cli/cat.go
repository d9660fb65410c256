package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	s4errors "github.com/input-output-hk/catalyst-forge-libs/aws/s4/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
)

func newCatCommand(a *app) *cobra.Command {
	var (
		skip      int
		keepGoing bool
	)

	cmd := &cobra.Command{
		Use:   "cat <bucket> [prefix]",
		Short: "Concatenate the content of listed objects",
		Long: `Write the content of every object under prefix to standard output, in
listing order. Each object is retrieved only when it is reached; skipped
objects are never retrieved.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if skip < 0 {
				return errors.New("--skip must not be negative")
			}
			prefix := ""
			if len(args) == 2 {
				prefix = args[1]
			}

			it, err := a.client.IterateWithRetrieval(bucketArg(args), prefix)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			next := it.Next
			if skip > 0 {
				first := true
				next = func(ctx context.Context) (*s4types.ObjectContent, error) {
					if first {
						first = false
						return it.AdvanceBy(ctx, skip)
					}
					return it.Next(ctx)
				}
			}

			for {
				content, err := next(ctx)
				if err != nil {
					if keepGoing && !errors.Is(err, s4errors.ErrListingFailed) {
						a.logger.Warn("skipping object", "error", err)
						continue
					}
					return err
				}
				if content == nil {
					return nil
				}
				if err := writeContent(out, content); err != nil {
					return err
				}
			}
		},
	}

	cmd.Flags().IntVar(&skip, "skip", 0, "skip this many objects without retrieving them")
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "continue past objects that cannot be retrieved")
	return cmd
}

func writeContent(w io.Writer, content *s4types.ObjectContent) error {
	defer content.Body.Close()
	if _, err := io.Copy(w, content.Body); err != nil {
		return fmt.Errorf("write %s: %w", content.Object.Key, err)
	}
	return nil
}
