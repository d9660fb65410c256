package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
)

func newLsCommand(a *app) *cobra.Command {
	var (
		count bool
		last  bool
		skip  int
	)

	cmd := &cobra.Command{
		Use:   "ls <bucket> [prefix]",
		Short: "List object keys",
		Long: `List the keys of a bucket in service order, one "key<TAB>size" line per
object. Pages are requested only as the listing is consumed.`,
		Example: `  # List every key under photos/
  s4 ls my-bucket photos/

  # Count keys without printing them
  s4 ls my-bucket --count

  # Print the 1001st key
  s4 ls my-bucket --skip 1000 --limit 1`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if skip < 0 {
				return errors.New("--skip must not be negative")
			}
			prefix := ""
			if len(args) == 2 {
				prefix = args[1]
			}

			it, err := a.client.Iterate(bucketArg(args), prefix)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if skip > 0 {
				// AdvanceBy(skip-1) lands on the last skipped record.
				if _, err := it.AdvanceBy(ctx, skip-1); err != nil {
					return err
				}
			}

			switch {
			case count:
				n, err := it.Count(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, n)
				return nil
			case last:
				obj, err := it.Last(ctx)
				if err != nil {
					return err
				}
				if obj != nil {
					printObject(out, obj)
				}
				return nil
			}

			limit, _ := cmd.Flags().GetInt("limit")
			for printed := 0; limit <= 0 || printed < limit; printed++ {
				obj, err := it.Next(ctx)
				if err != nil {
					return err
				}
				if obj == nil {
					break
				}
				printObject(out, obj)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&count, "count", false, "print the number of keys instead of the keys")
	cmd.Flags().BoolVar(&last, "last", false, "print only the final key")
	cmd.Flags().IntVar(&skip, "skip", 0, "skip this many keys first")
	cmd.Flags().Int("limit", 0, "print at most this many keys (0 for all)")
	cmd.MarkFlagsMutuallyExclusive("count", "last")
	cmd.MarkFlagsMutuallyExclusive("count", "limit")
	return cmd
}

func printObject(w io.Writer, obj *s4types.Object) {
	fmt.Fprintf(w, "%s\t%d\n", obj.Key, obj.Size)
}
