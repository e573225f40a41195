package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"user-admin/internal/app"
)

func newImportCmd(root *rootOptions) *cobra.Command {
	var showReasons bool
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import users from a CSV file with name and email columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), root, func(a *app.App) error {
				sum := a.Users.Import(cmd.Context(), string(b))
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "status=%s imported=%d skipped=%d errors=%d\n", sum.Status, sum.Imported, sum.Skipped, sum.Errors)
				if showReasons {
					for _, r := range sum.Reasons {
						fmt.Fprintln(out, "  "+r)
					}
					if sum.DroppedReasons > 0 {
						fmt.Fprintf(out, "  ... and %d more\n", sum.DroppedReasons)
					}
				}
				if !sum.Status.Processed() {
					return fmt.Errorf("import rejected: %s", sum.Status)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&showReasons, "reasons", false, "print the first rejected rows with their reasons")
	return cmd
}
