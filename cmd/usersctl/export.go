package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"user-admin/internal/app"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	var (
		outPath string
		archive bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all users as CSV, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), root, func(a *app.App) error {
				if archive {
					arch, err := a.Users.Archive(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "archived to s3://%s/%s\n", arch.Bucket, arch.Key)
					return nil
				}
				var w io.Writer = cmd.OutOrStdout()
				if outPath != "" && outPath != "-" {
					f, err := os.Create(outPath)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				return a.Users.ExportCSV(cmd.Context(), w)
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().BoolVar(&archive, "archive", false, "upload to the configured export bucket instead")
	return cmd
}
