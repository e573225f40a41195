package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"user-admin/internal/app"
	"user-admin/internal/userquery"
)

func newListCmd(root *rootOptions) *cobra.Command {
	var p userquery.Params
	var page, limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users with the same search, sort and paging rules as the panel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p.Page, p.Limit = strconv.Itoa(page), strconv.Itoa(limit)
			return withApp(cmd.Context(), root, func(a *app.App) error {
				res, err := a.Users.List(cmd.Context(), p)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tCREATED")
				for _, u := range res.Items {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.CreatedAt.Format("2006-01-02 15:04"))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "page %d/%d, %d users\n", res.Page, res.TotalPages, res.Total)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.IntVar(&page, "page", userquery.DefaultPage, "page number")
	f.IntVar(&limit, "limit", userquery.DefaultLimit, "rows per page (max 100)")
	f.StringVar(&p.Search, "search", "", "case-insensitive substring")
	f.StringVar(&p.Filter, "filter", "", "search only name or email")
	f.StringVar(&p.Sort, "sort", "createdAt", "id, name, email or createdAt")
	f.StringVar(&p.Direction, "direction", "desc", "asc or desc")
	return cmd
}
