package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/bookrec/internal/di/providers"
	"github.com/listenupapp/bookrec/internal/search"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		params = search.DefaultSearchParams()
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Full-text search over the indexed books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			index, err := do.Invoke[*providers.SearchIndexHandle](a.injector)
			if err != nil {
				return err
			}
			params.Highlight = false

			res, err := index.Search(cmd.Context(), params)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "%d matches in %dms\n", res.Total, res.TookMs)
			fmt.Fprintln(tw, "ISBN13\tSCORE\tCATEGORY\tTITLE")
			for _, h := range res.Hits {
				fmt.Fprintf(tw, "%d\t%.3f\t%s\t%s\n", h.ISBN13, h.Score, h.Category, h.Title)
			}
			for _, f := range res.Facets {
				fmt.Fprintf(tw, "  %s\t%d\n", f.Value, f.Count)
			}
			return tw.Flush()
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&params.Query, "query", "q", "", "search query")
	flags.StringVar(&params.Category, "category", "", "exact simple category")
	flags.IntVar(&params.Limit, "limit", params.Limit, "maximum hits")
	flags.BoolVar(&params.IncludeFacets, "facets", false, "print category counts")
	flags.BoolVar(&asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}
