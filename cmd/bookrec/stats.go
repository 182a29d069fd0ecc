package main

import (
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/bookrec/internal/config"
	"github.com/listenupapp/bookrec/internal/di/providers"
	"github.com/listenupapp/bookrec/internal/pipeline"
)

// catalogStats summarizes what the last index run left behind.
type catalogStats struct {
	RunID      string         `json:"run_id,omitempty"`
	Books      int            `json:"books"`
	Categories map[string]int `json:"categories"`
	Documents  uint64         `json:"documents"`
	Vectors    *int           `json:"vectors,omitempty"`
}

func newStatsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the catalog, the search index and the vector store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			catalog, err := do.Invoke[*providers.CatalogHandle](a.injector)
			if err != nil {
				return err
			}

			var stats catalogStats
			if stats.RunID, err = catalog.Meta(ctx, pipeline.CatalogRunKey); err != nil {
				return err
			}
			if stats.Books, err = catalog.Count(ctx); err != nil {
				return err
			}
			if stats.Categories, err = catalog.CategoryCounts(ctx); err != nil {
				return err
			}

			index, err := do.Invoke[*providers.SearchIndexHandle](a.injector)
			if err != nil {
				return err
			}
			if stats.Documents, err = index.DocumentCount(); err != nil {
				return err
			}

			if a.config().Retrieval.Mode == config.RetrievalVector {
				vectors, err := do.Invoke[*providers.VectorStoreHandle](a.injector)
				if err != nil {
					return err
				}
				n, err := vectors.Count(ctx)
				if err != nil {
					return err
				}
				stats.Vectors = &n
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(stats)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			if stats.RunID != "" {
				fmt.Fprintf(tw, "run\t%s\n", stats.RunID)
			}
			fmt.Fprintf(tw, "books\t%d\n", stats.Books)
			fmt.Fprintf(tw, "documents\t%d\n", stats.Documents)
			if stats.Vectors != nil {
				fmt.Fprintf(tw, "vectors\t%d\n", *stats.Vectors)
			}
			for _, category := range slices.Sorted(maps.Keys(stats.Categories)) {
				fmt.Fprintf(tw, "  %s\t%d\n", category, stats.Categories[category])
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}
