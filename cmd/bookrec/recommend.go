package main

import (
	"github.com/goccy/go-json"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/bookrec/internal/domain"
	"github.com/listenupapp/bookrec/internal/metrics"
	"github.com/listenupapp/bookrec/internal/recommend"
)

func newRecommendCmd(a *app) *cobra.Command {
	var (
		req    recommend.Request
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend books for a free-text query",
		Long: `Retrieves the books whose tagged descriptions are most similar to the query, then applies
the optional category and emotion filters. Ranking stays in retrieval order.`,
		Example: `  bookrec recommend --query "a story about forgiveness" --category Fiction --emotion sadness`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("top-k") {
				req.TopK = a.config().Retrieval.TopK
			}

			rec, err := do.Invoke[*recommend.Recommender](a.injector)
			if err != nil {
				return err
			}
			res, err := rec.Recommend(cmd.Context(), req)
			m := do.MustInvoke[*metrics.Manager](a.injector)
			if err != nil {
				m.ObserveRecommendation(0, err)
				return err
			}
			m.ObserveRecommendation(len(res.Books), nil)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			return recommend.WriteText(out, res)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&req.Query, "query", "q", "", "free-text description of the book you want")
	flags.StringVar(&req.Category, "category", domain.FilterAll, "simple category filter, or All")
	flags.StringVar(&req.Emotion, "emotion", domain.FilterAll, "emotion a book must express, or All")
	flags.IntVarP(&req.TopK, "top-k", "k", recommend.DefaultTopK, "number of documents to retrieve before filtering")
	flags.BoolVar(&asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}
