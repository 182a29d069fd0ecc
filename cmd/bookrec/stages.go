package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/bookrec/internal/category"
	"github.com/listenupapp/bookrec/internal/pipeline"
)

var stageDescriptions = map[pipeline.Stage]string{
	pipeline.StageClean:      "Drop incomplete and short rows and derive tagged descriptions",
	pipeline.StageCategorize: "Map raw categories and backfill the rest with zero-shot classification",
	pipeline.StageEmotions:   "Score every description for seven emotions",
	pipeline.StageIndex:      "Load the catalog, the lexical index and the vector store",
}

// newStageCmds returns one command per pipeline stage.
func newStageCmds(a *app) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(pipeline.Stages()))
	for _, stage := range pipeline.Stages() {
		cmds = append(cmds, &cobra.Command{
			Use:   string(stage),
			Short: stageDescriptions[stage],
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.runStages(cmd, stage)
			},
		})
	}
	return cmds
}

func newPipelineCmd(a *app) *cobra.Command {
	var names []string

	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run the stages in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stages, err := parseStages(names)
			if err != nil {
				return err
			}
			return a.runStages(cmd, stages...)
		},
	}

	cmd.Flags().StringSliceVar(&names, "stages", nil, "comma separated stages to run (default all)")
	return cmd
}

// parseStages returns the named stages in execution order, or every stage when none are named.
func parseStages(names []string) ([]pipeline.Stage, error) {
	if len(names) == 0 {
		return pipeline.Stages(), nil
	}
	want := make(map[pipeline.Stage]bool, len(names))
	for _, name := range names {
		stage, err := pipeline.ParseStage(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		want[stage] = true
	}
	stages := make([]pipeline.Stage, 0, len(want))
	for _, stage := range pipeline.Stages() {
		if want[stage] {
			stages = append(stages, stage)
		}
	}
	return stages, nil
}

func (a *app) runStages(cmd *cobra.Command, stages ...pipeline.Stage) error {
	p, err := do.Invoke[*pipeline.Pipeline](a.injector)
	if err != nil {
		return err
	}
	report, err := p.RunStages(cmd.Context(), stages...)
	if report != nil {
		if werr := writeReport(cmd.OutOrStdout(), report); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

func writeReport(w io.Writer, report *pipeline.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "run %s\n", report.RunID)
	fmt.Fprintln(tw, "STAGE\tROWS\tDURATION\tOUTPUT")
	for _, s := range report.Stages {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", s.Stage, s.Rows, s.Duration.Round(time.Millisecond), s.Output)
	}
	return tw.Flush()
}

func newEvaluateCmd(a *app) *cobra.Command {
	var (
		sample int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Measure zero-shot accuracy on books whose category is already known",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("sample") {
				sample = a.config().Pipeline.SamplePerLabel
			}

			p, err := do.Invoke[*pipeline.Pipeline](a.injector)
			if err != nil {
				return err
			}
			eval, err := p.Evaluate(cmd.Context(), sample)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(eval)
			}
			_, err = fmt.Fprintf(out, "evaluated %d books, %d correct, accuracy %.4f\n",
				len(eval.Predictions), eval.Correct, eval.Accuracy)
			return err
		},
	}

	cmd.Flags().IntVar(&sample, "sample", category.DefaultSamplePerLabel, "books evaluated per label")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print every prediction as JSON")
	return cmd
}
