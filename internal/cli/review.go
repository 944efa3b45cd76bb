package cli

import (
	"bufio"
	"fmt"

	"github.com/agenthands/recordlink/internal/core/common"
	"github.com/agenthands/recordlink/internal/core/model"
	"github.com/agenthands/recordlink/internal/source"
	"github.com/spf13/cobra"
)

var (
	reviewEntity  string
	reviewRecords string
	reviewPairs   string
	reviewOut     string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Ask the LLM to review candidate pairs",
	Long: `Send each candidate pair to the configured LLM and write the confident
duplicates as a judgment sheet that consolidate can read.

The pairs CSV uses the entity's judgment id columns.

Examples:
  recordlink review --entity agent --records agents.csv --pairs candidates.csv
  recordlink review --entity work --records works.csv --pairs candidates.csv --out reviewed.csv`,
	Args: cobra.NoArgs,
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().StringVarP(&reviewEntity, "entity", "e", "agent", "entity type")
	reviewCmd.Flags().StringVarP(&reviewRecords, "records", "r", "", "records CSV")
	reviewCmd.Flags().StringVarP(&reviewPairs, "pairs", "p", "", "candidate pairs CSV")
	reviewCmd.Flags().StringVarP(&reviewOut, "out", "o", "", "judgment sheet to write (default <entity>_reviewed.csv)")
	_ = reviewCmd.MarkFlagRequired("records")
	_ = reviewCmd.MarkFlagRequired("pairs")
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	ec, err := cfg.Entity(reviewEntity)
	if err != nil {
		return err
	}
	rf, err := openInput(reviewRecords)
	if err != nil {
		return err
	}
	defer rf.Close()
	records, err := source.ReadRecords(rf, ec.IDColumn)
	if err != nil {
		return fmt.Errorf("read %s: %w", reviewRecords, err)
	}
	byID := make(map[string]model.Record, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	pf, err := openInput(reviewPairs)
	if err != nil {
		return err
	}
	defer pf.Close()
	pairs, err := source.ReadPairs(pf, ec.Judgments.IDA, ec.Judgments.IDB, byID)
	if err != nil {
		return fmt.Errorf("read %s: %w", reviewPairs, err)
	}

	svc, err := newService(ctx, true)
	if err != nil {
		return err
	}
	report, err := svc.Review(ctx, pairs)
	if err != nil {
		return err
	}

	path := reviewOut
	if path == "" {
		path = reviewEntity + "_reviewed.csv"
	}
	cols := source.JudgmentColumns{IDA: ec.Judgments.IDA, IDB: ec.Judgments.IDB, Flag: ec.Judgments.Flag, Preferred: ec.Judgments.Preferred}
	err = common.WriteFileAtomic(path, func(w *bufio.Writer) error {
		return source.WriteJudgments(w, cols, report.Judgments)
	})
	if err != nil {
		return err
	}

	printHeader(out, "Review: "+reviewEntity)
	fmt.Fprintf(out, "  %s %d duplicates written to %s\n", green("✓"), len(report.Judgments), path)
	printDetail(out, "%d distinct, %d unsure", report.Distinct, report.Unsure)
	for _, f := range report.Failed {
		printFailure(out, "pair %d (%s, %s): %s", f.Index, f.A, f.B, f.Error)
	}
	return nil
}
