package cli

import (
	"fmt"

	"github.com/agenthands/recordlink/internal/source"
	"github.com/spf13/cobra"
)

var (
	consolidateEntity    string
	consolidateJudgments string
	consolidateSink      sinkFlags
	consolidateDryRun    bool
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Merge reviewed judgment sheets into a duplicate mapping",
	Long: `Read a judgment sheet exported as CSV, merge every row flagged Y into
equivalence classes and publish the duplicate -> canonical mapping.

Column names come from [entities.<name>.judgments] in the config.

Examples:
  recordlink consolidate --entity agent --judgments agents.csv
  recordlink consolidate --entity work --judgments works.csv --sink sqlite --out mpce.db`,
	Args: cobra.NoArgs,
	RunE: runConsolidate,
}

func init() {
	consolidateCmd.Flags().StringVarP(&consolidateEntity, "entity", "e", "agent", "entity type")
	consolidateCmd.Flags().StringVarP(&consolidateJudgments, "judgments", "j", "", "judgment sheet CSV")
	consolidateCmd.Flags().StringVar(&consolidateSink.kind, "sink", "file", "mapping sink: file, sqlite or graph")
	consolidateCmd.Flags().StringVarP(&consolidateSink.out, "out", "o", "", "CSV path for file sink, database path for sqlite")
	consolidateCmd.Flags().StringVar(&consolidateSink.table, "table", "", "sqlite table (default from config)")
	consolidateCmd.Flags().BoolVar(&consolidateDryRun, "dry-run", false, "print the summary without publishing")
	_ = consolidateCmd.MarkFlagRequired("judgments")
}

func runConsolidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	ec, err := cfg.Entity(consolidateEntity)
	if err != nil {
		return err
	}
	f, err := openInput(consolidateJudgments)
	if err != nil {
		return err
	}
	defer f.Close()

	cols := ec.Judgments
	sheet, err := source.ReadJudgments(f, source.JudgmentColumns{IDA: cols.IDA, IDB: cols.IDB, Flag: cols.Flag, Preferred: cols.Preferred})
	if err != nil {
		return fmt.Errorf("read %s: %w", consolidateJudgments, err)
	}

	svc, err := newService(ctx, false)
	if err != nil {
		return err
	}
	res, err := svc.Consolidate(ctx, sheet.Judgments)
	if err != nil {
		return err
	}

	printHeader(out, "Consolidation: "+consolidateEntity)
	printMappingSummary(out, res.Mapping, len(res.Classes))
	printDetail(out, "%d confirmed rows, %d unconfirmed skipped", len(sheet.Judgments), sheet.Unconfirmed)
	for _, m := range sheet.Malformed {
		printFailure(out, "line %d: %s", m.Line, m.Err)
	}
	for _, r := range res.Rejected {
		printFailure(out, "judgment %d (%s, %s): %s", r.Index, r.Judgment.A, r.Judgment.B, r.Reason)
	}
	for _, tb := range res.TieBreaks {
		printWarning(out, "%s and %s had no preference; kept %s over %s", tb.Judgment.A, tb.Judgment.B, tb.Kept, tb.Absorbed)
	}

	if consolidateDryRun {
		printDetail(out, "dry run, nothing published")
		return nil
	}
	snk, release, err := openSink(ctx, consolidateSink, consolidateEntity)
	if err != nil {
		return err
	}
	defer release()
	if err := svc.Publish(ctx, consolidateEntity, snk, res.Mapping); err != nil {
		return err
	}
	printDetail(out, "published to %s sink", consolidateSink.kind)
	return nil
}
