package cli

import (
	"fmt"

	"github.com/agenthands/recordlink/internal/core/project"
	"github.com/agenthands/recordlink/internal/source"
	"github.com/spf13/cobra"
)

var (
	matchEntity     string
	matchRecords    string
	matchClusters   string
	matchMaxQueries int
	matchPublish    bool
	matchSink       sinkFlags
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Cluster likely duplicate records with the similarity model",
	Long: `Train (or load) the entity's similarity model, cluster the records and
write them back with cluster and confidence columns.

A saved settings file skips training. Without one, labeled examples are read
from the training file; with --max-queries the configured LLM labels the
most uncertain pairs first.

Examples:
  recordlink match --entity agent --records agents.csv
  recordlink match --entity edition --records editions.csv --max-queries 40 --publish --sink sqlite`,
	Args: cobra.NoArgs,
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringVarP(&matchEntity, "entity", "e", "agent", "entity type")
	matchCmd.Flags().StringVarP(&matchRecords, "records", "r", "", "records CSV")
	matchCmd.Flags().StringVar(&matchClusters, "clusters", "", "output CSV with cluster columns (default <entity>_clustered.csv)")
	matchCmd.Flags().IntVar(&matchMaxQueries, "max-queries", -1, "pairs the LLM may label during training (default from config)")
	matchCmd.Flags().BoolVar(&matchPublish, "publish", false, "also publish the cluster mapping")
	matchCmd.Flags().StringVar(&matchSink.kind, "sink", "file", "mapping sink: file, sqlite or graph")
	matchCmd.Flags().StringVarP(&matchSink.out, "out", "o", "", "CSV path for file sink, database path for sqlite")
	matchCmd.Flags().StringVar(&matchSink.table, "table", "", "sqlite table (default from config)")
	_ = matchCmd.MarkFlagRequired("records")
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	ec, err := cfg.Entity(matchEntity)
	if err != nil {
		return err
	}
	f, err := openInput(matchRecords)
	if err != nil {
		return err
	}
	defer f.Close()
	records, err := source.ReadRecords(f, ec.IDColumn)
	if err != nil {
		return fmt.Errorf("read %s: %w", matchRecords, err)
	}

	if matchMaxQueries >= 0 {
		cfg.Match.MaxQueries = matchMaxQueries
	}
	svc, err := newService(ctx, cfg.Match.MaxQueries > 0)
	if err != nil {
		return err
	}
	res, err := svc.MatchRecords(ctx, matchEntity, records)
	if err != nil {
		return err
	}

	path := matchClusters
	if path == "" {
		path = matchEntity + "_clustered.csv"
	}
	if err := project.ExportCSV(path, project.Columns(res.Records), res.Records); err != nil {
		return err
	}

	printHeader(out, "Matching: "+matchEntity)
	printDetail(out, "%d records, threshold %.4f", len(records), res.Threshold)
	fmt.Fprintf(out, "  %s %d clusters written to %s\n", green("✓"), len(res.Clusters), path)
	printMappingSummary(out, res.Mapping, len(res.Clusters))

	if !matchPublish {
		return nil
	}
	snk, release, err := openSink(ctx, matchSink, matchEntity)
	if err != nil {
		return err
	}
	defer release()
	if err := svc.Publish(ctx, matchEntity, snk, res.Mapping); err != nil {
		return err
	}
	printDetail(out, "published to %s sink", matchSink.kind)
	return nil
}
