package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/agenthands/recordlink/internal/core/model"
	"github.com/agenthands/recordlink/internal/driver"
	"github.com/agenthands/recordlink/internal/sink"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

var (
	cyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
)

// sinkFlags are shared by commands that publish a mapping.
type sinkFlags struct {
	kind  string
	out   string
	table string
}

// openSink returns the sink named by f.kind and a func releasing its handle.
func openSink(ctx context.Context, f sinkFlags, entity string) (sink.MappingSink, func(), error) {
	noop := func() {}
	ec, err := cfg.Entity(entity)
	if err != nil {
		return nil, noop, err
	}

	switch f.kind {
	case "", "file":
		path := f.out
		if path == "" {
			path = entity + "_mapping.csv"
		}
		return sink.FileSink{Path: path}, noop, nil

	case "sqlite":
		path := f.out
		if path == "" {
			path = cfg.SQLite.Path
		}
		db, err := sink.OpenSQLite(path)
		if err != nil {
			return nil, noop, err
		}
		table := f.table
		if table == "" {
			table = ec.Table
		}
		return sink.SQLiteSink{DB: db, Table: table}, func() { _ = db.Close() }, nil

	case "graph":
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password, logger)
		if err != nil {
			return nil, noop, err
		}
		if err := d.BuildIndices(ctx); err != nil {
			_ = d.Close(ctx)
			return nil, noop, err
		}
		closeFn := func() { _ = d.Close(context.Background()) }
		return sink.GraphSink{Driver: d, Entity: entity, RunID: uuid.New().String()}, closeFn, nil

	default:
		return nil, noop, fmt.Errorf("unknown sink %q (want file, sqlite or graph)", f.kind)
	}
}

func printHeader(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n\n", cyan("=== "+title+" ==="))
}

func printMappingSummary(w io.Writer, mapping []model.MappingEntry, classes int) {
	fmt.Fprintf(w, "  %s %d duplicates in %d classes\n", green("✓"), len(mapping), classes)
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s %s\n", yellow("!"), fmt.Sprintf(format, args...))
}

func printFailure(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s %s\n", red("✗"), fmt.Sprintf(format, args...))
}

func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "    %s\n", gray(fmt.Sprintf(format, args...)))
}

func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
