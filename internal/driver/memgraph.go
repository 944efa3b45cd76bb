package driver

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type MemgraphDriver struct {
	Driver neo4j.DriverWithContext
	logger *slog.Logger
}

func NewMemgraphDriver(ctx context.Context, uri, username, password string, logger *slog.Logger) (*MemgraphDriver, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connect to memgraph at %s: %w", uri, err)
	}

	logger.Info("connected to memgraph", "uri", uri)
	return &MemgraphDriver{Driver: driver, logger: logger}, nil
}

func (d *MemgraphDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *MemgraphDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

func (d *MemgraphDriver) ExecuteWrite(ctx context.Context, fn func(QueryRunner) error) error {
	session := d.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, fn(txRunner{tx: tx})
	})
	if err != nil {
		return fmt.Errorf("write transaction: %w", err)
	}
	return nil
}

type txRunner struct {
	tx neo4j.ManagedTransaction
}

func (r txRunner) Run(ctx context.Context, query string, params map[string]interface{}) error {
	res, err := r.tx.Run(ctx, query, params)
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}

func (d *MemgraphDriver) BuildIndices(ctx context.Context) error {
	for _, q := range IndexQueries {
		if _, err := d.ExecuteQuery(ctx, q, nil); err != nil {
			// Memgraph errors when the index already exists.
			d.logger.Warn("failed to create index", "query", q, "error", err)
		}
	}
	return nil
}
