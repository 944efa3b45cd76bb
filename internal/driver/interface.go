package driver

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// QueryRunner runs statements inside an open write transaction.
type QueryRunner interface {
	Run(ctx context.Context, query string, params map[string]interface{}) error
}

type GraphDriver interface {
	ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error)
	// ExecuteWrite runs fn in a single write transaction. Nothing fn runs is
	// visible unless it returns nil.
	ExecuteWrite(ctx context.Context, fn func(QueryRunner) error) error
	BuildIndices(ctx context.Context) error
	Close(ctx context.Context) error
}
