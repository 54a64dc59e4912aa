// internal/graphdb/graphdb.go
// Package graphdb wraps the Neo4j driver behind a small executor that
// degrades gracefully when no connection is configured: schema reads fall
// back to a fixed description and query execution returns empty rows.
package graphdb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/graphchat/text2cypher/internal/config"
)

// DefaultSchema is served when no graph connection is available, so
// downstream generation stages always receive non-empty schema text.
const DefaultSchema = "Labels: Person(name, born), Movie(title, released), Genre(name); " +
	"Relationships: (Person)-[:ACTED_IN]->(Movie), (Person)-[:DIRECTED]->(Movie), (Movie)-[:IN_GENRE]->(Genre)"

// Connect creates a driver from configuration. An unconfigured graph store is
// not an error: callers receive a nil driver and run degraded.
func Connect(cfg config.Neo4jConfig) (neo4j.DriverWithContext, error) {
	if !cfg.Configured() {
		return nil, nil
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("could not create Neo4j driver: %w", err)
	}
	return driver, nil
}

// Executor runs parameterized Cypher against a single database. A nil driver
// is valid and yields empty results.
type Executor struct {
	driver neo4j.DriverWithContext
	dbName string
	logger *zap.Logger
}

// NewExecutor wraps a driver (which may be nil) for the named database.
func NewExecutor(driver neo4j.DriverWithContext, dbName string, logger *zap.Logger) *Executor {
	if dbName == "" {
		dbName = "neo4j"
	}
	return &Executor{
		driver: driver,
		dbName: dbName,
		logger: logger.Named("graphdb"),
	}
}

// Connected reports whether a live driver is attached.
func (e *Executor) Connected() bool { return e.driver != nil }

// Run executes a parameterized query exactly once and translates each result
// record to a plain map. Without a driver it returns empty rows, not an
// error, so read-only and demo modes keep working.
func (e *Executor) Run(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	if e.driver == nil {
		return []map[string]any{}, nil
	}
	if params == nil {
		params = map[string]any{}
	}

	result, err := neo4j.ExecuteQuery(
		ctx,
		e.driver,
		cypher,
		params,
		neo4j.EagerResultTransformer, // Buffers all results in memory before returning.
		neo4j.ExecuteQueryWithDatabase(e.dbName),
	)
	if err != nil {
		return nil, fmt.Errorf("error executing neo4j query: %w", err)
	}

	rows := make([]map[string]any, 0, len(result.Records))
	for _, record := range result.Records {
		rows = append(rows, record.AsMap())
	}
	return rows, nil
}

// SchemaSnapshot builds a short, human-readable schema summary: labels,
// relationship types and property keys, each sorted for determinism. It
// avoids deep statistical introspection for speed. Driver-level failures
// propagate; fallback policy is the caller's decision.
func (e *Executor) SchemaSnapshot(ctx context.Context) (string, error) {
	if e.driver == nil {
		return DefaultSchema, nil
	}

	labels, err := e.values(ctx, "CALL db.labels()")
	if err != nil {
		return "", err
	}
	relTypes, err := e.values(ctx, "CALL db.relationshipTypes()")
	if err != nil {
		return "", err
	}
	props, err := e.values(ctx, "CALL db.propertyKeys()")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Labels: %s; Relationships: %s; Properties: %s",
		strings.Join(labels, ", "), strings.Join(relTypes, ", "), strings.Join(props, ", ")), nil
}

// values runs a single-column procedure call and returns the sorted string values.
func (e *Executor) values(ctx context.Context, cypher string) ([]string, error) {
	rows, err := e.Run(ctx, cypher, nil)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		for _, v := range row {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
