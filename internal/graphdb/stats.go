// internal/graphdb/stats.go
package graphdb

import (
	"context"
	"fmt"

	"github.com/graphchat/text2cypher/api/schemas"
)

const summaryQuery = `
MATCH (n)
WITH count(n) AS node_count
MATCH ()-[r]->()
WITH node_count, count(r) AS relationship_count, collect(DISTINCT type(r)) AS relationship_types
RETURN node_count, relationship_count, relationship_types
`

const labelStatsQuery = `
MATCH (n)
UNWIND labels(n) AS label
RETURN label, count(*) AS count
ORDER BY count DESC
LIMIT 25
`

const sampleGraphQuery = `
MATCH (n)-[r]->(m)
RETURN id(n) AS source_id, labels(n) AS source_labels,
       id(m) AS target_id, labels(m) AS target_labels,
       type(r) AS type
LIMIT 50
`

// Summary gathers quick graph statistics: node/relationship counts, the top
// labels by frequency, and a small sample subgraph.
func (e *Executor) Summary(ctx context.Context) (*schemas.GraphSummaryResponse, error) {
	summaryRows, err := e.Run(ctx, summaryQuery, nil)
	if err != nil {
		return nil, err
	}
	if len(summaryRows) == 0 {
		return nil, fmt.Errorf("cannot retrieve graph summary")
	}
	summary := summaryRows[0]

	labelRows, err := e.Run(ctx, labelStatsQuery, nil)
	if err != nil {
		return nil, err
	}
	labels := make([]schemas.LabelStat, 0, len(labelRows))
	for _, row := range labelRows {
		labels = append(labels, schemas.LabelStat{
			Label: asString(row["label"]),
			Count: asInt64(row["count"]),
		})
	}

	sampleRows, err := e.Run(ctx, sampleGraphQuery, nil)
	if err != nil {
		return nil, err
	}

	return &schemas.GraphSummaryResponse{
		NodeCount:         asInt64(summary["node_count"]),
		RelationshipCount: asInt64(summary["relationship_count"]),
		RelationshipTypes: asStrings(summary["relationship_types"]),
		Labels:            labels,
		Sample:            buildSample(sampleRows),
	}, nil
}

// buildSample assembles a deduplicated preview graph from the raw sample rows.
func buildSample(rows []map[string]any) *schemas.GraphPreview {
	if len(rows) == 0 {
		return nil
	}

	nodes := make(map[int64]schemas.GraphPreviewNode)
	order := make([]int64, 0, len(rows)*2)
	relationships := make([]schemas.GraphPreviewRelationship, 0, len(rows))

	addNode := func(id int64, labels []string) {
		if _, seen := nodes[id]; !seen {
			order = append(order, id)
		}
		nodes[id] = schemas.GraphPreviewNode{ID: id, Labels: labels}
	}

	for _, row := range rows {
		srcID := asInt64(row["source_id"])
		tgtID := asInt64(row["target_id"])
		addNode(srcID, asStrings(row["source_labels"]))
		addNode(tgtID, asStrings(row["target_labels"]))
		relationships = append(relationships, schemas.GraphPreviewRelationship{
			SourceID: srcID,
			TargetID: tgtID,
			Type:     asString(row["type"]),
		})
	}

	preview := &schemas.GraphPreview{
		Nodes:         make([]schemas.GraphPreviewNode, 0, len(order)),
		Relationships: relationships,
	}
	for _, id := range order {
		preview.Nodes = append(preview.Nodes, nodes[id])
	}
	return preview
}

// The driver surfaces Cypher integers as int64 and lists as []any; these
// helpers keep the row translation tolerant of both.

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func asStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
