// api/schemas/chat.go
package schemas

import "time"

// IntentAnalysis is the strict-JSON result of the chatbot's intent
// classification step: a coarse intent, the entities pulled from the message,
// and the template query type to dispatch to.
type IntentAnalysis struct {
	Intent    string         `json:"intent"`
	Entities  map[string]any `json:"entities"`
	QueryType string         `json:"query_type"`
}

// ChatRequest is the body of POST /api/chatbot/message.
type ChatRequest struct {
	Message string `json:"message"`
	// ConversationID continues an existing conversation when set.
	ConversationID int64 `json:"conversation_id,omitempty"`
	// Title optionally names the conversation; otherwise derived.
	Title string `json:"title,omitempty"`
}

// ChatResponse carries both the friendly answer and the raw analysis/rows so
// clients can render richer experiences.
type ChatResponse struct {
	Analysis       IntentAnalysis   `json:"analysis"`
	Results        []map[string]any `json:"results,omitempty"`
	Answer         string           `json:"answer"`
	QueryType      string           `json:"query_type,omitempty"`
	ConversationID int64            `json:"conversation_id,omitempty"`
}

// Text2CypherRequest is the body of POST /api/text2cypher.
type Text2CypherRequest struct {
	Question string `json:"question"`
	// Execute runs the generated query when true; otherwise rows are omitted.
	Execute bool `json:"execute"`
}

// Text2CypherResponse exposes every stage of the two-step pipeline.
type Text2CypherResponse struct {
	Extraction *Extraction      `json:"extraction"`
	Cypher     string           `json:"cypher"`
	Params     map[string]any   `json:"params"`
	Rows       []map[string]any `json:"rows,omitempty"`
}

// Conversation is one chat thread. Details are append-only; LastUpdate is
// touched on every message pair or title change.
type Conversation struct {
	ID         int64     `json:"id"`
	UserID     *int64    `json:"user_id,omitempty"`
	Title      string    `json:"title,omitempty"`
	LastUpdate time.Time `json:"last_update"`
}

// Message roles stored in conversation details.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationDetail is a single stored message within a conversation.
type ConversationDetail struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Role           string    `json:"role"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

// SchemaResponse wraps the cached schema snapshot for GET /schema.
type SchemaResponse struct {
	Schema string `json:"schema"`
}

// LabelStat is one row of the label histogram in the graph summary.
type LabelStat struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// GraphPreviewNode and GraphPreviewRelationship form a small deduplicated
// sample subgraph suitable for client-side rendering.
type GraphPreviewNode struct {
	ID     int64    `json:"id"`
	Labels []string `json:"labels"`
}

type GraphPreviewRelationship struct {
	SourceID int64  `json:"source_id"`
	TargetID int64  `json:"target_id"`
	Type     string `json:"type"`
}

type GraphPreview struct {
	Nodes         []GraphPreviewNode         `json:"nodes"`
	Relationships []GraphPreviewRelationship `json:"relationships"`
}

// GraphSummaryResponse is the payload of GET /api/graph/summary.
type GraphSummaryResponse struct {
	NodeCount         int64         `json:"node_count"`
	RelationshipCount int64         `json:"relationship_count"`
	RelationshipTypes []string      `json:"relationship_types"`
	Labels            []LabelStat   `json:"labels"`
	Sample            *GraphPreview `json:"sample,omitempty"`
}
