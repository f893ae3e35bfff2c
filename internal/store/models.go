package store

import "time"

// Operation names a priced sub-operation; the terminal ones double as a group's branch tag.
type Operation string

const (
	OperationEmbedding     Operation = "embedding"
	OperationRelevance     Operation = "relevance"
	OperationKnowledgeBase Operation = "knowledge_base"
	OperationWebSearch     Operation = "web_search"
)

// Passage is one knowledge-base text with its embedding.
type Passage struct {
	ID            int64     `json:"id"`
	Collection    string    `json:"collection"`
	Content       string    `json:"content"`
	Embedding     []float32 `json:"-"`
	EmbeddingJSON string    `json:"-"` // Stored as a JSON array of float32
}

// TransactionGroup gathers the priced operations triggered by one user turn.
type TransactionGroup struct {
	ID              string     `json:"id"`
	UserQuestion    string     `json:"user_question"`
	SimilarityScore *float64   `json:"similarity_score"` // Nullable
	Operation       *Operation `json:"operation"`        // Nullable, set by the terminal branch
	CreatedAt       time.Time  `json:"created_at"`
}

type TransactionItem struct {
	ID           int64     `json:"id"`
	GroupID      string    `json:"group_id"`
	Operation    Operation `json:"operation"`
	Model        string    `json:"model"`
	TokensInput  int       `json:"tokens_input"`
	TokensOutput int       `json:"tokens_output"`
	Cost         float64   `json:"cost"`
	CreatedAt    time.Time `json:"created_at"`
}

// OperationCost aggregates the items of one operation kind.
type OperationCost struct {
	Count        int     `json:"count"`
	Cost         float64 `json:"cost"`
	TokensInput  int     `json:"tokens_input"`
	TokensOutput int     `json:"tokens_output"`
}

type CostSummary struct {
	Operations  int                         `json:"operations"`
	TotalCost   float64                     `json:"total_cost"`
	AverageCost float64                     `json:"average_cost"`
	ByOperation map[Operation]OperationCost `json:"by_operation"`
}
