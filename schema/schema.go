package schema

// Node represents a chunk of statutory text stored in the vector index.
type Node struct {
	ID        string                 `json:"id"`
	Text      string                 `json:"text"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Embedding []float64              `json:"embedding,omitempty"`
}

// FilePath returns the source file path recorded in the node metadata,
// or "Unknown" when none was recorded.
func (n *Node) FilePath() string {
	if n.Metadata == nil {
		return "Unknown"
	}
	if p, ok := n.Metadata["file_path"].(string); ok && p != "" {
		return p
	}
	return "Unknown"
}

// Document is a raw source document prior to chunking.
type Document struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NodeWithScore pairs a retrieved node with its similarity score.
// Score is nil when the underlying index did not return one.
type NodeWithScore struct {
	Node  Node     `json:"node"`
	Score *float64 `json:"score,omitempty"`
}

// QueryBundle encapsulates the query string sent to a retriever.
type QueryBundle struct {
	QueryString string `json:"query_string"`
}

// EngineResponse encapsulates a generated response and its source nodes.
type EngineResponse struct {
	Response    string          `json:"response"`
	SourceNodes []NodeWithScore `json:"source_nodes,omitempty"`
}

// VectorStoreQuery represents a similarity query against the vector store.
type VectorStoreQuery struct {
	Embedding []float64 `json:"embedding,omitempty"`
	TopK      int       `json:"top_k"`
}

// Score returns a pointer to v, for building NodeWithScore literals.
func Score(v float64) *float64 {
	return &v
}
