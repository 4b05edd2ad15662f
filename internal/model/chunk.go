package model

// Chunk is the unit of retrieval: a contiguous span of document text with the
// minimal element-index range that contains it. StartElement/EndElement ranges
// of consecutive chunks partition the document; the configured token overlap
// lives in Text only.
type Chunk struct {
	ID           string `json:"id"`
	DocumentID   string `json:"document_id"`
	Text         string `json:"text"`
	StartElement int    `json:"start_element"`
	EndElement   int    `json:"end_element"`
	TokenCount   int    `json:"token_count"`
	HasTable     bool   `json:"has_table"`
}

// ScoredChunk is a chunk annotated with retrieval scores for one question.
type ScoredChunk struct {
	Chunk
	Score         float64 `json:"score"`
	SemanticScore float64 `json:"semantic_score"`
	KeywordScore  float64 `json:"keyword_score"`
}
