package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one role-tagged message of a conversation. The pipeline only
// reads a bounded tail of the history; it does not persist it.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Source is one cited evidence chunk of an answer, ephemeral per response.
type Source struct {
	ID             string  `json:"id"`
	CitationNumber int     `json:"citation_number"`
	DocumentID     string  `json:"document_id"`
	Preview        string  `json:"preview"`
	ElementIndex   int     `json:"element_index"`
	Score          float64 `json:"score"`
}

// Answer is the final chat pipeline output: rewritten answer text plus the
// ordered source list its citations point at.
type Answer struct {
	Message string   `json:"message"`
	Sources []Source `json:"sources"`
}
