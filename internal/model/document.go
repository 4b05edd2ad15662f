package model

// ElementKind classifies a structural element of a sanitized document.
type ElementKind string

const (
	ElementParagraph ElementKind = "paragraph"
	ElementHeading   ElementKind = "heading"
	ElementListItem  ElementKind = "list_item"
	ElementTable     ElementKind = "table"
	ElementTableCell ElementKind = "table_cell"
)

// Element is one structural unit of a document. Index is assigned once at
// ingestion, increases monotonically within the document and is the address
// citations and deep links resolve against.
type Element struct {
	Index int         `json:"index"`
	Kind  ElementKind `json:"kind"`
	Text  string      `json:"text"`
}

// Document is a sanitized filing or exhibit: plain text plus the ordered
// element sequence the text was assembled from.
type Document struct {
	ID        string    `json:"id"`
	SourceURL string    `json:"source_url"`
	Title     string    `json:"title"`
	Elements  []Element `json:"elements"`
}

func (d *Document) Empty() bool {
	return d == nil || len(d.Elements) == 0
}

// Exhibit describes one exhibit file attached to a filing.
type Exhibit struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
}
