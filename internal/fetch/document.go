package fetch

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/xxxsen/filingchat/internal/model"
)

// ParseDocument turns raw filing HTML into a sanitized document: scripts,
// styles and hidden nodes dropped, block-level content flattened into an
// ordered element sequence with monotonically increasing indices. Data tables
// become single atomic table elements so chunking can never split them.
func ParseDocument(html string, sourceURL string) (*model.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript, iframe").Remove()
	doc.Find("[style*='display:none'], [style*='display: none']").Remove()

	result := &model.Document{
		ID:        FilingID(sourceURL),
		SourceURL: sourceURL,
		Title:     strings.TrimSpace(doc.Find("title").First().Text()),
	}

	appendElement := func(kind model.ElementKind, text string) {
		text = collapseSpaces(text)
		if text == "" {
			return
		}
		result.Elements = append(result.Elements, model.Element{
			Index: len(result.Elements),
			Kind:  kind,
			Text:  text,
		})
	}

	doc.Find("h1, h2, h3, h4, h5, h6, p, li, table").Each(func(_ int, s *goquery.Selection) {
		// Content nested inside a table or list item is covered by its
		// enclosing element; counting it again would duplicate text.
		if s.ParentsFiltered("table, li").Length() > 0 {
			return
		}
		switch goquery.NodeName(s) {
		case "table":
			grid := ExpandGrid(s)
			if IsDataTable(grid) {
				appendElement(model.ElementTable, FormatGrid(grid))
				return
			}
			// Layout tables are presentation only, keep their text addressable
			// as individual paragraphs.
			for _, row := range grid {
				for _, cell := range row {
					appendElement(model.ElementParagraph, cell)
				}
			}
		case "li":
			appendElement(model.ElementListItem, s.Text())
		case "p":
			appendElement(model.ElementParagraph, s.Text())
		default:
			appendElement(model.ElementHeading, s.Text())
		}
	})

	if len(result.Elements) == 0 {
		appendElement(model.ElementParagraph, doc.Find("body").Text())
	}
	return result, nil
}

func collapseSpaces(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
