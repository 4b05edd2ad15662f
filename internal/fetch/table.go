package fetch

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	currencyRe      = regexp.MustCompile(`[$€£¥]`)
	formattedNumRe  = regexp.MustCompile(`\d{1,3}(,\d{3})+`)
	percentRe       = regexp.MustCompile(`\d+\.?\d*\s*%`)
	numberRe        = regexp.MustCompile(`\d+`)
	parentheticalRe = regexp.MustCompile(`\(\s*\d[\d,]*\s*\)`)
)

// ExpandGrid converts a <table> with colspan/rowspan into a regular 2D grid of
// cell texts. Spanned cells repeat their text into every covered position.
func ExpandGrid(table *goquery.Selection) [][]string {
	rows := table.Find("tr")
	if rows.Length() == 0 {
		return nil
	}
	maxCols := 0
	rows.Each(func(_ int, row *goquery.Selection) {
		cols := 0
		row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			cols += spanValue(cell, "colspan")
		})
		if cols > maxCols {
			maxCols = cols
		}
	})
	if maxCols == 0 {
		return nil
	}

	rowCount := rows.Length()
	grid := make([][]string, rowCount)
	filled := make([][]bool, rowCount)
	for i := range grid {
		grid[i] = make([]string, maxCols)
		filled[i] = make([]bool, maxCols)
	}

	rows.Each(func(rowIdx int, row *goquery.Selection) {
		colIdx := 0
		row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			for colIdx < maxCols && filled[rowIdx][colIdx] {
				colIdx++
			}
			if colIdx >= maxCols {
				return
			}
			colspan := spanValue(cell, "colspan")
			rowspan := spanValue(cell, "rowspan")
			text := collapseSpaces(cell.Text())
			for r := 0; r < rowspan && rowIdx+r < rowCount; r++ {
				for c := 0; c < colspan && colIdx+c < maxCols; c++ {
					grid[rowIdx+r][colIdx+c] = text
					filled[rowIdx+r][colIdx+c] = true
				}
			}
			colIdx += colspan
		})
	})
	return grid
}

func spanValue(cell *goquery.Selection, attr string) int {
	raw, ok := cell.Attr(attr)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// IsDataTable separates financial/data tables from layout tables. SEC filings
// abuse tables heavily for page layout, so the bar is deliberately shaped
// around financial markers: currency, formatted or parenthetical numbers,
// percentages, or a dense number count.
func IsDataTable(grid [][]string) bool {
	if len(grid) < 2 {
		return false
	}
	cellCount := 0
	var sb strings.Builder
	for _, row := range grid {
		for _, cell := range row {
			if cell != "" {
				cellCount++
			}
			sb.WriteString(cell)
			sb.WriteString(" ")
		}
	}
	text := sb.String()
	if cellCount < 6 || len(strings.TrimSpace(text)) < 50 {
		return false
	}
	if currencyRe.MatchString(text) || formattedNumRe.MatchString(text) ||
		percentRe.MatchString(text) || parentheticalRe.MatchString(text) {
		return true
	}
	return len(numberRe.FindAllString(text, 9)) >= 8
}

// FormatGrid renders a data table row by row so every value keeps its row
// label and column header next to it. This keeps context intact for the model
// at the cost of verbosity.
func FormatGrid(grid [][]string) string {
	if len(grid) == 0 {
		return ""
	}
	headers := grid[0]
	var lines []string
	if title := collapseSpaces(strings.Join(headers, " | ")); title != "" {
		lines = append(lines, "Table: "+title)
	}
	for _, row := range grid[1:] {
		label := ""
		var parts []string
		for colIdx, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if label == "" {
				label = cell
				continue
			}
			header := ""
			if colIdx < len(headers) {
				header = strings.TrimSpace(headers[colIdx])
			}
			if header != "" && header != cell {
				parts = append(parts, header+": "+cell)
			} else {
				parts = append(parts, cell)
			}
		}
		if label == "" && len(parts) == 0 {
			continue
		}
		if len(parts) == 0 {
			lines = append(lines, "  • "+label)
			continue
		}
		lines = append(lines, "  • "+label+": "+strings.Join(parts, "; "))
	}
	return strings.Join(lines, "\n")
}
