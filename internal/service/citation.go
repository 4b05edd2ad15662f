package service

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/filingchat/internal/model"
)

var citationRe = regexp.MustCompile(`\[(\d+)\]`)

var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "was": {}, "were": {}, "for": {},
	"of": {}, "to": {}, "in": {}, "and": {}, "or": {}, "that": {}, "this": {},
}

// FilterAndRenumber scans the answer for [n] citation markers, keeps the
// distinct cited rank positions in order of first appearance, and rewrites
// the markers densely as [1..k]. Markers citing a rank outside 1..retrieved
// are stripped so no orphaned marker survives. Returns the rewritten answer
// and the cited original ranks in their new order.
func FilterAndRenumber(answer string, retrieved int) (string, []int) {
	var order []int
	renumber := make(map[int]int)
	for _, match := range citationRe.FindAllStringSubmatch(answer, -1) {
		rank, err := strconv.Atoi(match[1])
		if err != nil || rank < 1 || rank > retrieved {
			continue
		}
		if _, seen := renumber[rank]; seen {
			continue
		}
		order = append(order, rank)
		renumber[rank] = len(order)
	}
	if len(order) == 0 {
		return citationRe.ReplaceAllString(answer, ""), nil
	}
	rewritten := citationRe.ReplaceAllStringFunc(answer, func(marker string) string {
		rank, _ := strconv.Atoi(marker[1 : len(marker)-1])
		next, ok := renumber[rank]
		if !ok {
			return ""
		}
		return "[" + strconv.Itoa(next) + "]"
	})
	return rewritten, order
}

// ContextBeforeCitation returns roughly the 100 characters of answer text
// preceding the first [n] marker, used to pin the citation to an element.
func ContextBeforeCitation(answer string, n int) string {
	marker := "[" + strconv.Itoa(n) + "]"
	pos := strings.Index(answer, marker)
	if pos < 0 {
		return ""
	}
	start := runeBoundary(answer, pos-100)
	return strings.TrimSpace(answer[start:pos])
}

// ResolveElementIndex picks the element inside the chunk's range whose text
// best matches the answer context. Word-overlap scoring after stopword
// removal; below the minimum overlap, or with no context at all, it falls
// back to the start of the range. Ties resolve to the lowest element index.
func ResolveElementIndex(chunk model.Chunk, doc *model.Document, answerContext string, minOverlap int) int {
	fallback := chunk.StartElement
	if doc == nil || len(doc.Elements) == 0 {
		return fallback
	}
	searchText := answerContext
	if searchText == "" {
		searchText = firstChars(chunk.Text, 150)
	}
	searchWords := contentWords(searchText)
	if len(searchWords) == 0 {
		return fallback
	}
	bestIndex := fallback
	bestScore := 0
	for _, elem := range doc.Elements {
		if elem.Index < chunk.StartElement || elem.Index > chunk.EndElement {
			continue
		}
		overlap := wordOverlap(contentWords(elem.Text), searchWords)
		if overlap < minOverlap {
			continue
		}
		if overlap > bestScore {
			bestScore = overlap
			bestIndex = elem.Index
		}
	}
	return bestIndex
}

// BestPreview slides a window over the chunk text and returns the stretch
// most relevant to the answer context, falling back to the chunk head.
func BestPreview(chunkText, answerContext string, length, minOverlap int) string {
	if length <= 0 {
		length = 150
	}
	if answerContext == "" || len(chunkText) <= length {
		return headPreview(chunkText, length)
	}
	contextWords := contentWords(answerContext)
	if len(contextWords) == 0 {
		return headPreview(chunkText, length)
	}
	lower := strings.ToLower(chunkText)
	bestStart := 0
	bestScore := 0
	const step = 50
	for start := 0; start < len(chunkText)-length; start += step {
		window := lower[start : start+length]
		score := wordOverlap(contentWords(window), contextWords)
		if score > bestScore {
			bestScore = score
			bestStart = start
		}
	}
	if bestScore < minOverlap {
		return headPreview(chunkText, length)
	}
	from := runeBoundary(chunkText, bestStart)
	to := runeBoundary(chunkText, bestStart+length)
	preview := strings.TrimSpace(chunkText[from:to])
	prefix := ""
	if bestStart > 0 {
		prefix = "..."
	}
	suffix := ""
	if bestStart+length < len(chunkText) {
		suffix = "..."
	}
	return prefix + preview + suffix
}

func headPreview(text string, length int) string {
	if len(text) <= length {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[:runeBoundary(text, length)]) + "..."
}

func firstChars(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:runeBoundary(text, n)]
}

// runeBoundary clamps n into [0, len(text)] and backs it up to the start of
// the rune it falls inside, so slicing at the returned offset never splits a
// multibyte character.
func runeBoundary(text string, n int) int {
	if n <= 0 {
		return 0
	}
	if n >= len(text) {
		return len(text)
	}
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return n
}

func contentWords(text string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if _, skip := stopwords[word]; skip {
			continue
		}
		words[word] = struct{}{}
	}
	return words
}

func wordOverlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	count := 0
	for word := range a {
		if _, ok := b[word]; ok {
			count++
		}
	}
	return count
}
