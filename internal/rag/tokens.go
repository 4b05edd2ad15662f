package rag

import (
	"regexp"
	"strings"
)

var termRe = regexp.MustCompile(`[\w$.,%]+`)

// EstimateTokens approximates the token count of a text: one token per word
// for latin script plus one per rune for CJK content.
func EstimateTokens(text string) int {
	count := 0
	for _, r := range text {
		if r > 127 {
			count++
		}
	}
	count += len(strings.Fields(text))
	if count == 0 && len(text) > 0 {
		return 1
	}
	return count
}

// Tokenize lowercases and splits text into scoring terms. Financial values
// are emitted twice, once verbatim and once stripped of $ and thousands
// separators, so "$1,234" in a question matches "1234" in a table and vice
// versa.
func Tokenize(text string) []string {
	raw := termRe.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, token := range raw {
		token = strings.Trim(token, ".,")
		if token == "" {
			continue
		}
		clean := strings.NewReplacer("$", "", ",", "").Replace(token)
		if clean == "" {
			continue
		}
		tokens = append(tokens, clean)
		if clean != token {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
