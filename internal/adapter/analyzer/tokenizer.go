package analyzer

import (
	"math"
	"strings"
	"unicode"
)

// WordCount returns the number of whitespace-separated words in text.
// Runs of whitespace count once and empty tokens are dropped.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// EstimateTokens approximates the LLM token count of text as
// ceil(words * 1.3). The constant is deliberately crude; it is shared by
// every token-budget check in the pipeline and by any precomputed cache, so
// it must not change.
func EstimateTokens(text string) int {
	words := WordCount(text)
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) * 1.3))
}

// Tokenize lower-cases text and splits it on runs of non-word characters.
// Word characters are letters, digits, and underscore. Unlike a search
// analyzer there is no stemming, stopword, or length filtering: keyword
// scores depend on the exact token multiset.
func Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(unicode.ToLower(r))
		} else {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}
