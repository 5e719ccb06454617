// Package tokenizer turns entry fields and queries into search tokens.
// It splits on non-word boundaries, keeps runs of at least two word
// characters, lower-cases them and drops a small stoplist of domain
// suffixes that would otherwise match almost every URL in a vault.
package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/vault"
)

const minTokenLen = 2

var stopWords = map[string]struct{}{
	"com": {}, "net": {}, "org": {},
}

// Tokenize breaks text into lower-cased tokens with stop-words removed.
// Order and duplicates are preserved.
func Tokenize(text string) []string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !isWordRune(r)
	})
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if utf8.RuneCountInString(word) < minTokenLen {
			continue
		}
		word = strings.ToLower(word)
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// TokenizeEntry returns the indexable tokens of an entry: title, notes and
// url are tokenized independently and concatenated, then every non-blank
// tag is appended whole (lower-cased, not split).
func TokenizeEntry(e vault.Entry) []string {
	tokens := make([]string, 0, 16)
	for _, field := range []string{e.Title, e.Notes, e.URL} {
		if strings.TrimSpace(field) == "" {
			continue
		}
		tokens = append(tokens, Tokenize(field)...)
	}
	for _, tag := range e.Tags {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		tokens = append(tokens, strings.ToLower(tag))
	}
	return tokens
}

// Frequencies groups a token stream into per-token occurrence counts.
func Frequencies(tokens []string) map[string]int {
	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}
	return freq
}

// IsStopWord reports whether the lower-cased token is never indexed.
func IsStopWord(token string) bool {
	_, ok := stopWords[strings.ToLower(token)]
	return ok
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
