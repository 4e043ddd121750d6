package usecase

import (
	"strings"
	"unicode"

	"tg-market/services/moderation/internal/entity"
)

// Screener flags text containing any banned word or phrase.
// Matching ignores case and only counts whole words.
type Screener struct {
	banned [][]string
}

func NewScreener(words []string) *Screener {
	s := &Screener{}
	for _, w := range words {
		if tokens := tokenize(w); len(tokens) > 0 {
			s.banned = append(s.banned, tokens)
		}
	}
	return s
}

func (s *Screener) Screen(texts ...string) entity.Verdict {
	var tokens []string
	for _, t := range texts {
		tokens = append(tokens, tokenize(t)...)
	}

	var verdict entity.Verdict
	for _, phrase := range s.banned {
		if containsRun(tokens, phrase) {
			verdict.Blocked = true
			verdict.Matches = append(verdict.Matches, strings.Join(phrase, " "))
		}
	}
	return verdict
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsRun(tokens, phrase []string) bool {
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		match := true
		for j := range phrase {
			if tokens[i+j] != phrase[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
