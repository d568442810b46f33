package models

import "unicode/utf8"

// HeuristicCounter approximates GPT-family tokenization at roughly four
// characters per token. Close enough for sizing chunks against a context
// window; swap in a real tokenizer where exact counts matter.
type HeuristicCounter struct{}

func (HeuristicCounter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	runes := utf8.RuneCountInString(text)
	est := runes / 4
	if runes%4 != 0 {
		est++
	}
	return est
}

var _ TokenCounter = HeuristicCounter{}
