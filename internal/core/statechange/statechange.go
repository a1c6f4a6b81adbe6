// Package statechange finds the trigger word that asks for an issue transition
//
// Text is split into lines on "\n", lines into UAX #29 sentences and sentences into
// UAX #29 words. A sentence mentions an issue when the key's word tokens appear in it
// as a contiguous run. The first candidate keyword whose tokens also appear in that
// sentence, compared in English lower case, wins.
package statechange

import (
	"strings"
	"sync"

	"github.com/clipperhouse/uax29/v2/sentences"
	"github.com/clipperhouse/uax29/v2/words"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// casers are not safe for concurrent use
var lowerPool = sync.Pool{
	New: func() any { return cases.Lower(language.English) },
}

func lower(s string) string {
	c := lowerPool.Get().(cases.Caser)
	out := c.String(s)
	c.Reset()
	lowerPool.Put(c)
	return out
}

// Detect scans texts in order and returns the first keyword that shares a sentence with issueKey
func Detect(issueKey string, keywords []string, texts ...string) (string, bool) {
	if issueKey == "" || len(keywords) == 0 {
		return "", false
	}
	keyTokens := Tokenize(issueKey)
	if len(keyTokens) == 0 {
		return "", false
	}

	kwTokens := make([][]string, 0, len(keywords))
	for _, kw := range keywords {
		kwTokens = append(kwTokens, lowerAll(Tokenize(kw)))
	}

	for _, text := range texts {
		for _, line := range strings.Split(text, "\n") {
			for _, sentence := range Sentences(line) {
				tokens := Tokenize(sentence)
				if indexOf(tokens, keyTokens) < 0 {
					continue
				}
				folded := lowerAll(tokens)
				for i, kw := range kwTokens {
					if len(kw) > 0 && indexOf(folded, kw) >= 0 {
						return keywords[i], true
					}
				}
			}
		}
	}
	return "", false
}

// Sentences splits s into UAX #29 sentences after NFC normalization
func Sentences(s string) []string {
	var out []string
	it := sentences.FromString(norm.NFC.String(s))
	for it.Next() {
		out = append(out, it.Value())
	}
	return out
}

// Tokenize splits s into UAX #29 word segments, dropping whitespace-only segments
func Tokenize(s string) []string {
	var out []string
	it := words.FromString(norm.NFC.String(s))
	for it.Next() {
		tok := it.Value()
		if strings.TrimSpace(tok) == "" {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func lowerAll(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = lower(t)
	}
	return out
}

// indexOf returns the start of the first contiguous occurrence of sub in list, or -1
func indexOf(list, sub []string) int {
	if len(sub) == 0 || len(sub) > len(list) {
		return -1
	}
outer:
	for i := 0; i+len(sub) <= len(list); i++ {
		for j := range sub {
			if list[i+j] != sub[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}
