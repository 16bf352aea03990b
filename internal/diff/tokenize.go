package diff

import (
	"unicode"
	"unicode/utf8"
)

type token struct {
	text    string
	counted bool // contributes to added/deleted counts
}

// tokenize splits s into comparison tokens. Concatenating the token texts yields s.
//
// Word unit: maximal runs of non-space runes and maximal runs of space runes alternate;
// only the non-space runs are counted. Char unit: every rune, or invalid byte, is a counted token.
func tokenize(s string, unit Unit) []token {
	if s == "" {
		return nil
	}
	if unit == UnitChar {
		toks := make([]token, 0, utf8.RuneCountInString(s))
		for i := 0; i < len(s); {
			// An invalid byte decodes with width 1 and stays a token of its own.
			_, w := utf8.DecodeRuneInString(s[i:])
			toks = append(toks, token{text: s[i : i+w], counted: true})
			i += w
		}
		return toks
	}

	var toks []token
	start := 0
	inSpace := false
	for i, r := range s {
		space := unicode.IsSpace(r)
		if i == 0 {
			inSpace = space
			continue
		}
		if space != inSpace {
			toks = append(toks, token{text: s[start:i], counted: !inSpace})
			start = i
			inSpace = space
		}
	}
	toks = append(toks, token{text: s[start:], counted: !inSpace})
	return toks
}

// intern maps token texts to small integers so the alignment compares ints.
func intern(oldToks, newToks []token) ([]int, []int) {
	ids := make(map[string]int, len(oldToks))
	conv := func(toks []token) []int {
		out := make([]int, len(toks))
		for i, t := range toks {
			id, ok := ids[t.text]
			if !ok {
				id = len(ids)
				ids[t.text] = id
			}
			out[i] = id
		}
		return out
	}
	return conv(oldToks), conv(newToks)
}

// CountUnits returns the number of counted tokens in s.
func CountUnits(s string, unit Unit) int {
	n := 0
	for _, t := range tokenize(s, unit) {
		if t.counted {
			n++
		}
	}
	return n
}
