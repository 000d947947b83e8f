package shell

import (
	"fmt"
	"strconv"
	"strings"
)

// expandBraces performs one leftmost-brace-group-per-token expansion:
// comma lists ({a,b,c}), numeric ranges ({1..5}, either direction), and
// character ranges ({a..e}). Quoted tokens pass through unexpanded.
func expandBraces(tokens []Token) []Token {
	var out []Token
	for _, tok := range tokens {
		if tok.Quoted {
			out = append(out, tok)
			continue
		}
		expanded := expandBraceToken(tok.Text)
		for _, e := range expanded {
			out = append(out, Token{Text: e})
		}
	}
	return out
}

func expandBraceToken(word string) []string {
	start := strings.Index(word, "{")
	if start == -1 {
		return []string{word}
	}
	depth := 0
	end := -1
	for i := start; i < len(word); i++ {
		switch word[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				end = i
			}
		}
		if end != -1 {
			break
		}
	}
	if end == -1 {
		return []string{word}
	}

	prefix := word[:start]
	body := word[start+1 : end]
	suffix := word[end+1:]

	items := braceItems(body)
	if items == nil {
		return []string{word}
	}

	var results []string
	for _, item := range items {
		combined := prefix + item + suffix
		results = append(results, expandBraceToken(combined)...)
	}
	return results
}

func braceItems(body string) []string {
	if strings.Contains(body, ",") {
		return strings.Split(body, ",")
	}
	if parts := strings.SplitN(body, "..", 2); len(parts) == 2 {
		from, to := parts[0], parts[1]
		if fromN, errF := strconv.Atoi(from); errF == nil {
			if toN, errT := strconv.Atoi(to); errT == nil {
				return intRange(fromN, toN)
			}
		}
		if len(from) == 1 && len(to) == 1 {
			return charRange(rune(from[0]), rune(to[0]))
		}
	}
	return nil
}

func intRange(from, to int) []string {
	var out []string
	if from <= to {
		for i := from; i <= to; i++ {
			out = append(out, fmt.Sprintf("%d", i))
		}
	} else {
		for i := from; i >= to; i-- {
			out = append(out, fmt.Sprintf("%d", i))
		}
	}
	return out
}

func charRange(from, to rune) []string {
	var out []string
	if from <= to {
		for c := from; c <= to; c++ {
			out = append(out, string(c))
		}
	} else {
		for c := from; c >= to; c-- {
			out = append(out, string(c))
		}
	}
	return out
}
