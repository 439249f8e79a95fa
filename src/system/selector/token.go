package selector

import (
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokPlus tokenKind = iota
	tokDotPlus
	tokComma
	tokLParen
	tokRParen
	tokAsterisk
	tokInteger
	tokIntegerSet
	tokInterval
	tokString
	tokStringSet
)

func (k tokenKind) String() string {
	switch k {
	case tokPlus:
		return "'+'"
	case tokDotPlus:
		return "'.+'"
	case tokComma:
		return "','"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokAsterisk:
		return "wildcard"
	case tokInteger:
		return "integer"
	case tokIntegerSet:
		return "integer set"
	case tokInterval:
		return "interval"
	case tokString:
		return "string"
	case tokStringSet:
		return "string set"
	}
	return "unknown token"
}

// token carries one lexed unit plus its byte offset for error reporting.
type token struct {
	kind tokenKind
	pos  int

	str       string   // tokString
	num       int      // tokInteger
	nums      []int    // tokIntegerSet
	strs      []string // tokStringSet
	start     int      // tokInterval
	stop      int      // tokInterval, exclusive
	unbounded bool     // tokInterval without stop bound
}

// isLevel reports whether the token denotes a single level matcher.
func (t token) isLevel() bool {
	switch t.kind {
	case tokAsterisk, tokInteger, tokIntegerSet, tokInterval, tokString, tokStringSet:
		return true
	}
	return false
}

// reserved characters that terminate a string segment.
const reservedChars = "+*/[]():,."

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isStringStart(c byte) bool {
	return !isDigit(c) && strings.IndexByte(reservedChars, c) == -1
}

func isStringPart(c byte) bool {
	return strings.IndexByte(reservedChars, c) == -1
}

// tokenize lexes a whole selector string. Recognition priority follows the
// grammar: operators and grouping first, then wildcard, integer, bracketed
// sets/intervals, string segments. Any unrecognizable byte fails the whole
// input with a syntax error naming the offending character.
func tokenize(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == '+':
			toks = append(toks, token{kind: tokPlus, pos: i})
			i++
		case c == '.':
			if i+1 < len(input) && input[i+1] == '+' {
				toks = append(toks, token{kind: tokDotPlus, pos: i})
				i += 2
			} else {
				return nil, NewError(KindSyntax, "illegal character '.' at offset %d in %q", i, input)
			}
		case c == ',':
			toks = append(toks, token{kind: tokComma, pos: i})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, pos: i})
			i++
		case c == '/':
			if i+1 >= len(input) {
				return nil, NewError(KindSyntax, "dangling '/' at offset %d in %q", i, input)
			}
			next := input[i+1]
			switch {
			case next == '*':
				toks = append(toks, token{kind: tokAsterisk, pos: i})
				i += 2
			case isDigit(next):
				tok, n := scanInteger(input, i+1)
				tok.pos = i
				toks = append(toks, tok)
				i = n
			case next == '[':
				tok, n, err := scanBracket(input, i+1)
				if err != nil {
					return nil, err
				}
				tok.pos = i
				toks = append(toks, tok)
				i = n
			case isStringStart(next):
				tok, n := scanString(input, i+1)
				tok.pos = i
				toks = append(toks, tok)
				i = n
			default:
				return nil, NewError(KindSyntax, "illegal character %q at offset %d in %q", next, i+1, input)
			}
		case c == '[':
			tok, n, err := scanBracket(input, i)
			if err != nil {
				return nil, err
			}
			tok.pos = i
			toks = append(toks, tok)
			i = n
		case isDigit(c):
			tok, n := scanInteger(input, i)
			tok.pos = i
			toks = append(toks, tok)
			i = n
		default:
			return nil, NewError(KindSyntax, "illegal character %q at offset %d in %q", c, i, input)
		}
	}
	return toks, nil
}

func scanInteger(input string, i int) (token, int) {
	j := i
	for j < len(input) && isDigit(input[j]) {
		j++
	}
	v, _ := strconv.Atoi(input[i:j])
	return token{kind: tokInteger, num: v}, j
}

func scanString(input string, i int) (token, int) {
	j := i + 1
	for j < len(input) && isStringPart(input[j]) {
		j++
	}
	return token{kind: tokString, str: input[i:j]}, j
}

// scanBracket consumes a bracketed integer set, interval or string set
// starting at the '[' and classifies it from the content.
func scanBracket(input string, i int) (token, int, error) {
	end := strings.IndexByte(input[i:], ']')
	if end == -1 {
		return token{}, 0, NewError(KindSyntax, "unterminated '[' at offset %d in %q", i, input)
	}
	end += i
	content := input[i+1 : end]
	if content == "" {
		return token{}, 0, NewError(KindSyntax, "empty brackets at offset %d in %q", i, input)
	}

	if tok, ok := classifyInterval(content); ok {
		return tok, end + 1, nil
	}
	if tok, ok := classifyIntegerSet(content); ok {
		return tok, end + 1, nil
	}
	tok, err := classifyStringSet(content, input, i)
	if err != nil {
		return token{}, 0, err
	}
	return tok, end + 1, nil
}

func classifyInterval(content string) (token, bool) {
	colon := strings.IndexByte(content, ':')
	if colon == -1 {
		return token{}, false
	}
	lo, hi := content[:colon], content[colon+1:]
	for k := 0; k < len(lo); k++ {
		if !isDigit(lo[k]) {
			return token{}, false
		}
	}
	for k := 0; k < len(hi); k++ {
		if !isDigit(hi[k]) {
			return token{}, false
		}
	}
	tok := token{kind: tokInterval}
	if lo != "" {
		tok.start, _ = strconv.Atoi(lo)
	}
	if hi == "" {
		tok.unbounded = true
	} else {
		tok.stop, _ = strconv.Atoi(hi)
	}
	return tok, true
}

func classifyIntegerSet(content string) (token, bool) {
	parts := strings.Split(strings.TrimSuffix(content, ","), ",")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return token{}, false
		}
		for k := 0; k < len(p); k++ {
			if !isDigit(p[k]) {
				return token{}, false
			}
		}
		v, _ := strconv.Atoi(p)
		nums = append(nums, v)
	}
	return token{kind: tokIntegerSet, nums: nums}, true
}

func classifyStringSet(content, input string, pos int) (token, error) {
	parts := strings.Split(strings.TrimSuffix(content, ","), ",")
	strs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || !isStringStart(p[0]) {
			return token{}, NewError(KindSyntax, "illegal set element %q at offset %d in %q", p, pos, input)
		}
		for k := 1; k < len(p); k++ {
			if !isStringPart(p[k]) {
				return token{}, NewError(KindSyntax, "illegal character %q in set element at offset %d in %q", p[k], pos, input)
			}
		}
		strs = append(strs, p)
	}
	return token{kind: tokStringSet, strs: strs}, nil
}

// levelMatcher converts a level token into its matcher variant.
func levelMatcher(t token) Matcher {
	switch t.kind {
	case tokAsterisk:
		return Matcher{Kind: MatchWildcard}
	case tokInteger:
		return Matcher{Kind: MatchLiteral, Literal: NumLabel(t.num)}
	case tokString:
		return Matcher{Kind: MatchLiteral, Literal: StringLabel(t.str)}
	case tokIntegerSet:
		set := make([]Label, 0, len(t.nums))
		for _, n := range t.nums {
			set = append(set, NumLabel(n))
		}
		return Matcher{Kind: MatchSet, Set: set}
	case tokStringSet:
		set := make([]Label, 0, len(t.strs))
		for _, s := range t.strs {
			set = append(set, StringLabel(s))
		}
		return Matcher{Kind: MatchSet, Set: set}
	case tokInterval:
		return Matcher{Kind: MatchInterval, Start: t.start, Stop: t.stop, Unbounded: t.unbounded}
	}
	// unreachable when callers check isLevel first
	return Matcher{}
}
