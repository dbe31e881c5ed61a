// Package lixsql is a position-preserving lexer for the lix SQLite dialect.
//
// It does not build a full AST. The router, rewriter and validator all work
// directly off the token stream: the router classifies statements by their
// leading keywords, the rewriter splices replacement text into exact byte
// spans, and the validator walks VALUES-list tokens with a cursor. A linear
// scan over tokens naturally "descends" into CTEs, subqueries and joins
// because they are just more tokens in the same stream.
package lixsql

import "strings"

// Kind classifies a single token.
type Kind int

const (
	EOF Kind = iota
	Word        // bare identifier or keyword, e.g. SELECT, state, entity_id
	QuotedIdent // "foo", `foo`, [foo]
	String      // 'foo', N'foo', E'foo', '''foo''' (triple-quoted)
	Number
	Placeholder // ?
	Punct       // ( ) , . ; = etc
)

// Token is one lexical unit together with its byte span in the original
// source. Start/End make splice-based rewriting possible without touching
// any byte outside the matched span.
type Token struct {
	Kind  Kind
	Text  string // raw source text, including quotes/prefix
	Value string // unescaped value for String/QuotedIdent, raw text otherwise
	Start int
	End   int
}

// Lower returns the lowercased Value, used for case-insensitive comparisons
// of identifiers and keywords.
func (t Token) Lower() string {
	return strings.ToLower(t.Value)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '$'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// Tokenize scans sql into a token stream. Whitespace and comments (--, #,
// /* */) are skipped; everything else is returned as a Token whose Start/End
// index into the original string, so callers can splice replacement text
// without re-serializing untouched regions.
func Tokenize(sql string) []Token {
	var toks []Token
	i := 0
	n := len(sql)

	for i < n {
		c := sql[i]

		if isSpace(c) {
			i++
			continue
		}

		if c == '-' && i+1 < n && sql[i+1] == '-' {
			j := i + 2
			for j < n && sql[j] != '\n' {
				j++
			}
			i = j
			continue
		}
		if c == '#' {
			j := i + 1
			for j < n && sql[j] != '\n' {
				j++
			}
			i = j
			continue
		}
		if c == '/' && i+1 < n && sql[i+1] == '*' {
			j := i + 2
			for j+1 < n && !(sql[j] == '*' && sql[j+1] == '/') {
				j++
			}
			if j+1 < n {
				j += 2
			} else {
				j = n
			}
			i = j
			continue
		}

		if c == '?' {
			toks = append(toks, Token{Kind: Placeholder, Text: "?", Value: "?", Start: i, End: i + 1})
			i++
			continue
		}

		if c == '\'' || c == '"' || c == '`' || c == '[' {
			start := i
			tok, next := scanQuoted(sql, i)
			tok.Start = start
			tok.End = next
			toks = append(toks, tok)
			i = next
			continue
		}

		// National/escape string prefixes: N'...', n'...', E'...', e'...'
		if (c == 'N' || c == 'n' || c == 'E' || c == 'e') && i+1 < n && sql[i+1] == '\'' {
			start := i
			tok, next := scanQuoted(sql, i+1)
			tok.Kind = String
			tok.Text = sql[start:next]
			tok.Start = start
			tok.End = next
			toks = append(toks, tok)
			i = next
			continue
		}

		if isDigit(c) || (c == '.' && i+1 < n && isDigit(sql[i+1])) {
			start := i
			j := i
			for j < n && isDigit(sql[j]) {
				j++
			}
			if j < n && sql[j] == '.' {
				j++
				for j < n && isDigit(sql[j]) {
					j++
				}
			}
			if j < n && (sql[j] == 'e' || sql[j] == 'E') {
				k := j + 1
				if k < n && (sql[k] == '+' || sql[k] == '-') {
					k++
				}
				if k < n && isDigit(sql[k]) {
					j = k
					for j < n && isDigit(sql[j]) {
						j++
					}
				}
			}
			text := sql[start:j]
			toks = append(toks, Token{Kind: Number, Text: text, Value: text, Start: start, End: j})
			i = j
			continue
		}

		if isIdentStart(c) {
			start := i
			j := i + 1
			for j < n && isIdentCont(sql[j]) {
				j++
			}
			text := sql[start:j]
			toks = append(toks, Token{Kind: Word, Text: text, Value: text, Start: start, End: j})
			i = j
			continue
		}

		// Punctuation: single byte, except multi-char operators we don't
		// need to special-case for classification/rewrite purposes.
		toks = append(toks, Token{Kind: Punct, Text: sql[i : i+1], Value: sql[i : i+1], Start: i, End: i + 1})
		i++
	}

	return toks
}

// scanQuoted scans a quoted identifier or string literal starting at i
// (sql[i] is the opening quote/bracket). It returns a token with Kind set
// for the delimiter found and the index just past the closing delimiter.
// Caller fixes up Start/End.
func scanQuoted(sql string, i int) (Token, int) {
	n := len(sql)
	open := sql[i]
	var close byte
	kind := QuotedIdent
	switch open {
	case '\'':
		close = '\''
		kind = String
	case '"':
		close = '"'
		kind = QuotedIdent
	case '`':
		close = '`'
		kind = QuotedIdent
	case '[':
		close = ']'
		kind = QuotedIdent
	}

	// Triple-quoted string: '''...''' or """...""".
	if (open == '\'' || open == '"') && i+2 < n && sql[i+1] == open && sql[i+2] == open {
		delim := string([]byte{open, open, open})
		j := i + 3
		for j+3 <= n && sql[j:j+3] != delim {
			j++
		}
		end := j + 3
		if end > n {
			end = n
		}
		raw := sql[i:end]
		value := raw
		if len(raw) >= 6 {
			value = raw[3 : len(raw)-3]
		}
		return Token{Kind: String, Text: raw, Value: value}, end
	}

	var b strings.Builder
	j := i + 1
	for j < n {
		if sql[j] == close {
			if j+1 < n && sql[j+1] == close {
				b.WriteByte(close)
				j += 2
				continue
			}
			j++
			break
		}
		if close == '\'' && sql[j] == '\\' && j+1 < n {
			b.WriteByte(sql[j+1])
			j += 2
			continue
		}
		b.WriteByte(sql[j])
		j++
	}
	return Token{Kind: kind, Text: sql[i:j], Value: b.String()}, j
}
