package lixsql

import "strings"

// StmtShape is the coarse statement category used for routing.
type StmtShape int

const (
	Other StmtShape = iota
	Select
	Insert
	Update
	Delete
)

// Statement is one top-level statement carved out of a larger SQL string,
// still referencing the original byte offsets so callers can splice.
type Statement struct {
	Text  string
	Start int
	End   int
}

// SplitStatements splits sql on top-level ';' (outside strings/comments/
// quoted identifiers), trimming whitespace and dropping empty statements.
func SplitStatements(sql string) []Statement {
	toks := Tokenize(sql)
	var stmts []Statement
	start := 0
	flush := func(end int) {
		text := strings.TrimSpace(sql[start:end])
		if text == "" {
			start = end
			return
		}
		// recompute trimmed offsets
		lead := strings.Index(sql[start:end], text)
		if lead < 0 {
			lead = 0
		}
		stmts = append(stmts, Statement{Text: text, Start: start + lead, End: start + lead + len(text)})
		start = end
	}
	for _, t := range toks {
		if t.Kind == Punct && t.Text == ";" {
			flush(t.Start)
			start = t.End
		}
	}
	flush(len(sql))
	return stmts
}

// ClassifyStatement inspects the leading keywords of a single statement
// (no trailing ';') and reports its coarse shape. WITH-prefixed statements
// are resolved by skipping the balanced-paren CTE bodies to find the
// statement keyword that follows.
func ClassifyStatement(stmt string) StmtShape {
	toks := Tokenize(stmt)
	return classifyTokens(toks)
}

func classifyTokens(toks []Token) StmtShape {
	i := 0
	for i < len(toks) {
		if toks[i].Kind != Word {
			return Other
		}
		switch toks[i].Lower() {
		case "select":
			return Select
		case "insert":
			return Insert
		case "update":
			return Update
		case "delete":
			return Delete
		case "with":
			i = skipCTEList(toks, i+1)
			continue
		default:
			return Other
		}
	}
	return Other
}

// skipCTEList advances past "[RECURSIVE] name [(cols)] AS ( ... ) , ..." to
// the index of the keyword that follows the CTE list.
func skipCTEList(toks []Token, i int) int {
	if i < len(toks) && toks[i].Kind == Word && toks[i].Lower() == "recursive" {
		i++
	}
	for i < len(toks) {
		// name
		if i < len(toks) && (toks[i].Kind == Word || toks[i].Kind == QuotedIdent) {
			i++
		}
		// optional (col, col, ...)
		if i < len(toks) && toks[i].Kind == Punct && toks[i].Text == "(" {
			i = skipParens(toks, i)
		}
		// AS
		if i < len(toks) && toks[i].Kind == Word && toks[i].Lower() == "as" {
			i++
		}
		if i < len(toks) && toks[i].Kind == Punct && toks[i].Text == "(" {
			i = skipParens(toks, i)
		}
		if i < len(toks) && toks[i].Kind == Punct && toks[i].Text == "," {
			i++
			continue
		}
		break
	}
	return i
}

// skipParens expects toks[i] to be "(" and returns the index just past the
// matching ")".
func skipParens(toks []Token, i int) int {
	depth := 0
	for ; i < len(toks); i++ {
		if toks[i].Kind == Punct && toks[i].Text == "(" {
			depth++
		} else if toks[i].Kind == Punct && toks[i].Text == ")" {
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return i
}

// NameRef is a (possibly dotted) identifier reference, e.g. main.state or
// lix_internal_state_vtable, optionally followed by call-style arguments
// (table-valued function) which this package never rewrites.
type NameRef struct {
	Parts   []string // raw (case-preserving) segments
	Last    string    // last segment, for case-insensitive target matching
	HasArgs bool
	Start   int // byte offset of first segment token
	End     int // byte offset just past the name (before any "(args)")
	ArgsEnd int // byte offset just past "(args)" when HasArgs
}

// ReadNameRef attempts to read a dotted name starting at toks[i]. ok is
// false if toks[i] is not an identifier-shaped token.
func ReadNameRef(toks []Token, i int) (ref NameRef, next int, ok bool) {
	if i >= len(toks) || (toks[i].Kind != Word && toks[i].Kind != QuotedIdent) {
		return NameRef{}, i, false
	}
	ref.Start = toks[i].Start
	ref.Parts = append(ref.Parts, toks[i].Value)
	end := toks[i].End
	j := i + 1
	for j+1 < len(toks) && toks[j].Kind == Punct && toks[j].Text == "." &&
		(toks[j+1].Kind == Word || toks[j+1].Kind == QuotedIdent) {
		ref.Parts = append(ref.Parts, toks[j+1].Value)
		end = toks[j+1].End
		j += 2
	}
	ref.Last = ref.Parts[len(ref.Parts)-1]
	ref.End = end
	next = j
	if j < len(toks) && toks[j].Kind == Punct && toks[j].Text == "(" {
		argsEnd := skipParens(toks, j)
		ref.HasArgs = true
		ref.ArgsEnd = toks[argsEnd-1].End
		next = argsEnd
	}
	return ref, next, true
}

// TokenAt returns the index of the first token whose Start == offset, or -1.
func TokenAt(toks []Token, offset int) int {
	for idx, t := range toks {
		if t.Start == offset {
			return idx
		}
	}
	return -1
}
