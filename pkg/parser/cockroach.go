package parser

import (
	"fmt"

	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/parser"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
)

// CockroachStatementKind is the coarse statement shape the CockroachDB
// grammar assigns a parsed statement, used only to sanity-check that the
// rewriter produced something shaped like what it claims to have produced
// (a SELECT where a SELECT was expected, and so on).
type CockroachStatementKind int

const (
	CockroachUnknown CockroachStatementKind = iota
	CockroachSelect
	CockroachInsert
	CockroachUpdate
	CockroachDelete
)

// CockroachCheck wraps the cockroachdb-parser grammar (a real Postgres
// dialect parser, not SQLite) for the one job it can safely do against lix
// SQL: confirm a string is syntactically well-formed SQL at all. It does
// not understand `?` placeholders or SQLite's `json(...)` call form, so
// callers must not feed it rewritten statements that still carry either.
type CockroachCheck struct {
	parser parser.Parser
}

func NewCockroachCheck() *CockroachCheck {
	return &CockroachCheck{parser: parser.Parser{}}
}

// CheckWellFormed parses sql under the CockroachDB grammar and reports its
// coarse statement kind. It is used at package init (see init.go) to self
// check rewrite.CanonicalVtableSelect, and is exported so tests covering
// new replacement SQL text can run the same check.
func (c *CockroachCheck) CheckWellFormed(sql string) (CockroachStatementKind, error) {
	stmts, err := c.parser.Parse(sql)
	if err != nil {
		return CockroachUnknown, fmt.Errorf("cockroachdb grammar rejected statement: %w", err)
	}
	if len(stmts) == 0 {
		return CockroachUnknown, fmt.Errorf("cockroachdb grammar found no statements")
	}
	return classifyCockroachStatement(stmts[0].AST), nil
}

func classifyCockroachStatement(stmt tree.Statement) CockroachStatementKind {
	switch stmt.(type) {
	case *tree.Select:
		return CockroachSelect
	case *tree.Insert:
		return CockroachInsert
	case *tree.Update:
		return CockroachUpdate
	case *tree.Delete:
		return CockroachDelete
	default:
		return CockroachUnknown
	}
}
