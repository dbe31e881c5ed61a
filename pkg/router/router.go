// Package router classifies incoming SQL statements and plans how the
// orchestrator must handle them. Classification works off the pkg/lixsql
// statement scanner rather than a third-party AST, since neither vendored
// grammar parses the lix SQLite dialect natively.
package router

import (
	"strings"

	"lixengine/pkg/engine"
	"lixengine/pkg/lixsql"
)

// mutationStatePatterns are checked against the lowercased raw SQL text to
// decide whether a write statement must be promoted to Validation. Because
// these are Contains checks, "insert into state" already matches the
// "insert into state_all" case as a byte-prefix, so the state_all variants
// need no separate entry.
var mutationStatePatterns = []string{
	"insert into state",
	"update state",
	"delete from state",
}

// RouteStatementKind classifies sql per the router algorithm: parse under
// the lix dialect, fall back to Passthrough on empty/unparseable input or
// any non-DML statement, and otherwise resolve to Validation/WriteRewrite/
// ReadRewrite/Passthrough based on the statement shapes observed.
func RouteStatementKind(sql string) engine.StatementKind {
	stmts := lixsql.SplitStatements(sql)
	if len(stmts) == 0 {
		return engine.Passthrough
	}

	sawRead, sawWrite := false, false
	for _, stmt := range stmts {
		switch lixsql.ClassifyStatement(stmt.Text) {
		case lixsql.Select:
			sawRead = true
		case lixsql.Insert, lixsql.Update, lixsql.Delete:
			sawWrite = true
		default:
			return engine.Passthrough
		}
	}

	if sawWrite {
		lower := strings.ToLower(sql)
		for _, pat := range mutationStatePatterns {
			if strings.Contains(lower, pat) {
				return engine.Validation
			}
		}
		return engine.WriteRewrite
	}
	if sawRead {
		return engine.ReadRewrite
	}
	return engine.Passthrough
}

// PlanExecute derives the ExecutePlan for sql: preprocessing is skipped only
// for Passthrough, and rows-affected is reported by length of the result
// set for read/passthrough statements and by the host-reported change count
// otherwise.
func PlanExecute(sql string) engine.ExecutePlan {
	kind := RouteStatementKind(sql)

	preprocess := engine.PreprocessFull
	if kind == engine.Passthrough {
		preprocess = engine.PreprocessNone
	}

	rowsMode := engine.HostReported
	if kind == engine.ReadRewrite || kind == engine.Passthrough {
		rowsMode = engine.RowsLength
	}

	return engine.ExecutePlan{
		StatementKind:    kind,
		PreprocessMode:   preprocess,
		RowsAffectedMode: rowsMode,
	}
}
