package validate

import (
	"strings"

	"lixengine/pkg/engine"
	"lixengine/pkg/lixsql"
	"lixengine/pkg/rewrite"
)

// ExtractMutationRows walks every statement of a Validation-kind script,
// verifies each one is a mutation targeting a state table, and materializes
// one MutationValidationRow per VALUES row of every state INSERT. UPDATE
// and DELETE statements pass through with nothing to extract; their
// placeholders still advance the shared parameter cursor so a later INSERT
// in the same script binds the right params.
func ExtractMutationRows(sql string, params []any) ([]engine.MutationValidationRow, *engine.EngineError) {
	stmts := lixsql.SplitStatements(sql)
	if len(stmts) == 0 {
		return nil, engine.NewEngineError(engine.CodeRewriteValidation, "validation SQL has no statements")
	}

	cursor := &Cursor{Params: params}
	var rows []engine.MutationValidationRow

	for _, stmt := range stmts {
		shape := lixsql.ClassifyStatement(stmt.Text)
		toks := lixsql.Tokenize(stmt.Text)

		switch shape {
		case lixsql.Insert, lixsql.Update, lixsql.Delete:
		default:
			return nil, engine.NewEngineError(engine.CodeRewriteValidation, "validation statement is not an INSERT, UPDATE or DELETE")
		}

		if mutationTarget(toks, shape) == engine.TargetOther {
			return nil, engine.NewEngineError(engine.CodeRewriteValidation, "validation statement does not target a state table")
		}

		if shape != lixsql.Insert {
			if err := advancePlaceholders(toks, cursor); err != nil {
				return nil, err
			}
			continue
		}

		stmtRows, err := extractInsertRows(stmt.Text, cursor)
		if err != nil {
			return nil, err
		}
		rows = append(rows, stmtRows...)
	}

	return rows, nil
}

// extractInsertRows decodes schema_key/schema_version/snapshot_content from
// each VALUES row of one state INSERT. Columns other than the three the
// validator cares about are skipped, but their placeholders still consume
// params so the cursor stays aligned with the statement's source order.
func extractInsertRows(sql string, cursor *Cursor) ([]engine.MutationValidationRow, *engine.EngineError) {
	_, columns, rowSpans, ok := rewrite.ParseInsertShape(sql)
	if !ok {
		// Non-VALUES INSERT (e.g. INSERT ... SELECT): nothing to extract.
		return nil, advancePlaceholders(lixsql.Tokenize(sql), cursor)
	}

	lowered := make([]string, len(columns))
	for i, c := range columns {
		lowered[i] = strings.ToLower(c)
	}
	schemaKeyIdx := indexOf(lowered, "schema_key")
	schemaVersionIdx := indexOf(lowered, "schema_version")
	snapshotIdx := indexOf(lowered, "snapshot_content")
	if schemaKeyIdx < 0 || schemaVersionIdx < 0 || snapshotIdx < 0 {
		return nil, engine.NewEngineError(engine.CodeRewriteValidation, "state mutation is missing schema_key, schema_version or snapshot_content")
	}

	rows := make([]engine.MutationValidationRow, 0, len(rowSpans))
	for _, span := range rowSpans {
		rowToks := lixsql.Tokenize(sql[span[0]:span[1]])
		var row engine.MutationValidationRow
		col := 0
		i := 1 // skip opening "("
		for i < len(rowToks) {
			if rowToks[i].Kind == lixsql.Punct && rowToks[i].Text == ")" && i == len(rowToks)-1 {
				break
			}
			if col >= len(columns) {
				return nil, engine.NewEngineError(engine.CodeProtocolMismatch, "INSERT value tuple arity does not match column count")
			}
			switch col {
			case schemaKeyIdx, schemaVersionIdx:
				v, next, err := EvalExpr(rowToks, i, cursor, false)
				if err != nil {
					return nil, err
				}
				s, isStr := v.(string)
				if !isStr {
					return nil, engine.NewEngineError(engine.CodeRewriteValidation, "schema_key and schema_version must resolve to strings")
				}
				if col == schemaKeyIdx {
					row.SchemaKey = s
				} else {
					row.SchemaVersion = s
				}
				i = next
			case snapshotIdx:
				v, next, err := EvalExpr(rowToks, i, cursor, true)
				if err != nil {
					return nil, err
				}
				row.SnapshotContent = v
				i = next
			default:
				next, err := skipExpr(rowToks, i, cursor)
				if err != nil {
					return nil, err
				}
				i = next
			}
			col++
			if i < len(rowToks) && rowToks[i].Kind == lixsql.Punct && rowToks[i].Text == "," {
				i++
			}
		}
		if col != len(columns) {
			return nil, engine.NewEngineError(engine.CodeProtocolMismatch, "INSERT value tuple arity does not match column count")
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// skipExpr advances past one value expression without evaluating it,
// consuming a param for every placeholder it contains. It stops at the
// top-level comma or closing paren that ends the expression.
func skipExpr(toks []lixsql.Token, i int, cursor *Cursor) (int, *engine.EngineError) {
	depth := 0
	for ; i < len(toks); i++ {
		t := toks[i]
		if t.Kind == lixsql.Punct {
			switch t.Text {
			case "(":
				depth++
			case ")":
				if depth == 0 {
					return i, nil
				}
				depth--
			case ",":
				if depth == 0 {
					return i, nil
				}
			}
			continue
		}
		if t.Kind == lixsql.Placeholder {
			if _, err := cursor.next(); err != nil {
				return i, err
			}
		}
	}
	return i, nil
}

// advancePlaceholders consumes one param per placeholder in toks.
func advancePlaceholders(toks []lixsql.Token, cursor *Cursor) *engine.EngineError {
	for _, t := range toks {
		if t.Kind == lixsql.Placeholder {
			if _, err := cursor.next(); err != nil {
				return err
			}
		}
	}
	return nil
}

// mutationTarget resolves the write target of a single mutation statement,
// skipping any leading WITH clause to find the statement keyword.
func mutationTarget(toks []lixsql.Token, shape lixsql.StmtShape) engine.WriteTarget {
	var kw string
	switch shape {
	case lixsql.Insert:
		kw = "insert"
	case lixsql.Update:
		kw = "update"
	case lixsql.Delete:
		kw = "delete"
	default:
		return engine.TargetOther
	}

	depth := 0
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Kind == lixsql.Punct {
			if t.Text == "(" {
				depth++
			} else if t.Text == ")" {
				depth--
			}
			continue
		}
		if depth != 0 || t.Kind != lixsql.Word || t.Lower() != kw {
			continue
		}
		j := i + 1
		if j < len(toks) && toks[j].Kind == lixsql.Word {
			switch {
			case shape == lixsql.Insert && toks[j].Lower() == "into":
				j++
			case shape == lixsql.Delete && toks[j].Lower() == "from":
				j++
			}
		}
		ref, _, ok := lixsql.ReadNameRef(toks, j)
		if !ok {
			return engine.TargetOther
		}
		return rewrite.ClassifyWriteTarget(ref.Last)
	}
	return engine.TargetOther
}

func indexOf(haystack []string, needle string) int {
	for i, h := range haystack {
		if h == needle {
			return i
		}
	}
	return -1
}
