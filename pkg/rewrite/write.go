package rewrite

import (
	"strings"

	"lixengine/pkg/engine"
	"lixengine/pkg/lixsql"
)

// CanonicalColumns is the column order assumed when an INSERT omits an
// explicit column list.
var CanonicalColumns = []string{
	"entity_id", "schema_key", "file_id", "plugin_key",
	"snapshot_content", "schema_version", "metadata", "untracked",
	"version_id",
}

const physicalByVersion = "state_by_version"

// ClassifyWriteTarget resolves the internal WriteTarget for a (possibly
// dotted) table reference's last segment, matched case-insensitively.
func ClassifyWriteTarget(last string) engine.WriteTarget {
	switch strings.ToLower(last) {
	case "state":
		return engine.TargetState
	case "state_all":
		return engine.TargetStateAll
	case "state_by_version":
		return engine.TargetStateByVersion
	case vtableName:
		return engine.TargetStateVtable
	default:
		return engine.TargetOther
	}
}

func physicalName(target engine.WriteTarget) string {
	switch target {
	case engine.TargetState, engine.TargetStateAll, engine.TargetStateByVersion:
		return physicalByVersion
	case engine.TargetStateVtable:
		return vtableName
	default:
		return ""
	}
}

// quoteIdent doubles embedded double quotes per the reserved __lix_mutation_rows
// quoting convention.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// RewriteWriteStatement applies the INSERT/UPDATE/DELETE mutation rewrite to
// a single statement (no trailing ';'). ok is false when the statement's
// target isn't one of state/state_all/state_by_version/
// lix_internal_state_vtable, in which case sql is returned unchanged.
func RewriteWriteStatement(sql string) (rewritten string, ok bool, rewriteErr *engine.EngineError) {
	toks := lixsql.Tokenize(sql)
	if len(toks) == 0 || toks[0].Kind != lixsql.Word {
		return sql, false, nil
	}

	switch toks[0].Lower() {
	case "insert":
		return rewriteInsert(sql, toks)
	case "update":
		return rewriteUpdate(sql, toks)
	case "delete":
		return rewriteDelete(sql, toks)
	default:
		return sql, false, nil
	}
}

// refuse rejects a state-targeted mutation whose shape the rewriter does
// not support. These surface as LIX_RUST_UNSUPPORTED_SQLITE_FEATURE rather
// than passing the statement through unrewritten, so an unsupported shape
// can never reach the logical view unmediated.
func refuse(msg string) (string, bool, *engine.EngineError) {
	return "", false, engine.NewEngineError(engine.CodeUnsupportedFeature, msg)
}

// --- INSERT ---

func rewriteInsert(sql string, toks []lixsql.Token) (string, bool, *engine.EngineError) {
	i := 1
	if i < len(toks) && toks[i].Kind == lixsql.Word && toks[i].Lower() == "into" {
		i++
	}
	ref, next, ok := lixsql.ReadNameRef(toks, i)
	if !ok {
		return sql, false, nil
	}
	target := ClassifyWriteTarget(ref.Last)
	if target == engine.TargetOther {
		return sql, false, nil
	}
	i = next
	// ReadNameRef takes a parenthesized list right after the name as call
	// arguments; after INSERT INTO <name> it is the column list, so resume
	// at its opening "(".
	if ref.HasArgs {
		i = 0
		for toks[i].End <= ref.End {
			i++
		}
	}

	// optional alias before the column list/VALUES is a refusal condition.
	if i < len(toks) && toks[i].Kind == lixsql.Word && !reservedAfterTable[toks[i].Lower()] && toks[i].Lower() != "values" {
		return refuse("aliased INSERT target cannot be rewritten")
	}

	if i >= len(toks) || toks[i].Kind != lixsql.Punct || toks[i].Text != "(" {
		return refuse("INSERT without a column list cannot be rewritten")
	}
	columns, end := ReadColumnList(toks, i)
	i = end

	if i >= len(toks) || toks[i].Kind != lixsql.Word || toks[i].Lower() != "values" {
		return refuse("only VALUES-form INSERT can be rewritten")
	}
	i++

	var rows [][2]int
	for i < len(toks) && toks[i].Kind == lixsql.Punct && toks[i].Text == "(" {
		start := toks[i].Start
		arity, endIdx := countTupleArity(toks, i)
		end := toks[endIdx-1].End
		if arity != len(columns) {
			return "", false, engine.NewEngineError(engine.CodeProtocolMismatch, "INSERT value tuple arity does not match column count")
		}
		rows = append(rows, [2]int{start, end})
		i = endIdx
		if i < len(toks) && toks[i].Kind == lixsql.Punct && toks[i].Text == "," {
			i++
			continue
		}
		break
	}
	if len(rows) == 0 {
		return refuse("INSERT has no VALUES rows to rewrite")
	}

	rest := strings.TrimSpace(sqlFrom(sql, toks, i))
	lowerRest := strings.ToLower(rest)
	if strings.Contains(lowerRest, "on conflict") || strings.Contains(lowerRest, "returning") {
		return refuse("ON CONFLICT/RETURNING INSERT cannot be rewritten")
	}

	autoVersion := target == engine.TargetState && !containsFold(columns, "version_id")
	if autoVersion {
		columns = append(columns, "version_id")
	}

	quoted := make([]string, len(columns))
	for idx, c := range columns {
		quoted[idx] = quoteIdent(c)
	}
	colList := strings.Join(quoted, ", ")

	rowTexts := make([]string, len(rows))
	for idx, r := range rows {
		text := sql[r[0]:r[1]]
		if autoVersion {
			text = text[:len(text)-1] + ", (SELECT version_id FROM active_version))"
		}
		rowTexts[idx] = text
	}

	var b strings.Builder
	b.WriteString(`WITH "__lix_mutation_rows" (`)
	b.WriteString(colList)
	b.WriteString(") AS (VALUES ")
	b.WriteString(strings.Join(rowTexts, ", "))
	b.WriteString(")\nINSERT INTO ")
	b.WriteString(physicalName(target))
	b.WriteString(" (")
	b.WriteString(colList)
	b.WriteString(")\nSELECT ")
	b.WriteString(colList)
	b.WriteString(` FROM "__lix_mutation_rows"`)

	return b.String(), true, nil
}

// ParseInsertShape extracts the write target, column list (declared or
// canonical), and per-row byte spans from an INSERT ... VALUES (...), (...)
// statement, without applying any rewrite. Used by pkg/validate to walk the
// same column/row structure the rewriter does. ok is false when sql isn't a
// VALUES-form INSERT.
func ParseInsertShape(sql string) (target engine.WriteTarget, columns []string, rowSpans [][2]int, ok bool) {
	toks := lixsql.Tokenize(sql)
	if len(toks) == 0 || toks[0].Kind != lixsql.Word || toks[0].Lower() != "insert" {
		return engine.TargetOther, nil, nil, false
	}
	i := 1
	if i < len(toks) && toks[i].Kind == lixsql.Word && toks[i].Lower() == "into" {
		i++
	}
	ref, next, rok := lixsql.ReadNameRef(toks, i)
	if !rok {
		return engine.TargetOther, nil, nil, false
	}
	target = ClassifyWriteTarget(ref.Last)
	i = next
	// As in rewriteInsert: a list read as call arguments is the column list.
	if ref.HasArgs {
		i = 0
		for toks[i].End <= ref.End {
			i++
		}
	}

	if i < len(toks) && toks[i].Kind == lixsql.Punct && toks[i].Text == "(" {
		cols, end := ReadColumnList(toks, i)
		columns = cols
		i = end
	} else {
		columns = append([]string{}, CanonicalColumns...)
	}

	if i >= len(toks) || toks[i].Kind != lixsql.Word || toks[i].Lower() != "values" {
		return target, columns, nil, false
	}
	i++

	for i < len(toks) && toks[i].Kind == lixsql.Punct && toks[i].Text == "(" {
		start := toks[i].Start
		_, endIdx := CountTupleArity(toks, i)
		end := toks[endIdx-1].End
		rowSpans = append(rowSpans, [2]int{start, end})
		i = endIdx
		if i < len(toks) && toks[i].Kind == lixsql.Punct && toks[i].Text == "," {
			i++
			continue
		}
		break
	}
	return target, columns, rowSpans, len(rowSpans) > 0
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}

// ReadColumnList reads a "(col1, col2, ...)" list starting at toks[i] (a
// "(") and returns the raw column names plus the index just past the
// matching ")".
func ReadColumnList(toks []lixsql.Token, i int) ([]string, int) {
	end := lixsqlSkipParens(toks, i)
	var cols []string
	for j := i + 1; j < end-1; j++ {
		if toks[j].Kind == lixsql.Word || toks[j].Kind == lixsql.QuotedIdent {
			cols = append(cols, toks[j].Value)
		}
	}
	return cols, end
}

// CountTupleArity counts top-level comma-separated expressions inside the
// parenthesized tuple starting at toks[i] (a "(") and returns the arity and
// the index just past the matching ")".
func CountTupleArity(toks []lixsql.Token, i int) (int, int) {
	return countTupleArity(toks, i)
}

func countTupleArity(toks []lixsql.Token, i int) (int, int) {
	depth := 0
	arity := 0
	sawAny := false
	j := i
	for ; j < len(toks); j++ {
		if toks[j].Kind == lixsql.Punct && toks[j].Text == "(" {
			depth++
			if depth == 1 {
				continue
			}
		}
		if toks[j].Kind == lixsql.Punct && toks[j].Text == ")" {
			depth--
			if depth == 0 {
				j++
				break
			}
			continue
		}
		if depth == 1 {
			sawAny = true
			if toks[j].Kind == lixsql.Punct && toks[j].Text == "," {
				arity++
			}
		}
	}
	if sawAny {
		arity++
	}
	return arity, j
}

func lixsqlSkipParens(toks []lixsql.Token, i int) int {
	depth := 0
	for ; i < len(toks); i++ {
		if toks[i].Kind == lixsql.Punct && toks[i].Text == "(" {
			depth++
		} else if toks[i].Kind == lixsql.Punct && toks[i].Text == ")" {
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return i
}

func sqlFrom(sql string, toks []lixsql.Token, i int) string {
	if i >= len(toks) {
		return ""
	}
	return sql[toks[i].Start:]
}

// --- UPDATE / DELETE ---

func rewriteUpdate(sql string, toks []lixsql.Token) (string, bool, *engine.EngineError) {
	i := 1
	ref, next, ok := lixsql.ReadNameRef(toks, i)
	if !ok {
		return sql, false, nil
	}
	target := ClassifyWriteTarget(ref.Last)
	if target == engine.TargetOther {
		return sql, false, nil
	}
	if ref.HasArgs {
		return refuse("table-valued-function target cannot be rewritten")
	}
	i = next

	// Anything between the target name and SET is an alias or a join,
	// both of which the rewriter does not support.
	if i >= len(toks) || toks[i].Kind != lixsql.Word || toks[i].Lower() != "set" {
		return refuse("aliased or joined UPDATE target cannot be rewritten")
	}
	setIdx := i
	whereIdx := findTopLevelKeyword(toks, setIdx+1, "where")
	if findTopLevelKeyword(toks, setIdx+1, "from") >= 0 {
		return refuse("UPDATE ... FROM cannot be rewritten")
	}
	if findTopLevelKeyword(toks, setIdx+1, "returning") >= 0 {
		return refuse("UPDATE ... RETURNING cannot be rewritten")
	}

	setEnd := len(toks)
	if whereIdx >= 0 {
		setEnd = whereIdx
	}
	setClause := strings.TrimSpace(spanText(sql, toks, setIdx+1, setEnd))

	var predicate string
	if whereIdx >= 0 {
		predicate = strings.TrimSpace(spanText(sql, toks, whereIdx+1, len(toks)))
	}

	physical := physicalName(target)
	selectPred := predicate
	if target == engine.TargetState {
		if selectPred == "" {
			selectPred = "version_id IN (SELECT version_id FROM active_version)"
		} else {
			selectPred = "(" + selectPred + ") AND (version_id IN (SELECT version_id FROM active_version))"
		}
	}

	var b strings.Builder
	b.WriteString(`WITH "__lix_mutation_rows" AS (`)
	b.WriteString("SELECT entity_id, schema_key, file_id, version_id FROM ")
	b.WriteString(physical)
	if selectPred != "" {
		b.WriteString(" WHERE ")
		b.WriteString(selectPred)
	}
	b.WriteString(" ORDER BY entity_id, schema_key, file_id, version_id)\n")
	b.WriteString("UPDATE ")
	b.WriteString(physical)
	b.WriteString(" SET ")
	b.WriteString(setClause)
	b.WriteString(` WHERE (entity_id, schema_key, file_id, version_id) IN (SELECT entity_id, schema_key, file_id, version_id FROM "__lix_mutation_rows")`)

	return b.String(), true, nil
}

func rewriteDelete(sql string, toks []lixsql.Token) (string, bool, *engine.EngineError) {
	i := 1
	if i < len(toks) && toks[i].Kind == lixsql.Word && toks[i].Lower() == "from" {
		i++
	}
	ref, next, ok := lixsql.ReadNameRef(toks, i)
	if !ok {
		return sql, false, nil
	}
	target := ClassifyWriteTarget(ref.Last)
	if target == engine.TargetOther {
		return sql, false, nil
	}
	if ref.HasArgs {
		return refuse("table-valued-function target cannot be rewritten")
	}
	i = next

	// After the target only WHERE (or end of statement) is supported; an
	// alias, USING clause, join, ORDER BY or LIMIT is a refusal.
	if i < len(toks) && !(toks[i].Kind == lixsql.Word && toks[i].Lower() == "where") {
		return refuse("DELETE with alias, USING, join, ORDER BY or LIMIT cannot be rewritten")
	}
	for _, kw := range []string{"using", "returning", "order", "limit", "join"} {
		if findTopLevelKeyword(toks, i, kw) >= 0 {
			return refuse("DELETE with alias, USING, join, ORDER BY or LIMIT cannot be rewritten")
		}
	}

	whereIdx := findTopLevelKeyword(toks, i, "where")
	var predicate string
	if whereIdx >= 0 {
		predicate = strings.TrimSpace(spanText(sql, toks, whereIdx+1, len(toks)))
	}

	physical := physicalName(target)
	selectPred := predicate
	if target == engine.TargetState {
		if selectPred == "" {
			selectPred = "version_id IN (SELECT version_id FROM active_version)"
		} else {
			selectPred = "(" + selectPred + ") AND (version_id IN (SELECT version_id FROM active_version))"
		}
	}

	var b strings.Builder
	b.WriteString(`WITH "__lix_mutation_rows" AS (`)
	b.WriteString("SELECT entity_id, schema_key, file_id, version_id FROM ")
	b.WriteString(physical)
	if selectPred != "" {
		b.WriteString(" WHERE ")
		b.WriteString(selectPred)
	}
	b.WriteString(" ORDER BY entity_id, schema_key, file_id, version_id)\n")
	b.WriteString("DELETE FROM ")
	b.WriteString(physical)
	b.WriteString(` WHERE (entity_id, schema_key, file_id, version_id) IN (SELECT entity_id, schema_key, file_id, version_id FROM "__lix_mutation_rows")`)

	return b.String(), true, nil
}

// findTopLevelKeyword finds kw outside any parenthesis nesting.
func findTopLevelKeyword(toks []lixsql.Token, from int, kw string) int {
	depth := 0
	for i := from; i < len(toks); i++ {
		if toks[i].Kind == lixsql.Punct && toks[i].Text == "(" {
			depth++
		} else if toks[i].Kind == lixsql.Punct && toks[i].Text == ")" {
			depth--
		} else if depth == 0 && toks[i].Kind == lixsql.Word && toks[i].Lower() == kw {
			return i
		}
	}
	return -1
}

func spanText(sql string, toks []lixsql.Token, from, to int) string {
	if from >= to || from >= len(toks) {
		return ""
	}
	end := len(sql)
	if to < len(toks) {
		end = toks[to].Start
	}
	return sql[toks[from].Start:end]
}
