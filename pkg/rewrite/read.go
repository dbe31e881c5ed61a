// Package rewrite implements the read and write SQL rewriters: splice-based
// transforms over pkg/lixsql tokens that replace exact byte spans rather
// than re-serializing a full AST, so untouched regions of the input stay
// byte-identical.
package rewrite

import (
	"strings"

	"lixengine/pkg/lixsql"
)

// CanonicalVtableSelect is the exact replacement SELECT for every base
// table reference to lix_internal_state_vtable: the untracked view plus
// NULL/constant columns standing in for the tracked-only fields.
const CanonicalVtableSelect = `SELECT entity_id, schema_key, file_id, version_id, plugin_key,
       snapshot_content, schema_version, created_at, updated_at,
       inherited_from_version_id,
       NULL AS change_id, 1 AS untracked, NULL AS commit_id,
       NULL AS writer_key, NULL AS metadata
FROM lix_internal_state_all_untracked`

const vtableName = "lix_internal_state_vtable"

var reservedAfterTable = map[string]bool{
	"where": true, "join": true, "inner": true, "left": true, "right": true,
	"outer": true, "cross": true, "on": true, "group": true, "order": true,
	"limit": true, "union": true, "intersect": true, "except": true,
	"having": true, "window": true, "using": true, "natural": true,
	"full": true, "set": true, "values": true, "into": true, "pivot": true,
	"unpivot": true, "match_recognize": true, "for": true,
}

type splice struct {
	start, end int
	text       string
}

// RewriteVtableReads replaces every base-table reference to
// lix_internal_state_vtable (case-insensitive on the last dotted segment,
// table-valued-function calls excluded) with the canonical subquery. A
// single linear token scan naturally covers CTEs, set operations, joins and
// subqueries, since they are just more tokens in the same stream. Returns
// sql unchanged if nothing matched.
func RewriteVtableReads(sql string) string {
	toks := lixsql.Tokenize(sql)
	var splices []splice

	inFrom := false
	i := 0
	for i < len(toks) {
		tok := toks[i]
		if tok.Kind == lixsql.Word {
			switch tok.Lower() {
			case "from", "join":
				inFrom = true
			case "select", "where", "on", "using", "group", "order",
				"having", "limit", "window", "set", "values":
				inFrom = false
			}
		}
		if tok.Kind != lixsql.Word && tok.Kind != lixsql.QuotedIdent {
			i++
			continue
		}
		// Base-table position only: directly after FROM/JOIN or a comma
		// continuing a FROM list, never in column or expression position.
		if !tablePosition(toks, i, inFrom) {
			i++
			continue
		}
		ref, next, ok := lixsql.ReadNameRef(toks, i)
		if !ok {
			i++
			continue
		}
		if ref.HasArgs || !strings.EqualFold(ref.Last, vtableName) {
			i = next
			continue
		}
		alias, aliasEnd := readAlias(toks, next)
		spliceEnd := ref.End
		if aliasEnd > next {
			spliceEnd = toks[aliasEnd-1].End
		}
		replacement := "(" + CanonicalVtableSelect + ") AS " + alias
		splices = append(splices, splice{ref.Start, spliceEnd, replacement})
		i = aliasEnd
	}

	if len(splices) == 0 {
		return sql
	}
	return applySplices(sql, splices)
}

// tablePosition reports whether the token at i can start a base-table
// reference: the previous token is FROM or JOIN, or a comma while scanning
// a FROM list.
func tablePosition(toks []lixsql.Token, i int, inFrom bool) bool {
	if i == 0 {
		return false
	}
	prev := toks[i-1]
	if prev.Kind == lixsql.Word {
		lower := prev.Lower()
		return lower == "from" || lower == "join"
	}
	return inFrom && prev.Kind == lixsql.Punct && prev.Text == ","
}

// readAlias looks for an alias following a table reference: an explicit
// "AS name" or a bare "name" that isn't a reserved keyword in this
// position. If none is found, the vtable's own name is synthesized as the
// alias so the rewritten subquery stays referenceable under its original
// name.
func readAlias(toks []lixsql.Token, i int) (alias string, end int) {
	if i < len(toks) && toks[i].Kind == lixsql.Word && strings.EqualFold(toks[i].Text, "as") {
		if i+1 < len(toks) && (toks[i+1].Kind == lixsql.Word || toks[i+1].Kind == lixsql.QuotedIdent) {
			return toks[i+1].Text, i + 2
		}
	}
	if i < len(toks) && toks[i].Kind == lixsql.Word && !reservedAfterTable[toks[i].Lower()] {
		return toks[i].Text, i + 1
	}
	if i < len(toks) && toks[i].Kind == lixsql.QuotedIdent {
		return toks[i].Text, i + 1
	}
	return vtableName, i
}

func applySplices(sql string, splices []splice) string {
	var b strings.Builder
	last := 0
	for _, sp := range splices {
		b.WriteString(sql[last:sp.start])
		b.WriteString(sp.text)
		last = sp.end
	}
	b.WriteString(sql[last:])
	return b.String()
}
