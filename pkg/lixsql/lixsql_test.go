package lixsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeBasic(t *testing.T) {
	toks := Tokenize(`SELECT a, "b" FROM t WHERE x = ? -- trailing comment
`)
	require.NotEmpty(t, toks)
	assert.Equal(t, Word, toks[0].Kind)
	assert.Equal(t, "SELECT", toks[0].Text)

	var sawPlaceholder, sawQuoted bool
	for _, tok := range toks {
		if tok.Kind == Placeholder {
			sawPlaceholder = true
		}
		if tok.Kind == QuotedIdent && tok.Value == "b" {
			sawQuoted = true
		}
	}
	assert.True(t, sawPlaceholder)
	assert.True(t, sawQuoted)
}

func TestTokenizeStringEscapes(t *testing.T) {
	toks := Tokenize(`SELECT 'it''s here'`)
	var found bool
	for _, tok := range toks {
		if tok.Kind == String {
			assert.Equal(t, "it's here", tok.Value)
			found = true
		}
	}
	assert.True(t, found)
}

func TestTokenizeQuotedIdentEscape(t *testing.T) {
	toks := Tokenize(`SELECT "a""b" FROM t`)
	var found bool
	for _, tok := range toks {
		if tok.Kind == QuotedIdent {
			assert.Equal(t, `a"b`, tok.Value)
			found = true
		}
	}
	assert.True(t, found)
}

func TestSplitStatements(t *testing.T) {
	stmts := SplitStatements("select 1; update t set a = 1 where b = ';'; ")
	require.Len(t, stmts, 2)
	assert.Equal(t, "select 1", stmts[0].Text)
	assert.Contains(t, stmts[1].Text, "update t")
}

func TestClassifyStatement(t *testing.T) {
	cases := map[string]StmtShape{
		"select 1":                               Select,
		"insert into t (a) values (1)":            Insert,
		"update t set a = 1":                      Update,
		"delete from t":                           Delete,
		"with c as (select 1) select * from c":    Select,
		"with c as (select 1) insert into t values (1)": Insert,
		"pragma foreign_keys = on":                Other,
		"create table t (a int)":                  Other,
	}
	for sql, want := range cases {
		assert.Equal(t, want, ClassifyStatement(sql), sql)
	}
}

func TestReadNameRef(t *testing.T) {
	toks := Tokenize(`FROM main.lix_internal_state_vtable AS v`)
	idx := TokenAt(toks, 5) // "main"
	require.GreaterOrEqual(t, idx, 0)
	ref, next, ok := ReadNameRef(toks, idx)
	require.True(t, ok)
	assert.Equal(t, "lix_internal_state_vtable", ref.Last)
	assert.Equal(t, []string{"main", "lix_internal_state_vtable"}, ref.Parts)
	assert.False(t, ref.HasArgs)
	assert.Less(t, next, len(toks))
}
