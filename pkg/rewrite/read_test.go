package rewrite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteVtableReads_S5(t *testing.T) {
	sql := "select entity_id from lix_internal_state_vtable where schema_key = 'lix_active_version'"
	got := strings.ToLower(RewriteVtableReads(sql))

	assert.Contains(t, got, "from (select")
	assert.Contains(t, got, "from lix_internal_state_all_untracked")
	assert.Contains(t, got, "as lix_internal_state_vtable")
}

func TestRewriteVtableReads_PreservesAlias(t *testing.T) {
	sql := "select v.entity_id from lix_internal_state_vtable v where v.schema_key = 'k'"
	got := RewriteVtableReads(sql)
	assert.Contains(t, got, ") AS v")
	assert.Contains(t, got, "v.entity_id")
}

func TestRewriteVtableReads_UnchangedWhenNoMatch(t *testing.T) {
	sql := "select * from state where entity_id = 'x'"
	assert.Equal(t, sql, RewriteVtableReads(sql))
}

func TestRewriteVtableReads_SkipsTableFunction(t *testing.T) {
	sql := "select * from lix_internal_state_vtable(1, 2)"
	assert.Equal(t, sql, RewriteVtableReads(sql))
}

func TestRewriteVtableReads_DescendsIntoCTEAndUnion(t *testing.T) {
	sql := `with c as (select * from lix_internal_state_vtable) ` +
		`select * from c union select * from lix_internal_state_vtable`
	got := strings.ToLower(RewriteVtableReads(sql))
	assert.Equal(t, 2, strings.Count(got, "lix_internal_state_all_untracked"))
}
