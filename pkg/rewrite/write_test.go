package rewrite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lixengine/pkg/engine"
)

func TestRewriteWriteStatement_S6_StateInsert(t *testing.T) {
	sql := "insert into state (entity_id, schema_key, file_id, plugin_key, snapshot_content, schema_version, metadata, untracked) " +
		"values ('e','k','f','json', json('{}'), '1', json('{}'), 0)"

	got, ok, err := RewriteWriteStatement(sql)
	require.Nil(t, err)
	require.True(t, ok)

	lower := strings.ToLower(got)
	assert.Contains(t, lower, `with "__lix_mutation_rows"`)
	assert.Contains(t, lower, "insert into state_by_version")
	assert.Contains(t, lower, "select version_id from active_version")
}

func TestRewriteWriteStatement_InsertColumnsMatchTrailingSelect(t *testing.T) {
	sql := "insert into state (entity_id, schema_key) values ('e', 'k')"
	got, ok, err := RewriteWriteStatement(sql)
	require.Nil(t, err)
	require.True(t, ok)

	// declared cols + auto version_id
	assert.Contains(t, got, `"entity_id", "schema_key", "version_id"`)
	idx := strings.LastIndex(got, "SELECT ")
	require.Greater(t, idx, -1)
	assert.Contains(t, got[idx:], `"entity_id", "schema_key", "version_id" FROM "__lix_mutation_rows"`)
}

func TestRewriteWriteStatement_StateAllNoAutoVersion(t *testing.T) {
	sql := "insert into state_all (entity_id, schema_key, version_id) values ('e', 'k', 'v1')"
	got, ok, err := RewriteWriteStatement(sql)
	require.Nil(t, err)
	require.True(t, ok)
	assert.NotContains(t, got, "active_version")
}

func TestRewriteWriteStatement_ArityMismatch(t *testing.T) {
	sql := "insert into state (entity_id, schema_key) values ('e', 'k', 'extra')"
	_, ok, err := RewriteWriteStatement(sql)
	require.False(t, ok)
	require.NotNil(t, err)
	assert.Equal(t, engine.CodeProtocolMismatch, err.Code)
}

func TestRewriteWriteStatement_S7_StateUpdate(t *testing.T) {
	sql := `update state set snapshot_content = json('{"value":2}'), untracked = 1 where schema_key = 'lix_key_value'`
	got, ok, err := RewriteWriteStatement(sql)
	require.Nil(t, err)
	require.True(t, ok)

	assert.Contains(t, got, `(schema_key = 'lix_key_value') AND (version_id IN (SELECT version_id FROM active_version))`)
	assert.Contains(t, got, "ORDER BY entity_id, schema_key, file_id, version_id")
	assert.Contains(t, got, `UPDATE state_by_version SET snapshot_content = json('{"value":2}'), untracked = 1`)
}

func TestRewriteWriteStatement_UpdateRefusesFrom(t *testing.T) {
	sql := "update state set a = 1 from other_table where state.id = other_table.id"
	_, ok, err := RewriteWriteStatement(sql)
	assert.False(t, ok)
	require.NotNil(t, err)
	assert.Equal(t, engine.CodeUnsupportedFeature, err.Code)
}

func TestRewriteWriteStatement_RefusedShapes(t *testing.T) {
	cases := []struct {
		name string
		sql  string
	}{
		{"insert without column list", "insert into state values ('e', 'k', 'f', 'p', '{}', '1', null, 0, 'v1')"},
		{"insert with on conflict", "insert into state (entity_id) values ('e') on conflict do nothing"},
		{"insert with returning", "insert into state (entity_id) values ('e') returning entity_id"},
		{"insert with aliased target", "insert into state as s (entity_id) values ('e')"},
		{"insert from select", "insert into state (entity_id) select entity_id from other"},
		{"update with alias", "update state s set snapshot_content = null"},
		{"update with returning", "update state set untracked = 1 returning entity_id"},
		{"delete with limit", "delete from state order by entity_id limit 5"},
		{"delete with using", "delete from state using other where state.entity_id = other.id"},
		{"delete with alias", "delete from state s where s.entity_id = 'e'"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok, err := RewriteWriteStatement(tc.sql)
			assert.False(t, ok)
			require.NotNil(t, err)
			assert.Equal(t, engine.CodeUnsupportedFeature, err.Code)
		})
	}
}

func TestRewriteWriteStatement_Delete(t *testing.T) {
	sql := "delete from state where entity_id = 'e'"
	got, ok, err := RewriteWriteStatement(sql)
	require.Nil(t, err)
	require.True(t, ok)
	assert.Contains(t, got, "DELETE FROM state_by_version")
	assert.Contains(t, got, "(entity_id = 'e') AND (version_id IN (SELECT version_id FROM active_version))")
}

func TestRewriteWriteStatement_OtherTargetUntouched(t *testing.T) {
	sql := "insert into lix_file (id, data) values ('a', 'b')"
	got, ok, err := RewriteWriteStatement(sql)
	assert.Nil(t, err)
	assert.False(t, ok)
	assert.Equal(t, sql, got)
}
