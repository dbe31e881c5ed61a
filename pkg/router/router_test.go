package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lixengine/pkg/engine"
)

func TestRouteStatementKind(t *testing.T) {
	cases := []struct {
		name string
		sql  string
		want engine.StatementKind
	}{
		{"plain select", "select 1", engine.ReadRewrite},
		{"select from vtable", "select * from lix_internal_state_vtable", engine.ReadRewrite},
		{"insert into state", "insert into state (entity_id, schema_key, file_id, version_id, plugin_key, snapshot_content, schema_version) values (?, ?, ?, ?, ?, json(?), ?)", engine.Validation},
		{"update state", "update state set snapshot_content = json(?) where entity_id = ?", engine.Validation},
		{"delete from state", "delete from state where entity_id = ?", engine.Validation},
		{"insert into state_all", "insert into state_all (entity_id) values (?)", engine.Validation},
		{"plain insert elsewhere", "insert into lix_file (id, data) values (?, ?)", engine.WriteRewrite},
		{"ddl is passthrough", "create table t (a int)", engine.Passthrough},
		{"pragma is passthrough", "pragma foreign_keys = on", engine.Passthrough},
		{"empty sql", "", engine.Passthrough},
		{"mixed select and ddl", "select 1; create table t (a int)", engine.Passthrough},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RouteStatementKind(tc.sql))
		})
	}
}

func TestPlanExecute(t *testing.T) {
	t.Run("passthrough has no preprocessing and rows by length", func(t *testing.T) {
		plan := PlanExecute("pragma foreign_keys = on")
		assert.Equal(t, engine.Passthrough, plan.StatementKind)
		assert.Equal(t, engine.PreprocessNone, plan.PreprocessMode)
		assert.Equal(t, engine.RowsLength, plan.RowsAffectedMode)
	})

	t.Run("read rewrite preprocesses and reports rows by length", func(t *testing.T) {
		plan := PlanExecute("select * from lix_internal_state_vtable")
		assert.Equal(t, engine.ReadRewrite, plan.StatementKind)
		assert.Equal(t, engine.PreprocessFull, plan.PreprocessMode)
		assert.Equal(t, engine.RowsLength, plan.RowsAffectedMode)
	})

	t.Run("validation preprocesses and reports host-reported rows", func(t *testing.T) {
		plan := PlanExecute("insert into state (entity_id) values (?)")
		assert.Equal(t, engine.Validation, plan.StatementKind)
		assert.Equal(t, engine.PreprocessFull, plan.PreprocessMode)
		assert.Equal(t, engine.HostReported, plan.RowsAffectedMode)
	})
}
