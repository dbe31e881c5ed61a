package lixengine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteStatementKind_Scenarios(t *testing.T) {
	assert.Equal(t, ReadRewrite, RouteStatementKind("select 1"))
	assert.Equal(t, WriteRewrite, RouteStatementKind("insert into file (id) values ('x')"))
	assert.Equal(t, Validation, RouteStatementKind("insert into state (entity_id) values ('e')"))
	assert.Equal(t, Passthrough, RouteStatementKind("pragma user_version"))
}

func TestPlanExecute_PassthroughShape(t *testing.T) {
	plan := PlanExecute("pragma user_version")
	assert.Equal(t, ExecutePlan{
		StatementKind:    Passthrough,
		PreprocessMode:   "none",
		RowsAffectedMode: "rows_length",
	}, plan)
}

func TestRewriteSQLForExecution_PassthroughIdentity(t *testing.T) {
	sql := "pragma user_version"
	got, err := RewriteSQLForExecution(sql, Passthrough)
	require.Nil(t, err)
	assert.Equal(t, sql, got)
}

type stubHost struct{}

func (stubHost) Execute(ctx context.Context, req HostExecuteRequest) (HostExecuteResponse, error) {
	return HostExecuteResponse{Rows: []any{1, 2, 3}}, nil
}

func (stubHost) DetectChanges(ctx context.Context, req HostDetectChangesRequest) (HostDetectChangesResponse, error) {
	return HostDetectChangesResponse{}, nil
}

func TestExecuteWithHost_EndToEndRead(t *testing.T) {
	result, err := ExecuteWithHost(context.Background(), stubHost{}, ExecuteRequest{
		RequestID: "req-1",
		SQL:       "select * from lix_internal_state_vtable",
	})
	require.Nil(t, err)
	assert.Equal(t, ReadRewrite, result.StatementKind)
	assert.EqualValues(t, 3, result.RowsAffected)
}

type failingHost struct{}

func (failingHost) Execute(ctx context.Context, req HostExecuteRequest) (HostExecuteResponse, error) {
	return HostExecuteResponse{}, errors.New("boom")
}

func (failingHost) DetectChanges(ctx context.Context, req HostDetectChangesRequest) (HostDetectChangesResponse, error) {
	return HostDetectChangesResponse{}, nil
}

func TestExecuteWithHost_MapsUnclassifiedErrors(t *testing.T) {
	_, err := ExecuteWithHost(context.Background(), failingHost{}, ExecuteRequest{SQL: "select 1"})
	require.NotNil(t, err)
	assert.Equal(t, CodeSQLiteExecution, err.Code)
}
