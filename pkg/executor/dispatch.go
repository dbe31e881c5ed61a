// Package executor is the executor dispatch and change-detection
// orchestrator: it ties router, rewrite and validate together around a
// host-supplied engine.HostCallbacks implementation and exposes
// ExecuteWithHost, the single public entry point a transport calls per
// incoming request. The engine never opens a database connection of its
// own; every statement execution goes through the host.
package executor

import (
	"context"
	"strings"

	"lixengine/pkg/engine"
	"lixengine/pkg/lixsql"
	"lixengine/pkg/rewrite"
	"lixengine/pkg/router"
	"lixengine/pkg/validate"
)

// stateMutationVerbs are the lowercased substrings that mark a write
// statement as touching a state table, used both to gate mutation
// validation and to decide plugin change detection. Checked against raw
// (pre-rewrite) SQL.
var stateMutationVerbs = []string{
	"insert into state", "update state", "delete from state",
	"insert into state_all", "update state_all", "delete from state_all",
	"insert into state_by_version", "update state_by_version", "delete from state_by_version",
	"insert into lix_internal_state_vtable", "update lix_internal_state_vtable", "delete from lix_internal_state_vtable",
}

func mentionsStateMutation(lowerSQL string) bool {
	for _, kw := range stateMutationVerbs {
		if strings.Contains(lowerSQL, kw) {
			return true
		}
	}
	return false
}

var fileMutationVerbs = []string{"insert into file", "update file", "delete from file"}

func mentionsFileMutation(lowerSQL string) bool {
	for _, kw := range fileMutationVerbs {
		if strings.Contains(lowerSQL, kw) {
			return true
		}
	}
	return false
}

// RewriteSQLForExecution rewrites sql for execution under the given
// statement kind. Passthrough returns sql byte-for-byte unchanged. ReadRewrite
// splices in the canonical vtable subquery wherever it appears. WriteRewrite
// and Validation statements are split on top-level ';', each rewritten
// independently against its own target classification, and rejoined with
// "; "; a statement whose target isn't a state table passes through that
// slot unchanged.
func RewriteSQLForExecution(sql string, kind engine.StatementKind) (string, *engine.EngineError) {
	switch kind {
	case engine.Passthrough:
		return sql, nil
	case engine.ReadRewrite:
		return rewrite.RewriteVtableReads(sql), nil
	case engine.WriteRewrite, engine.Validation:
		stmts := lixsql.SplitStatements(sql)
		if len(stmts) == 0 {
			return "", engine.NewEngineError(engine.CodeProtocolMismatch, "rewrite target has no statements")
		}
		parts := make([]string, len(stmts))
		for i, stmt := range stmts {
			rewritten, ok, err := rewrite.RewriteWriteStatement(stmt.Text)
			if err != nil {
				return "", err
			}
			if !ok {
				parts[i] = stmt.Text
				continue
			}
			parts[i] = rewritten
		}
		return strings.Join(parts, "; "), nil
	default:
		return sql, nil
	}
}

// needsMutationValidation decides whether a statement must run the
// mutation validator before dispatch: always for Validation, and for
// WriteRewrite only when the raw SQL still mentions a state-table mutation
// keyword. The keyword test is a plain substring match over the lowered
// SQL, so a comment or string literal containing one of the verbs also
// trips it; that looseness is intentional and must not be tightened.
func needsMutationValidation(kind engine.StatementKind, lowerSQL string) bool {
	if kind == engine.Validation {
		return true
	}
	return kind == engine.WriteRewrite && mentionsStateMutation(lowerSQL)
}

// shouldDetectChanges decides whether plugin change detection runs after
// execution, judged against the raw (pre-rewrite) SQL and params,
// independent of what the rewriter produced.
func shouldDetectChanges(kind engine.StatementKind, lowerSQL string, params []any) bool {
	if kind != engine.WriteRewrite && kind != engine.Validation {
		return false
	}
	if mentionsFileMutation(lowerSQL) {
		return true
	}
	if !mentionsStateMutation(lowerSQL) {
		return false
	}
	if strings.Contains(lowerSQL, "lix_file") {
		return true
	}
	for _, p := range params {
		if s, ok := p.(string); ok && s == "lix_file" {
			return true
		}
	}
	return false
}

// ExecuteWithHost runs the full mediation pipeline for one ExecuteRequest:
// plan, validate (when applicable), rewrite, dispatch to host.Execute, fan
// out host.DetectChanges for each plugin change request when the statement
// mutated tracked file content, and assemble the result per the plan's
// RowsAffectedMode. No user-statement Execute call is made when validation
// fails; no DetectChanges calls are made when the user-statement Execute
// fails.
func ExecuteWithHost(ctx context.Context, host engine.HostCallbacks, req engine.ExecuteRequest) (engine.ExecuteResult, *engine.EngineError) {
	plan := router.PlanExecute(req.SQL)
	lowerSQL := strings.ToLower(req.SQL)

	if needsMutationValidation(plan.StatementKind, lowerSQL) {
		if _, err := validate.ValidateMutation(ctx, host, req.RequestID, req.SQL, req.Params); err != nil {
			return engine.ExecuteResult{}, err
		}
	}

	rewritten, err := RewriteSQLForExecution(req.SQL, plan.StatementKind)
	if err != nil {
		return engine.ExecuteResult{}, err
	}

	resp, execErr := host.Execute(ctx, engine.HostExecuteRequest{
		RequestID:     req.RequestID,
		SQL:           rewritten,
		Params:        req.Params,
		StatementKind: plan.StatementKind,
	})
	if execErr != nil {
		return engine.ExecuteResult{}, engine.MapHostError(execErr, engine.CodeSQLiteExecution)
	}

	result := engine.ExecuteResult{
		StatementKind:   plan.StatementKind,
		Rows:            resp.Rows,
		LastInsertRowID: resp.LastInsertRowID,
	}

	if shouldDetectChanges(plan.StatementKind, lowerSQL, req.Params) {
		for _, pcr := range req.PluginChangeRequests {
			detResp, detErr := host.DetectChanges(ctx, engine.HostDetectChangesRequest{
				RequestID: req.RequestID,
				PluginKey: pcr.PluginKey,
				Before:    pcr.Before,
				After:     pcr.After,
			})
			if detErr != nil {
				return engine.ExecuteResult{}, engine.MapHostError(detErr, engine.CodeDetectChanges)
			}
			result.PluginChanges = append(result.PluginChanges, detResp.Changes...)
		}
	}

	switch plan.RowsAffectedMode {
	case engine.RowsLength:
		result.RowsAffected = int64(len(result.Rows))
	default:
		result.RowsAffected = resp.RowsAffected
	}

	return result, nil
}
