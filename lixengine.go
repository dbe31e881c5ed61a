// Package lixengine is the public entry point to the lix SQL mediation
// engine: statement routing, execution planning, SQL rewriting and the
// host-backed execution pipeline, collected into one import for a
// transport that embeds this module. The implementations live in
// pkg/router, pkg/executor and pkg/engine; this file only re-exports them
// so a caller never has to reach into the internal package layout.
package lixengine

import (
	"context"

	"lixengine/pkg/engine"
	"lixengine/pkg/executor"
	"lixengine/pkg/router"
)

// Re-exported data model types, so callers only need this one import.
type (
	StatementKind             = engine.StatementKind
	RowsAffectedMode          = engine.RowsAffectedMode
	PreprocessMode            = engine.PreprocessMode
	ExecutePlan               = engine.ExecutePlan
	ExecuteRequest            = engine.ExecuteRequest
	ExecuteResult             = engine.ExecuteResult
	PluginChangeRequest       = engine.PluginChangeRequest
	HostCallbacks             = engine.HostCallbacks
	HostExecuteRequest        = engine.HostExecuteRequest
	HostExecuteResponse       = engine.HostExecuteResponse
	HostDetectChangesRequest  = engine.HostDetectChangesRequest
	HostDetectChangesResponse = engine.HostDetectChangesResponse
	EngineError               = engine.EngineError
	ErrorCode                 = engine.ErrorCode
	ByteSeq                   = engine.ByteSeq
)

const (
	ReadRewrite  = engine.ReadRewrite
	WriteRewrite = engine.WriteRewrite
	Validation   = engine.Validation
	Passthrough  = engine.Passthrough
)

const (
	CodeSQLiteExecution    = engine.CodeSQLiteExecution
	CodeDetectChanges      = engine.CodeDetectChanges
	CodeRewriteValidation  = engine.CodeRewriteValidation
	CodeUnsupportedFeature = engine.CodeUnsupportedFeature
	CodeProtocolMismatch   = engine.CodeProtocolMismatch
	CodeTimeout            = engine.CodeTimeout
	CodeUnknown            = engine.CodeUnknown
)

// RouteStatementKind classifies sql into the statement kind the pipeline
// will handle it as.
func RouteStatementKind(sql string) StatementKind {
	return router.RouteStatementKind(sql)
}

// PlanExecute derives the execution plan for sql.
func PlanExecute(sql string) ExecutePlan {
	return router.PlanExecute(sql)
}

// RewriteSQLForExecution rewrites sql for execution under the given
// statement kind.
func RewriteSQLForExecution(sql string, kind StatementKind) (string, *EngineError) {
	return executor.RewriteSQLForExecution(sql, kind)
}

// ExecuteWithHost is the single entry point that
// runs the full classify/validate/rewrite/dispatch/detect-changes pipeline
// for one request against a caller-supplied HostCallbacks implementation.
func ExecuteWithHost(ctx context.Context, host HostCallbacks, req ExecuteRequest) (ExecuteResult, *EngineError) {
	return executor.ExecuteWithHost(ctx, host, req)
}
