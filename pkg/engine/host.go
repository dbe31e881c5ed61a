package engine

import "context"

// HostCallbacks is the contract the embedding host must implement. The
// engine never opens a database connection itself; it only ever asks the
// host to execute already-rewritten SQL or to fan a (before, after) pair out
// to a plugin's change detector.
type HostCallbacks interface {
	Execute(ctx context.Context, req HostExecuteRequest) (HostExecuteResponse, error)
	DetectChanges(ctx context.Context, req HostDetectChangesRequest) (HostDetectChangesResponse, error)
}
