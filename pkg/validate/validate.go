package validate

import (
	"context"

	"lixengine/pkg/engine"
)

// ValidateMutation runs the full mutation-validation pipeline for a state
// mutation: extract the rows the statement intends to write, load each
// row's stored schema from the host, compile the schema's embedded
// x-lix-default/x-lix-override-lixcols expressions, and validate
// snapshot_content against the compiled JSON Schema. One schema load is
// issued per extracted row, before any user-statement execution. Returns
// the decoded rows on success so the caller doesn't need to re-parse them.
func ValidateMutation(ctx context.Context, host engine.HostCallbacks, requestID, sql string, params []any) ([]engine.MutationValidationRow, *engine.EngineError) {
	rows, err := ExtractMutationRows(sql, params)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		schemaDoc, err := LoadSchema(ctx, host, requestID, row.SchemaKey, row.SchemaVersion)
		if err != nil {
			return nil, err
		}
		if err := CompileLixExpressions(schemaDoc); err != nil {
			return nil, err
		}
		if err := ValidateSnapshot(schemaDoc, row.SnapshotContent); err != nil {
			return nil, err
		}
	}

	return rows, nil
}
