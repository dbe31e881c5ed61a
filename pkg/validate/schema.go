package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"lixengine/pkg/engine"
)

// loadSchemaSQL is the passthrough query used to fetch the most recently
// stored schema for a (schema_key, schema_version) pair. stored_schema
// carries no separate key/version columns — both are embedded in the
// stored JSON under x-lix-key/x-lix-version, per the reserved identifiers
// in the external interface contract.
const loadSchemaSQL = `SELECT value FROM stored_schema WHERE json_extract(value, '$."x-lix-key"') = ? AND json_extract(value, '$."x-lix-version"') = ? ORDER BY rowid DESC LIMIT 1`

// LoadSchema fetches the stored JSON Schema document for schemaKey/
// schemaVersion via a passthrough host.Execute call. The stored value may
// arrive already decoded (an object) or as a JSON-encoded string needing a
// second unmarshal; both shapes are accepted.
func LoadSchema(ctx context.Context, host engine.HostCallbacks, requestID, schemaKey, schemaVersion string) (map[string]any, *engine.EngineError) {
	resp, err := host.Execute(ctx, engine.HostExecuteRequest{
		RequestID:     requestID,
		SQL:           loadSchemaSQL,
		Params:        []any{schemaKey, schemaVersion},
		StatementKind: engine.Passthrough,
	})
	if err != nil {
		return nil, engine.MapHostError(err, engine.CodeSQLiteExecution)
	}
	if len(resp.Rows) == 0 {
		return nil, engine.NewEngineError(engine.CodeRewriteValidation, fmt.Sprintf("no stored schema for %s@%s", schemaKey, schemaVersion))
	}

	var raw any
	switch row := resp.Rows[0].(type) {
	case map[string]any:
		raw = row["value"]
	case []any:
		if len(row) > 0 {
			raw = row[0]
		}
	default:
		raw = row
	}

	switch v := raw.(type) {
	case map[string]any:
		return v, nil
	case string:
		var decoded map[string]any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return nil, engine.NewEngineError(engine.CodeRewriteValidation, "stored schema value is not valid JSON: "+err.Error())
		}
		return decoded, nil
	default:
		return nil, engine.NewEngineError(engine.CodeRewriteValidation, "stored schema value has unexpected shape")
	}
}

// CompileLixExpressions walks schemaDoc looking for every "x-lix-default"
// and "x-lix-override-lixcols" string value and compiles it as a CEL
// expression. Expressions are only compiled, never evaluated, per the
// Non-goal against evaluating these at mutation time. The first compile
// failure is reported as REWRITE_VALIDATION.
func CompileLixExpressions(schemaDoc map[string]any) *engine.EngineError {
	env, err := cel.NewEnv()
	if err != nil {
		return engine.NewEngineError(engine.CodeUnknown, "failed to build CEL environment: "+err.Error())
	}
	return walkForCEL(schemaDoc, env)
}

func walkForCEL(node any, env *cel.Env) *engine.EngineError {
	switch v := node.(type) {
	case map[string]any:
		for key, val := range v {
			switch key {
			case "x-lix-default":
				if expr, ok := val.(string); ok {
					if ee := compileCEL(env, key, expr); ee != nil {
						return ee
					}
				}
			case "x-lix-override-lixcols":
				// Every entry of the override map is an expression.
				if entries, ok := val.(map[string]any); ok {
					for _, entry := range entries {
						if expr, ok := entry.(string); ok {
							if ee := compileCEL(env, key, expr); ee != nil {
								return ee
							}
						}
					}
				} else if expr, ok := val.(string); ok {
					if ee := compileCEL(env, key, expr); ee != nil {
						return ee
					}
				}
			}
			if ee := walkForCEL(val, env); ee != nil {
				return ee
			}
		}
	case []any:
		for _, item := range v {
			if ee := walkForCEL(item, env); ee != nil {
				return ee
			}
		}
	}
	return nil
}

func compileCEL(env *cel.Env, key, expr string) *engine.EngineError {
	if _, issues := env.Compile(expr); issues != nil && issues.Err() != nil {
		return engine.NewEngineError(engine.CodeRewriteValidation, fmt.Sprintf("invalid %s expression %q: %s", key, expr, issues.Err()))
	}
	return nil
}

// ValidateSnapshot compiles schemaDoc as a JSON Schema and validates
// snapshotContent against it.
func ValidateSnapshot(schemaDoc map[string]any, snapshotContent any) *engine.EngineError {
	raw, err := json.Marshal(schemaDoc)
	if err != nil {
		return engine.NewEngineError(engine.CodeUnknown, "failed to marshal stored schema: "+err.Error())
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return engine.NewEngineError(engine.CodeRewriteValidation, "failed to decode stored schema: "+err.Error())
	}

	const resourceURL = "lix://stored-schema"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceURL, doc); err != nil {
		return engine.NewEngineError(engine.CodeRewriteValidation, "failed to register stored schema: "+err.Error())
	}
	sch, err := compiler.Compile(resourceURL)
	if err != nil {
		return engine.NewEngineError(engine.CodeRewriteValidation, "failed to compile stored schema: "+err.Error())
	}

	instanceRaw, err := json.Marshal(snapshotContent)
	if err != nil {
		return engine.NewEngineError(engine.CodeUnknown, "failed to marshal snapshot_content: "+err.Error())
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(instanceRaw))
	if err != nil {
		return engine.NewEngineError(engine.CodeRewriteValidation, "failed to decode snapshot_content: "+err.Error())
	}

	if err := sch.Validate(instance); err != nil {
		return engine.NewEngineError(engine.CodeRewriteValidation, "snapshot_content violates stored schema: "+err.Error())
	}
	return nil
}
