// Command demo is an illustrative host for the lix SQL mediation engine:
// it opens an in-process SQLite database with modernc.org/sqlite, seeds it
// with the physical state_by_version table and one stored_schema row, and
// runs a handful of statements through lixengine.ExecuteWithHost
// to show the read/write rewrite and mutation-validation pipeline end to
// end. It is not a transport and not a production host; the real lix
// engine only needs something implementing lixengine.HostCallbacks.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"strings"

	_ "modernc.org/sqlite"

	lixengine "lixengine"
	"lixengine/pkg/config"
	"lixengine/pkg/engine"
	"lixengine/pkg/parser"
)

func main() {
	configPath := flag.String("config", "", "path to a demo YAML config (optional)")
	flag.Parse()

	cfg := config.DefaultDemoConfig()
	if *configPath != "" {
		loaded, err := config.LoadFromYAML(*configPath)
		if err != nil {
			log.Fatalf("demo: loading config: %v", err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("demo: invalid config: %v", err)
	}

	fmt.Println("=== lix SQL mediation engine demo ===")
	fmt.Println("routes, rewrites and validates statements against an embedded SQLite database")
	fmt.Println()

	dsn := cfg.SQLitePath
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("demo: opening sqlite database: %v", err)
	}
	defer db.Close()

	host := &sqliteHost{db: db, corroborate: cfg.CorroborateWrites}
	if err := host.seed(); err != nil {
		log.Fatalf("demo: seeding schema: %v", err)
	}

	ctx := context.Background()

	run := func(label, stmt string, params ...any) {
		fmt.Printf("--- %s ---\n", label)
		fmt.Printf("input:  %s\n", stmt)
		result, engErr := lixengine.ExecuteWithHost(ctx, host, engine.ExecuteRequest{
			RequestID: label,
			SQL:       stmt,
			Params:    params,
		})
		if engErr != nil {
			fmt.Printf("error:  [%s] %s\n\n", engErr.Code, engErr.Message)
			return
		}
		fmt.Printf("kind:   %s\n", result.StatementKind)
		fmt.Printf("rows:   %d returned, %d affected\n\n", len(result.Rows), result.RowsAffected)
	}

	run("insert into state (untracked write-redirect)",
		"insert into state (entity_id, schema_key, file_id, plugin_key, snapshot_content, schema_version) "+
			"values (?, ?, ?, ?, json(?), ?)",
		"e1", "demo_schema", "f1", "demo_plugin", `{"name":"ada"}`, "1")

	run("select from the logical state vtable (read redirect)",
		"select * from lix_internal_state_vtable where schema_key = ?", "demo_schema")

	// Literals rather than placeholders here: the UPDATE rewrite moves the
	// WHERE predicate into the key CTE ahead of the SET clause, so
	// positional params would bind out of order.
	run("update state (write redirect)",
		`update state set snapshot_content = json('{"name":"ada lovelace"}') `+
			`where entity_id = 'e1' and schema_key = 'demo_schema'`)
}

const seedSQL = `
CREATE TABLE IF NOT EXISTS state_by_version (
	entity_id TEXT NOT NULL,
	schema_key TEXT NOT NULL,
	file_id TEXT NOT NULL,
	version_id TEXT NOT NULL,
	plugin_key TEXT,
	snapshot_content TEXT,
	schema_version TEXT,
	created_at TEXT,
	updated_at TEXT,
	inherited_from_version_id TEXT,
	PRIMARY KEY (entity_id, schema_key, file_id, version_id)
);

CREATE TABLE IF NOT EXISTS lix_internal_state_all_untracked (
	entity_id TEXT NOT NULL,
	schema_key TEXT NOT NULL,
	file_id TEXT NOT NULL,
	version_id TEXT NOT NULL,
	plugin_key TEXT,
	snapshot_content TEXT,
	schema_version TEXT,
	created_at TEXT,
	updated_at TEXT,
	inherited_from_version_id TEXT
);

CREATE TABLE IF NOT EXISTS active_version (
	version_id TEXT NOT NULL
);

INSERT INTO active_version (version_id)
SELECT 'v-main' WHERE NOT EXISTS (SELECT 1 FROM active_version);

CREATE TABLE IF NOT EXISTS stored_schema (
	value TEXT NOT NULL
);

INSERT INTO stored_schema (value)
SELECT '{"x-lix-key":"demo_schema","x-lix-version":"1","type":"object","properties":{"name":{"type":"string"}},"required":["name"]}'
WHERE NOT EXISTS (SELECT 1 FROM stored_schema);
`

// sqliteHost implements engine.HostCallbacks against a real SQLite
// database via modernc.org/sqlite. It is deliberately minimal: it has no
// plugin registry, so DetectChanges just echoes a synthetic change record
// back, enough to exercise the engine's plugin-fan-out plumbing without
// pretending to be a real plugin host.
type sqliteHost struct {
	db          *sql.DB
	corroborate bool
}

func (h *sqliteHost) seed() error {
	_, err := h.db.Exec(seedSQL)
	return err
}

func (h *sqliteHost) Execute(ctx context.Context, req engine.HostExecuteRequest) (engine.HostExecuteResponse, error) {
	if h.corroborate && (req.StatementKind == engine.WriteRewrite || req.StatementKind == engine.Validation) {
		if err := parser.NewTiDBCheck().Corroborate(req.SQL); err != nil {
			log.Printf("demo: advisory corroboration failed for %q: %v", req.RequestID, err)
		}
	}

	// Rewritten writes start with WITH, so the raw SQL shape can't decide
	// query-vs-exec on its own; the plan's statement kind can.
	switch req.StatementKind {
	case engine.ReadRewrite:
		return h.executeQuery(ctx, req)
	case engine.Passthrough:
		if isSelectLike(req.SQL) {
			return h.executeQuery(ctx, req)
		}
		return h.executeStatement(ctx, req)
	default:
		return h.executeStatement(ctx, req)
	}
}

func isSelectLike(sqlText string) bool {
	trimmed := strings.TrimSpace(strings.ToLower(sqlText))
	return strings.HasPrefix(trimmed, "select") || strings.HasPrefix(trimmed, "with")
}

func (h *sqliteHost) executeQuery(ctx context.Context, req engine.HostExecuteRequest) (engine.HostExecuteResponse, error) {
	rows, err := h.db.QueryContext(ctx, req.SQL, req.Params...)
	if err != nil {
		return engine.HostExecuteResponse{}, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return engine.HostExecuteResponse{}, fmt.Errorf("reading columns: %w", err)
	}

	var out []any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return engine.HostExecuteResponse{}, fmt.Errorf("scanning row: %w", err)
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			record[col] = values[i]
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return engine.HostExecuteResponse{}, fmt.Errorf("iterating rows: %w", err)
	}

	return engine.HostExecuteResponse{Rows: out}, nil
}

func (h *sqliteHost) executeStatement(ctx context.Context, req engine.HostExecuteRequest) (engine.HostExecuteResponse, error) {
	res, err := h.db.ExecContext(ctx, req.SQL, req.Params...)
	if err != nil {
		return engine.HostExecuteResponse{}, fmt.Errorf("exec failed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return engine.HostExecuteResponse{}, fmt.Errorf("reading rows affected: %w", err)
	}

	resp := engine.HostExecuteResponse{RowsAffected: affected}
	if id, err := res.LastInsertId(); err == nil {
		resp.LastInsertRowID = &id
	}
	return resp, nil
}

// DetectChanges has no real plugin registry in the demo; it reports a
// single synthetic "changed" record whenever before and after differ, just
// enough to exercise pkg/executor's plugin fan-out loop.
func (h *sqliteHost) DetectChanges(ctx context.Context, req engine.HostDetectChangesRequest) (engine.HostDetectChangesResponse, error) {
	if string(req.Before) == string(req.After) {
		return engine.HostDetectChangesResponse{}, nil
	}
	return engine.HostDetectChangesResponse{
		Changes: []any{map[string]any{
			"pluginKey": req.PluginKey,
			"requestId": req.RequestID,
		}},
	}, nil
}
