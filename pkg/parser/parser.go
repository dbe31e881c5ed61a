// Package parser provides non-authoritative corroboration over the
// lix dialect SQL pkg/router/pkg/rewrite actually drive. Neither vendored
// third-party grammar understands the lix dialect natively (SQLite `?`
// placeholders and `json(...)` calls on the TiDB/MySQL side; no SQLite
// dialect at all on the CockroachDB/Postgres side), so neither can replace
// pkg/lixsql as the router/rewriter's parser. They are kept for two
// narrower jobs instead:
//
//   - an init-time self-check (see init.go and cockroach.go) that the constant
//     replacement SELECT text the read rewriter splices in
//     (rewrite.CanonicalVtableSelect) is itself syntactically well-formed
//     SQL, using a real grammar instead of eyeballing a string constant;
//   - a best-effort corroboration pass (see tidb.go) a test or the demo
//     host can run over a rewritten write statement to catch a rewrite bug
//     that produces text no SQL grammar would accept, since the TiDB
//     grammar is the closer of the two to SQLite's `?`-placeholder style.
package parser
