package parser

import (
	"fmt"

	"github.com/pingcap/tidb/pkg/parser"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"
)

// TiDBCheck wraps the real TiDB/MySQL grammar for a best-effort
// corroboration pass over a write statement pkg/rewrite has just produced.
// TiDB's grammar is the closer of the two vendored parsers to SQLite's
// `?`-placeholder style, but it still does not know SQLite's `json(...)`
// call form or `INSERT ... RETURNING`, so a parse failure here is a signal
// worth logging, not proof the rewrite is wrong; callers treat it as
// advisory, never as a gate on execution.
type TiDBCheck struct {
	p *parser.Parser
}

func NewTiDBCheck() *TiDBCheck {
	return &TiDBCheck{p: parser.New()}
}

// Corroborate reports whether the TiDB grammar accepts sql. A non-nil
// error means the grammar rejected it, which for lix SQL usually just
// means the statement used a SQLite-only construct TiDB doesn't have.
func (c *TiDBCheck) Corroborate(sql string) error {
	stmtNodes, _, err := c.p.Parse(sql, "", "")
	if err != nil {
		return fmt.Errorf("tidb grammar rejected statement: %w", err)
	}
	if len(stmtNodes) == 0 {
		return fmt.Errorf("tidb grammar found no statements")
	}
	return nil
}
