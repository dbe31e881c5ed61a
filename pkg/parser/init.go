package parser

import "lixengine/pkg/rewrite"

// CanonicalVtableSelectKind is the result of checking
// rewrite.CanonicalVtableSelect against the CockroachDB grammar once at
// package load, so a typo in that constant shows up as an init-time panic
// rather than a runtime SQL error the first time a read is rewritten.
var CanonicalVtableSelectKind CockroachStatementKind

func init() {
	kind, err := NewCockroachCheck().CheckWellFormed(rewrite.CanonicalVtableSelect)
	if err != nil {
		panic("pkg/parser: rewrite.CanonicalVtableSelect failed cockroachdb grammar self-check: " + err.Error())
	}
	if kind != CockroachSelect {
		panic("pkg/parser: rewrite.CanonicalVtableSelect did not parse as a SELECT")
	}
	CanonicalVtableSelectKind = kind
}
