// Package validate implements the mutation validator: extracting
// schema_key/schema_version/snapshot_content from a state mutation's VALUES
// rows, compiling the stored JSON Schema and any x-lix-default /
// x-lix-override-lixcols CEL expressions, and checking snapshot_content
// against the compiled schema.
package validate

import (
	"encoding/json"
	"strconv"
	"strings"

	"lixengine/pkg/engine"
	"lixengine/pkg/lixsql"
)

// Cursor advances through ExecuteRequest.Params in the order placeholders
// are encountered across an entire statement. It is never reset per row:
// the parameter cursor stays monotonic across all VALUES rows of one
// statement.
type Cursor struct {
	Params []any
	Pos    int
}

func (c *Cursor) next() (any, *engine.EngineError) {
	if c.Pos >= len(c.Params) {
		return nil, engine.NewEngineError(engine.CodeProtocolMismatch, "not enough parameters for placeholders in statement")
	}
	v := c.Params[c.Pos]
	c.Pos++
	return v, nil
}

// EvalExpr evaluates a single value expression starting at toks[i], one of:
// a string/numeric/boolean/null literal, a '?' placeholder advancing
// cursor, or a single-argument json(expr) call. Anything else is a
// REWRITE_VALIDATION error. Returns the decoded value and the index just
// past the expression.
//
// parseJSONStrings is set when the evaluated field is snapshot_content or
// the expression sits inside a json(...) call: string literals must then
// decode as JSON, and a bound string param is decoded best-effort (kept
// raw when it isn't valid JSON).
func EvalExpr(toks []lixsql.Token, i int, cursor *Cursor, parseJSONStrings bool) (any, int, *engine.EngineError) {
	if i >= len(toks) {
		return nil, i, engine.NewEngineError(engine.CodeRewriteValidation, "expected expression, found end of statement")
	}
	tok := toks[i]

	switch tok.Kind {
	case lixsql.String:
		if parseJSONStrings {
			var parsed any
			if err := json.Unmarshal([]byte(tok.Value), &parsed); err != nil {
				return nil, i, engine.NewEngineError(engine.CodeRewriteValidation, "string literal is not valid JSON: "+err.Error())
			}
			return parsed, i + 1, nil
		}
		return tok.Value, i + 1, nil
	case lixsql.Number:
		v, err := parseNumber(tok.Text)
		if err != nil {
			return nil, i, err
		}
		return v, i + 1, nil
	case lixsql.Placeholder:
		v, cerr := cursor.next()
		if cerr != nil {
			return nil, i, cerr
		}
		if parseJSONStrings {
			return maybeParseJSONString(v), i + 1, nil
		}
		return v, i + 1, nil
	case lixsql.Punct:
		// Signed numeric literal.
		if (tok.Text == "-" || tok.Text == "+") && i+1 < len(toks) && toks[i+1].Kind == lixsql.Number {
			v, err := parseNumber(tok.Text + toks[i+1].Text)
			if err != nil {
				return nil, i, err
			}
			return v, i + 2, nil
		}
	case lixsql.Word:
		switch tok.Lower() {
		case "true":
			return true, i + 1, nil
		case "false":
			return false, i + 1, nil
		case "null":
			return nil, i + 1, nil
		case "json":
			return evalJSONCall(toks, i, cursor)
		}
	}

	return nil, i, engine.NewEngineError(engine.CodeRewriteValidation, "unsupported expression form: "+tok.Text)
}

// parseNumber prefers a signed 64-bit integer parse and falls back to a
// finite double.
func parseNumber(text string) (any, *engine.EngineError) {
	if !strings.ContainsAny(text, ".eE") {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n, nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, engine.NewEngineError(engine.CodeRewriteValidation, "invalid numeric literal: "+text)
	}
	return f, nil
}

// evalJSONCall evaluates json(expr): exactly one unnamed argument, with
// JSON parsing of string values enabled for the inner expression.
func evalJSONCall(toks []lixsql.Token, i int, cursor *Cursor) (any, int, *engine.EngineError) {
	j := i + 1
	if j >= len(toks) || toks[j].Kind != lixsql.Punct || toks[j].Text != "(" {
		return nil, i, engine.NewEngineError(engine.CodeRewriteValidation, "expected '(' after json")
	}
	j++
	inner, next, err := EvalExpr(toks, j, cursor, true)
	if err != nil {
		return nil, i, err
	}
	if next >= len(toks) || toks[next].Kind != lixsql.Punct || toks[next].Text != ")" {
		return nil, i, engine.NewEngineError(engine.CodeRewriteValidation, "json(...) takes exactly one argument")
	}
	return inner, next + 1, nil
}

// maybeParseJSONString attempts to decode a bound string parameter as JSON;
// on failure the raw string is kept.
func maybeParseJSONString(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return v
	}
	return parsed
}
