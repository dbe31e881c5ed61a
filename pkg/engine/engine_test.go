package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteSeq_MarshalsAsByteValues(t *testing.T) {
	raw, err := json.Marshal(PluginChangeRequest{
		PluginKey: "plugin.csv",
		Before:    ByteSeq("ab"),
		After:     ByteSeq{0, 255},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"pluginKey":"plugin.csv","before":[97,98],"after":[0,255]}`, string(raw))

	var back PluginChangeRequest
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, ByteSeq("ab"), back.Before)
	assert.Equal(t, ByteSeq{0, 255}, back.After)
}

func TestExecutePlan_WireStrings(t *testing.T) {
	raw, err := json.Marshal(ExecutePlan{
		StatementKind:    ReadRewrite,
		PreprocessMode:   PreprocessFull,
		RowsAffectedMode: RowsLength,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"statementKind":"read_rewrite","preprocessMode":"full","rowsAffectedMode":"rows_length"}`, string(raw))

	raw, err = json.Marshal(ExecutePlan{
		StatementKind:    WriteRewrite,
		PreprocessMode:   PreprocessNone,
		RowsAffectedMode: HostReported,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"statementKind":"write_rewrite","preprocessMode":"none","rowsAffectedMode":"sqlite_changes"}`, string(raw))
}

func TestMapHostError(t *testing.T) {
	t.Run("unclassified error wraps under default code", func(t *testing.T) {
		ee := MapHostError(errors.New("disk I/O error"), CodeSQLiteExecution)
		require.NotNil(t, ee)
		assert.Equal(t, CodeSQLiteExecution, ee.Code)
		assert.Equal(t, "disk I/O error", ee.Message)
	})

	t.Run("stable code is preserved", func(t *testing.T) {
		ee := MapHostError(NewEngineError(CodeTimeout, "host timed out"), CodeDetectChanges)
		require.NotNil(t, ee)
		assert.Equal(t, CodeTimeout, ee.Code)
	})

	t.Run("stable code survives wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("calling host: %w", NewEngineError(CodeUnsupportedFeature, "no such feature"))
		ee := MapHostError(wrapped, CodeSQLiteExecution)
		require.NotNil(t, ee)
		assert.Equal(t, CodeUnsupportedFeature, ee.Code)
	})

	t.Run("unknown code is rewrapped", func(t *testing.T) {
		ee := MapHostError(&EngineError{Code: "SOMETHING_ELSE", Message: "m"}, CodeDetectChanges)
		require.NotNil(t, ee)
		assert.Equal(t, CodeDetectChanges, ee.Code)
		assert.Equal(t, "m", ee.Message)
	})

	t.Run("nil error maps to nil", func(t *testing.T) {
		assert.Nil(t, MapHostError(nil, CodeSQLiteExecution))
	})
}
