package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, Debug, ParseLevel("DEBUG"))
	assert.Equal(t, Warn, ParseLevel("warning"))
	assert.Equal(t, Info, ParseLevel(""))
	assert.Equal(t, Info, ParseLevel("verbose"))
	assert.Equal(t, Error, ParseLevel(" error "))
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat("logfmt"))
}

func TestZapLogger_WithMergesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core)).With(map[string]any{"component": "scanner"})

	l.Warn("camera released", map[string]any{
		"scan_id": "s-1",
		"err":     errors.New("boom"),
		"":        "ignored",
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "camera released", entry.Message)

	ctx := entry.ContextMap()
	assert.Equal(t, "scanner", ctx["component"])
	assert.Equal(t, "s-1", ctx["scan_id"])
	assert.Equal(t, "boom", ctx["err"])
	assert.NotContains(t, ctx, "")
}
