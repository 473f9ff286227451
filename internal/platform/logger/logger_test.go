package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdLogger_JSONIncludesBaseAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Info, Format: FormatJSON, App: "zoo", Out: &buf})

	l.With(map[string]any{"request_id": "r-1"}).Info("ticket issued", map[string]any{"ticket_id": "TKT-1"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "zoo", entry["app"])
	assert.Equal(t, "r-1", entry["request_id"])
	assert.Equal(t, "TKT-1", entry["ticket_id"])
	assert.Equal(t, "info", entry["level"])
}

func TestStdLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Warn, Out: &buf})

	l.Debug("hidden", nil)
	l.Info("hidden", nil)
	l.Warn("shown", map[string]any{"b": 2, "a": 1})

	out := strings.TrimSpace(buf.String())
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "a=1 b=2 level=warn msg=shown")
}

func TestFromContext_FallsBackToNop(t *testing.T) {
	assert.Equal(t, Nop(), FromContext(context.Background()))

	var buf bytes.Buffer
	l := New(Options{Out: &buf})
	ctx := WithContext(context.Background(), l)
	FromContext(ctx).Info("hello", nil)
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, Debug, ParseLevel("DEBUG"))
	assert.Equal(t, Warn, ParseLevel("warning"))
	assert.Equal(t, Info, ParseLevel("nonsense"))
}
