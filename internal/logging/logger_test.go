package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))

	ctx = WithRequestID(ctx, "rid-1")
	assert.Equal(t, "rid-1", RequestID(ctx))
}

func TestLogger_TagsRequestID(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	Setup(&buf, slog.LevelDebug)

	New(WithRequestID(context.Background(), "rid-42")).With("user_id", "u1").LogError("decrement", errors.New("boom"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "rid-42", line["request_id"])
	assert.Equal(t, "u1", line["user_id"])
	assert.Equal(t, "decrement", line["operation"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "ERROR", line["level"])
}

func TestLogger_UnknownRequestID(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	Setup(&buf, slog.LevelInfo)

	New(context.Background()).LogInfof("check", "checked %d users", 2)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "unknown", line["request_id"])
	assert.Equal(t, "checked 2 users", line["msg"])
}
