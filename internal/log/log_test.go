package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"jobsearch-engine/internal/log"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		out = append(out, m)
	}
	return out
}

func TestContextAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := log.NewWithWriter(&buf, false)

	ctx := log.ContextAttrs(context.Background(), slog.String("run", "r1"))
	a := log.ContextAttrs(ctx, slog.String("company", "Acme"))
	b := log.ContextAttrs(ctx, slog.String("company", "Globex"))

	logger.InfoContext(a, "a")
	logger.With("k", "v").InfoContext(b, "b")
	logger.DebugContext(a, "hidden")

	recs := decode(t, &buf)
	require.Len(t, recs, 2)
	require.Equal(t, "r1", recs[0]["run"])
	require.Equal(t, "Acme", recs[0]["company"])
	require.Equal(t, "Globex", recs[1]["company"])
	require.Equal(t, "v", recs[1]["k"])
}

func TestVerbose(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log.NewWithWriter(&buf, true).Debug("shown")
	recs := decode(t, &buf)
	require.Len(t, recs, 1)
	require.Equal(t, "DEBUG", recs[0]["level"])
}
