package ivfgo

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_Helpers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	logger.WithDimension(4).LogInsert(ctx, 7, nil)
	assert.Contains(t, buf.String(), "insert completed")
	assert.Contains(t, buf.String(), "id=7")
	assert.Contains(t, buf.String(), "dimension=4")

	buf.Reset()
	logger.WithK(3).LogSearch(ctx, 3, 0, errors.New("boom"))
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "search failed")
	assert.Contains(t, buf.String(), "error=boom")

	buf.Reset()
	logger.LogCheckpoint(ctx, "snapshot-1", 128, nil)
	assert.Contains(t, buf.String(), "snapshot=snapshot-1")
	assert.Contains(t, buf.String(), "bytes=128")
}

func TestLogger_Noop(t *testing.T) {
	logger := NoopLogger()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestLogger_RecoveryIsLogged(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ivfgo.wal")

	db, err := Open(ctx, 2, 1, WithWAL(path))
	require.NoError(t, err)
	_, err = db.Insert(ctx, []float32{1, 1})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	reopened, err := Open(ctx, 2, 1, WithWAL(path), WithLogger(logger))
	require.NoError(t, err)
	defer reopened.Close()

	assert.Contains(t, buf.String(), `"msg":"recovery completed"`)
	assert.Contains(t, buf.String(), `"entries_replayed":1`)
	assert.Contains(t, buf.String(), `"msg":"build completed"`)
}
