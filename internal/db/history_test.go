package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportHistory(t *testing.T) {
	conn, err := Open(Config{})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ctx := context.Background()
	h, err := NewExportHistory(ctx, conn)
	require.NoError(t, err)

	_, err = NewExportHistory(ctx, conn)
	require.NoError(t, err, "table creation is idempotent")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, frame := range []string{"circle", "hexagon", "fade"} {
		require.NoError(t, h.Record(ctx, ExportRecord{
			ID:        "01J" + frame,
			Frame:     frame,
			Effect:    "none",
			Width:     100,
			Height:    80,
			Bytes:     1234 + i,
			Filename:  "map-export-" + frame + "-none.png",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	list, err := h.List(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "fade", list[0].Frame)
	assert.Equal(t, "hexagon", list[1].Frame)
	assert.Equal(t, 100, list[0].Width)
	assert.True(t, base.Add(2*time.Minute).Equal(list[0].CreatedAt.UTC()))

	all, err := h.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	rest, err := h.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "circle", rest[0].Frame)

	n, err := h.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	err = h.Record(ctx, ExportRecord{ID: "01Jfade", Frame: "fade", Effect: "none", Filename: "x", CreatedAt: base})
	assert.Error(t, err, "duplicate id")
}
