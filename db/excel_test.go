package db

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"student-manager-go/models"
)

func TestExportStudentsToExcel(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_, err := store.Insert(ctx, models.Draft{Name: "Ana", Phone: "555-1234", Address: "Calle 1", Note: "nota"})
	require.NoError(t, err)
	_, err = store.Insert(ctx, models.Draft{Name: "Luis"})
	require.NoError(t, err)

	core, logs := observer.New(zapcore.WarnLevel)
	var buf bytes.Buffer
	n, err := ExportStudentsToExcel(ctx, store, &buf, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Zero(t, logs.Len())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Name", "Phone", "Address", "Note"}, rows[0])
	assert.Equal(t, []string{"1", "Ana", "555-1234", "Calle 1", "nota"}, rows[1])
	assert.Equal(t, "Luis", rows[2][1])
}

func TestExportThenImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := NewMemoryStore()
	_, err := src.Insert(ctx, models.Draft{Name: "Ana", Note: "línea 1\nlínea 2"})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = ExportStudentsToExcel(ctx, src, &buf, zap.NewNop())
	require.NoError(t, err)

	dst := NewMemoryStore()
	n, err := ImportStudentsFromExcel(ctx, dst, &buf, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, err := dst.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ana", got[0].Name)
	assert.Equal(t, "línea 1\nlínea 2", got[0].Note)
}
