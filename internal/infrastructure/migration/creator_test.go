package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/ehr/pharmacy/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add disposals table", "add_disposals_table"},
		{"Add-Batch-Index", "add_batch_index"},
		{"ADD_LEDGER_CHECK", "add_ledger_check"},
		{"add__audit__log", "add_audit_log"},
		{"Schedule H1 123", "schedule_h1_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "add disposals table", "Record disposals with ITC reversal")
	require.NoError(t, err)
	assert.Equal(t, "000001", mf.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_disposals_table.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_disposals_table.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add disposals table")
	assert.Contains(t, string(up), "Record disposals with ITC reversal")
	assert.Contains(t, string(up), "Write your UP migration SQL here")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")
	assert.Contains(t, string(down), "Write your DOWN migration SQL here")
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_existing.up.sql"), []byte("--"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_existing.down.sql"), []byte("--"), 0644))

	mf, err := CreateMigration(dir, "next", "")
	require.NoError(t, err)
	assert.Equal(t, "000008", mf.Version)

	mf, err = CreateMigration(dir, "after next", "")
	require.NoError(t, err)
	assert.Equal(t, "000009", mf.Version)
	assert.True(t, strings.HasSuffix(mf.UpPath, "000009_after_next.up.sql"))
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(nested, "test", "test migration")
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_add_index.up.sql":     {Data: []byte("--")},
		"000001_init_schema.up.sql":   {Data: []byte("--")},
		"000001_init_schema.down.sql": {Data: []byte("--")},
		"000003_no_down.up.sql":       {Data: []byte("--")},
		"000002_add_index.down.sql":   {Data: []byte("--")},
		"README.md":                   {Data: []byte("docs")},
		"notaversion_x.up.sql":        {Data: []byte("--")},
		"subdir.up.sql/keep":          {Data: []byte("")},
	}

	list, err := ListMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, uint(1), list[0].Version)
	assert.Equal(t, "init_schema", list[0].Name)
	assert.True(t, list[0].HasDown)
	assert.Equal(t, uint(2), list[1].Version)
	assert.Equal(t, "000003_no_down", list[2].BaseName)
	assert.False(t, list[2].HasDown)
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	list, err := ListMigrations(os.DirFS("/nonexistent/path/to/migrations"))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEmbeddedSchema(t *testing.T) {
	list, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.Equal(t, uint(1), list[0].Version)

	for i, m := range list {
		assert.True(t, m.HasDown, "%s has no down migration", m.BaseName)
		assert.Equal(t, uint(i+1), m.Version, "versions must be contiguous")
	}

	up, err := migrations.FS.ReadFile("000001_init_schema.up.sql")
	require.NoError(t, err)
	for _, table := range []string{
		"chemical_schedules", "products", "purchases", "batches", "stock_ledger",
		"sales", "sale_items", "sale_payments", "returns", "return_items",
		"disposals", "audit_log",
	} {
		assert.Contains(t, string(up), "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
}
