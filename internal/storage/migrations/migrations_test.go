package migrations

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-analytics/internal/storage"
	"trading-analytics/internal/storage/sqlite"
)

func TestSplitStatements(t *testing.T) {
	input := `-- header comment
CREATE TABLE a (id INTEGER);

-- second
CREATE INDEX IF NOT EXISTS idx_a ON a (id); -- trailing
  ;
`
	stmts, err := splitStatements(input)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (id INTEGER)", stmts[0])
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS idx_a ON a (id)", stmts[1])
}

func TestSplitStatements_StringLiterals(t *testing.T) {
	stmts, err := splitStatements("SELECT 'a;b', 'it''s -- fine';SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 'a;b', 'it''s -- fine'", "SELECT 1"}, stmts)

	_, err = splitStatements("SELECT 'open;")
	assert.Error(t, err)

	stmts, err = splitStatements("-- only a comment")
	require.NoError(t, err)
	assert.Empty(t, stmts)
}

func TestReadMigrations(t *testing.T) {
	cases := []struct {
		dir  string
		fsys fs.FS
	}{
		{dir: "postgres", fsys: PostgresFS},
		{dir: "sqlite", fsys: SQLiteFS},
		{dir: "clickhouse", fsys: ClickhouseFS},
	}
	for _, tc := range cases {
		t.Run(tc.dir, func(t *testing.T) {
			files, err := readMigrations(tc.fsys, tc.dir)
			require.NoError(t, err)
			require.NotEmpty(t, files)

			var all strings.Builder
			for i, f := range files {
				if i > 0 {
					assert.Less(t, files[i-1].name, f.name)
				}
				_, err := splitStatements(f.sql)
				assert.NoError(t, err, f.name)
				all.WriteString(f.sql)
			}
			for _, table := range storage.AnalyticsTables {
				assert.Contains(t, all.String(), "CREATE TABLE IF NOT EXISTS "+table)
			}
		})
	}
}

func TestRunSQLiteMigrations_Idempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "analytics.sqlite"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunSQLiteMigrations(ctx, db))
	require.NoError(t, RunSQLiteMigrations(ctx, db))

	var n int
	require.NoError(t, db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'analysis_snapshots'`))
	assert.Equal(t, 1, n)
}
