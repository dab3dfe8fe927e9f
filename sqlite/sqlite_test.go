package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinywasm/sqliter"
	"github.com/tinywasm/sqliter/internal/testutil"
)

func newMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return New(sqlDB, testutil.NewTestLogger(t)), mock
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{
			name: "modernc file with WAL",
			cfg:  Config{Driver: DriverModernc, Path: "/tmp/a.db", WALMode: true, BusyTimeout: 5},
			want: "file:/tmp/a.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		},
		{
			name: "modernc memory ignores WAL",
			cfg:  Config{Path: MemoryPath, WALMode: true},
			want: "file::memory:?_pragma=busy_timeout(0)&_pragma=foreign_keys(1)",
		},
		{
			name: "mattn file",
			cfg:  Config{Driver: DriverMattn, Path: "/tmp/a.db", BusyTimeout: 2},
			want: "file:/tmp/a.db?_busy_timeout=2000&_foreign_keys=on",
		},
		{
			name: "mattn file with WAL",
			cfg:  Config{Driver: DriverMattn, Path: "/tmp/a.db", WALMode: true},
			want: "file:/tmp/a.db?_busy_timeout=0&_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL",
		},
		{
			name:    "unknown driver",
			cfg:     Config{Driver: "postgres", Path: "x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DSN(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDB_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("returns affected rows", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec("UPDATE tasks SET title = (?) WHERE id = (?);").
			WithArgs("x", "1").
			WillReturnResult(sqlmock.NewResult(0, 3))

		n, err := db.Run(ctx, "UPDATE tasks SET title = (?) WHERE id = (?);", "x", "1")
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps engine errors", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec("DELETE FROM tasks;").WillReturnError(assert.AnError)

		_, err := db.Run(ctx, "DELETE FROM tasks;")
		require.Error(t, err)
		assert.True(t, errors.Is(err, assert.AnError))
		assert.Contains(t, err.Error(), "executing statement")
	})
}

func TestDB_All(t *testing.T) {
	ctx := context.Background()

	t.Run("scans rows keyed by column", func(t *testing.T) {
		db, mock := newMock(t)
		rows := sqlmock.NewRows([]string{"id", "title", "tags"}).
			AddRow(int64(1), []byte("walk"), nil).
			AddRow(int64(2), "run", `["work"]`)
		mock.ExpectQuery("SELECT id, title, tags FROM tasks;").WillReturnRows(rows)

		got, err := db.All(ctx, "SELECT id, title, tags FROM tasks;")
		require.NoError(t, err)
		assert.Equal(t, []sqliter.Row{
			{"id": int64(1), "title": "walk", "tags": nil},
			{"id": int64(2), "title": "run", "tags": `["work"]`},
		}, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows is an empty slice", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery("SELECT id FROM tasks;").WillReturnRows(sqlmock.NewRows([]string{"id"}))

		got, err := db.All(ctx, "SELECT id FROM tasks;")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("wraps query errors", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery("SELECT id FROM tasks;").WillReturnError(assert.AnError)

		_, err := db.All(ctx, "SELECT id FROM tasks;")
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "querying rows")
	})

	t.Run("wraps iteration errors", func(t *testing.T) {
		db, mock := newMock(t)
		rows := sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).RowError(0, assert.AnError)
		mock.ExpectQuery("SELECT id FROM tasks;").WillReturnRows(rows)

		_, err := db.All(ctx, "SELECT id FROM tasks;")
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestDB_CloseAndHealthCheck(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := New(sqlDB, nil)

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	assert.NoError(t, db.HealthCheck(context.Background()))

	mock.ExpectClose()
	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, db.Path())
}

func TestOpen(t *testing.T) {
	t.Run("creates the directory and file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "app.db")
		db, err := Open(Config{Path: path, WALMode: true, BusyTimeout: 1}, testutil.NewTestLogger(t))
		require.NoError(t, err)
		defer db.Close()

		assert.Equal(t, path, db.Path())
		assert.NoError(t, db.HealthCheck(context.Background()))
	})

	t.Run("rejects an empty path", func(t *testing.T) {
		_, err := Open(Config{}, nil)
		assert.Error(t, err)
	})

	t.Run("rejects an unknown driver", func(t *testing.T) {
		_, err := Open(Config{Driver: "postgres", Path: MemoryPath}, nil)
		assert.Error(t, err)
	})
}
