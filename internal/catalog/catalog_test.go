package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pebblestore "github.com/mbutrovich/terrier/internal/storage/pebble"
	"github.com/mbutrovich/terrier/internal/wal"
)

type fixture struct {
	db   *pebblestore.DB
	pipe *wal.Pipeline
	cat  *Catalog
	wal  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	db, err := pebblestore.Open(pebblestore.Options{DataDir: filepath.Join(dir, "store")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	walPath := filepath.Join(dir, "wal", "terrier.wal")
	pipe, err := wal.New(wal.DefaultOptions(walPath))
	require.NoError(t, err)
	pipe.Start()
	t.Cleanup(func() { _ = pipe.Close() })

	cat, err := Open(db, wal.NewAppender(pipe), nil)
	require.NoError(t, err)
	return &fixture{db: db, pipe: pipe, cat: cat, wal: walPath}
}

func TestCreateGetListDrop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cols := []Column{{Name: "id", Type: "bigint"}, {Name: "name", Type: "varchar"}}
	tbl, err := f.cat.CreateTable(ctx, "users", cols)
	require.NoError(t, err)
	require.Equal(t, uint64(1), tbl.OID)

	got, err := f.cat.GetTable("users")
	require.NoError(t, err)
	require.Equal(t, tbl.OID, got.OID)
	require.Equal(t, cols, got.Columns)

	_, err = f.cat.CreateTable(ctx, "orders", nil)
	require.NoError(t, err)

	tables, err := f.cat.ListTables()
	require.NoError(t, err)
	require.Len(t, tables, 2)
	require.Equal(t, "orders", tables[0].Name)
	require.Equal(t, "users", tables[1].Name)

	require.NoError(t, f.cat.DropTable(ctx, "orders"))
	_, err = f.cat.GetTable("orders")
	require.ErrorIs(t, err, ErrTableNotFound)
}

func TestCreateDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cat.CreateTable(ctx, "t", nil)
	require.NoError(t, err)
	_, err = f.cat.CreateTable(ctx, "t", nil)
	require.ErrorIs(t, err, ErrTableExists)
}

func TestDropMissing(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.cat.DropTable(context.Background(), "nope"), ErrTableNotFound)
}

// A create must leave a durable record on the WAL before becoming visible.
func TestMutationIsLoggedBeforeVisible(t *testing.T) {
	f := newFixture(t)
	_, err := f.cat.CreateTable(context.Background(), "logged", nil)
	require.NoError(t, err)

	info, err := os.Stat(f.wal)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0), "catalog mutation left no WAL record")
}

// Reopening the catalog must continue the oid sequence.
func TestOIDCounterSurvivesReopen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.cat.CreateTable(ctx, "a", nil)
	require.NoError(t, err)

	reopened, err := Open(f.db, wal.NewAppender(f.pipe), nil)
	require.NoError(t, err)
	second, err := reopened.CreateTable(ctx, "b", nil)
	require.NoError(t, err)
	require.Equal(t, first.OID+1, second.OID)
}
