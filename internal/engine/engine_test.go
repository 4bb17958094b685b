package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mbutrovich/terrier/internal/catalog"
	cfgpkg "github.com/mbutrovich/terrier/internal/config"
)

func openTestEngine(t *testing.T, dir string) *Engine {
	t.Helper()
	eng, err := Open(Options{DataDir: dir, Config: cfgpkg.Default()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestOpenRejectsBadConfig(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.WAL.Buffers = 0
	_, err := Open(Options{DataDir: t.TempDir(), Config: cfg})
	require.Error(t, err)
}

func TestEngineLifecycle(t *testing.T) {
	dir := t.TempDir()
	eng := openTestEngine(t, dir)
	ctx := context.Background()

	require.NoError(t, eng.CheckHealth(ctx))

	tbl, err := eng.Catalog().CreateTable(ctx, "users", []catalog.Column{{Name: "id", Type: "bigint"}})
	require.NoError(t, err)
	require.NotZero(t, tbl.OID)

	require.NoError(t, eng.Checkpoint())
	require.NoError(t, eng.Close())
	require.NoError(t, eng.Close(), "close must be idempotent")
}

func TestCatalogSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	eng := openTestEngine(t, dir)
	_, err := eng.Catalog().CreateTable(ctx, "events", nil)
	require.NoError(t, err)
	require.NoError(t, eng.Close())

	eng2 := openTestEngine(t, dir)
	got, err := eng2.Catalog().GetTable("events")
	require.NoError(t, err)
	require.Equal(t, "events", got.Name)
}

func TestAppenderDurability(t *testing.T) {
	eng := openTestEngine(t, t.TempDir())
	require.NoError(t, eng.Appender().AppendSync(context.Background(), []byte("txn record")))
	require.NoError(t, eng.CheckHealth(context.Background()))
}
