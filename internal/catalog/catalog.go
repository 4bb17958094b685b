package catalog

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/mbutrovich/terrier/internal/storage/pebble"
	"github.com/mbutrovich/terrier/internal/wal"
	logpkg "github.com/mbutrovich/terrier/pkg/log"
)

var (
	// ErrTableExists is returned when creating a table whose name is taken.
	ErrTableExists = errors.New("catalog: table already exists")
	// ErrTableNotFound is returned when a named table does not exist.
	ErrTableNotFound = errors.New("catalog: table not found")
)

// Column describes one column of a table.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Table is a catalog table descriptor.
type Table struct {
	OID       uint64   `json:"oid"`
	Name      string   `json:"name"`
	Columns   []Column `json:"columns"`
	CreatedMs int64    `json:"createdMs"`
}

// logRecord is the shape of catalog mutations on the WAL.
type logRecord struct {
	Op    string `json:"op"` // "create" | "drop"
	Table Table  `json:"table"`
}

// Catalog manages table descriptors. Mutations are serialized through the
// WAL appender, so they also serialize against each other here.
type Catalog struct {
	db     *pebblestore.DB
	app    *wal.Appender
	logger logpkg.Logger

	mu      sync.Mutex
	lastOID uint64
}

// Open loads the oid counter and returns a Catalog.
func Open(db *pebblestore.DB, app *wal.Appender, logger logpkg.Logger) (*Catalog, error) {
	if logger == nil {
		logger = logpkg.NewLogger().WithComponent("catalog")
	}
	c := &Catalog{db: db, app: app, logger: logger}
	raw, err := db.Get(keyOIDCounter)
	switch {
	case err == nil && len(raw) >= 8:
		c.lastOID = binary.BigEndian.Uint64(raw[:8])
	case err != nil && !errors.Is(err, pebblestore.ErrNotFound):
		return nil, fmt.Errorf("catalog: load oid counter: %w", err)
	}
	return c, nil
}

// CreateTable assigns an oid, makes the creation durable on the WAL, then
// applies the descriptor to the store.
func (c *Catalog) CreateTable(ctx context.Context, name string, columns []Column) (Table, error) {
	if name == "" {
		return Table{}, errors.New("catalog: table name is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.Get(keyName(name)); err == nil {
		return Table{}, ErrTableExists
	} else if !errors.Is(err, pebblestore.ErrNotFound) {
		return Table{}, fmt.Errorf("catalog: name lookup: %w", err)
	}

	tbl := Table{
		OID:       c.lastOID + 1,
		Name:      name,
		Columns:   columns,
		CreatedMs: time.Now().UnixMilli(),
	}
	if err := c.logMutation(ctx, "create", tbl); err != nil {
		return Table{}, err
	}

	val, err := json.Marshal(tbl)
	if err != nil {
		return Table{}, fmt.Errorf("catalog: marshal table: %w", err)
	}
	var oidBE [8]byte
	binary.BigEndian.PutUint64(oidBE[:], tbl.OID)

	b := c.db.NewBatch()
	_ = b.Set(keyTable(tbl.OID), val, nil)
	_ = b.Set(keyName(name), oidBE[:], nil)
	_ = b.Set(keyOIDCounter, oidBE[:], nil)
	if err := c.db.CommitBatch(b); err != nil {
		return Table{}, fmt.Errorf("catalog: apply create: %w", err)
	}
	c.lastOID = tbl.OID
	c.logger.Info("created table", logpkg.Str("name", name), logpkg.Int64("oid", int64(tbl.OID)))
	return tbl, nil
}

// DropTable makes the drop durable on the WAL, then removes the descriptor.
func (c *Catalog) DropTable(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tbl, err := c.getByName(name)
	if err != nil {
		return err
	}
	if err := c.logMutation(ctx, "drop", tbl); err != nil {
		return err
	}

	b := c.db.NewBatch()
	_ = b.Delete(keyTable(tbl.OID), nil)
	_ = b.Delete(keyName(name), nil)
	if err := c.db.CommitBatch(b); err != nil {
		return fmt.Errorf("catalog: apply drop: %w", err)
	}
	c.logger.Info("dropped table", logpkg.Str("name", name), logpkg.Int64("oid", int64(tbl.OID)))
	return nil
}

// GetTable returns the descriptor for the named table.
func (c *Catalog) GetTable(name string) (Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getByName(name)
}

// ListTables returns all descriptors ordered by name.
func (c *Catalog) ListTables() ([]Table, error) {
	lower, upper := tableScanBounds()
	it, err := c.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var tables []Table
	for it.First(); it.Valid(); it.Next() {
		var tbl Table
		if err := json.Unmarshal(it.Value(), &tbl); err != nil {
			return nil, fmt.Errorf("catalog: decode table %q: %w", it.Key(), err)
		}
		tables = append(tables, tbl)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })
	return tables, nil
}

func (c *Catalog) getByName(name string) (Table, error) {
	raw, err := c.db.Get(keyName(name))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return Table{}, ErrTableNotFound
	}
	if err != nil {
		return Table{}, fmt.Errorf("catalog: name lookup: %w", err)
	}
	oid := binary.BigEndian.Uint64(raw)
	val, err := c.db.Get(keyTable(oid))
	if err != nil {
		return Table{}, fmt.Errorf("catalog: load table %d: %w", oid, err)
	}
	var tbl Table
	if err := json.Unmarshal(val, &tbl); err != nil {
		return Table{}, fmt.Errorf("catalog: decode table %d: %w", oid, err)
	}
	return tbl, nil
}

// logMutation writes the mutation record through the durability pipeline and
// blocks until its covering flush completes.
func (c *Catalog) logMutation(ctx context.Context, op string, tbl Table) error {
	rec, err := json.Marshal(logRecord{Op: op, Table: tbl})
	if err != nil {
		return fmt.Errorf("catalog: marshal log record: %w", err)
	}
	if err := c.app.AppendSync(ctx, rec); err != nil {
		return fmt.Errorf("catalog: log %s of %q: %w", op, tbl.Name, err)
	}
	return nil
}
