// Package catalog maps table ids and names to their heap files and schemas.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"heapdb/pkg/dberror"
	"heapdb/pkg/logging"
	"heapdb/pkg/primitives"
	"heapdb/pkg/storage/page"
	"heapdb/pkg/tuple"
)

// TableInfo describes one registered table.
type TableInfo struct {
	File       page.DbFile
	Name       string
	PrimaryKey string
}

func (ti *TableInfo) GetID() primitives.TableID {
	return ti.File.GetID()
}

// Catalog is a thread-safe, in-memory registry of tables with lookups in both
// directions. It satisfies memory.TableProvider.
type Catalog struct {
	nameToTable map[string]*TableInfo
	idToTable   map[primitives.TableID]*TableInfo
	mutex       sync.RWMutex
}

func NewCatalog() *Catalog {
	return &Catalog{
		nameToTable: make(map[string]*TableInfo),
		idToTable:   make(map[primitives.TableID]*TableInfo),
	}
}

// AddTable registers f under name. A table with the same name or the same id
// is replaced; the replaced file is not closed.
func (c *Catalog) AddTable(f page.DbFile, name, pKey string) error {
	if f == nil {
		return fmt.Errorf("file cannot be nil")
	}
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	info := &TableInfo{File: f, Name: name, PrimaryKey: pKey}
	id := f.GetID()

	c.removeExistingTable(name, id)
	c.nameToTable[name] = info
	c.idToTable[id] = info

	logging.WithTable(id).WithField("name", name).Debug("table registered")
	return nil
}

// removeExistingTable must be called with the write lock held.
func (c *Catalog) removeExistingTable(name string, id primitives.TableID) {
	if old, ok := c.nameToTable[name]; ok {
		delete(c.idToTable, old.GetID())
		delete(c.nameToTable, name)
	}
	if old, ok := c.idToTable[id]; ok {
		delete(c.nameToTable, old.Name)
		delete(c.idToTable, id)
	}
}

func (c *Catalog) getTableInfo(id primitives.TableID) (*TableInfo, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	info, ok := c.idToTable[id]
	if !ok {
		return nil, dberror.Newf(dberror.ErrCategoryUser, "TABLE_NOT_FOUND", dberror.ErrTableNotFound,
			"table with id %d not found", id)
	}
	return info, nil
}

func (c *Catalog) GetDbFile(id primitives.TableID) (page.DbFile, error) {
	info, err := c.getTableInfo(id)
	if err != nil {
		return nil, err
	}
	return info.File, nil
}

func (c *Catalog) GetTupleDesc(id primitives.TableID) (*tuple.TupleDescription, error) {
	info, err := c.getTableInfo(id)
	if err != nil {
		return nil, err
	}
	return info.File.GetTupleDesc(), nil
}

func (c *Catalog) GetPrimaryKey(id primitives.TableID) (string, error) {
	info, err := c.getTableInfo(id)
	if err != nil {
		return "", err
	}
	return info.PrimaryKey, nil
}

func (c *Catalog) GetTableName(id primitives.TableID) (string, error) {
	info, err := c.getTableInfo(id)
	if err != nil {
		return "", err
	}
	return info.Name, nil
}

func (c *Catalog) GetTableID(name string) (primitives.TableID, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	info, ok := c.nameToTable[name]
	if !ok {
		return 0, dberror.Newf(dberror.ErrCategoryUser, "TABLE_NOT_FOUND", dberror.ErrTableNotFound,
			"table '%s' not found", name)
	}
	return info.GetID(), nil
}

func (c *Catalog) TableExists(name string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	_, ok := c.nameToTable[name]
	return ok
}

// TableIDs returns every registered id in ascending order.
func (c *Catalog) TableIDs() []primitives.TableID {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	ids := make([]primitives.TableID, 0, len(c.idToTable))
	for id := range c.idToTable {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// RemoveTable unregisters name and closes its file.
func (c *Catalog) RemoveTable(name string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	info, ok := c.nameToTable[name]
	if !ok {
		return dberror.Newf(dberror.ErrCategoryUser, "TABLE_NOT_FOUND", dberror.ErrTableNotFound,
			"table '%s' not found", name)
	}

	delete(c.nameToTable, name)
	delete(c.idToTable, info.GetID())
	return info.File.Close()
}

// Clear unregisters every table and closes its file. Close failures are
// logged and do not stop the others from closing.
func (c *Catalog) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for id, info := range c.idToTable {
		if err := info.File.Close(); err != nil {
			logging.WithTable(id).WithError(err).Warn("failed to close table file")
		}
	}

	c.nameToTable = make(map[string]*TableInfo)
	c.idToTable = make(map[primitives.TableID]*TableInfo)
}

func (c *Catalog) String() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	names := make([]string, 0, len(c.nameToTable))
	for name := range c.nameToTable {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Catalog(%d tables)\n", len(names))
	for _, name := range names {
		info := c.nameToTable[name]
		fmt.Fprintf(&sb, "  %s [id=%d, pk=%s] %s\n", name, info.GetID(), info.PrimaryKey, info.File.GetTupleDesc())
	}
	return sb.String()
}
