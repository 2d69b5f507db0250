package table

import (
	"errors"
	"fmt"

	"github.com/google/btree"
)

var ErrRecordNotFound = errors.New("record not found")

const degree = 32

type Row struct {
	ID      int64
	Payload []byte
}

// Less returns true if the row is less than the other row.
// This is required for btree.Item interface.
func (r *Row) Less(than *Row) bool {
	return r.ID < than.ID
}

// Table holds the serialized records of one record type plus its
// auto-increment counter. Index is always one more than the highest
// identifier ever assigned, even after deletes.
//
// Rows are never mutated once inserted, so clones can share them.
type Table struct {
	Index int64
	rows  *btree.BTreeG[*Row]
}

func New() *Table {
	return &Table{
		Index: 1,
		rows:  btree.NewG(degree, func(a, b *Row) bool { return a.Less(b) }),
	}
}

// NextIdentifier returns the current index and advances it.
func (t *Table) NextIdentifier() int64 {
	id := t.Index
	t.Index++
	return id
}

// Put stores payload under id, replacing any previous value.
func (t *Table) Put(id int64, payload []byte) {
	t.rows.ReplaceOrInsert(&Row{ID: id, Payload: payload})
	if id >= t.Index {
		t.Index = id + 1
	}
}

func (t *Table) Get(id int64) ([]byte, error) {
	row, found := t.rows.Get(&Row{ID: id})
	if !found {
		return nil, fmt.Errorf("%w: id %d", ErrRecordNotFound, id)
	}
	return row.Payload, nil
}

func (t *Table) Has(id int64) bool {
	return t.rows.Has(&Row{ID: id})
}

func (t *Table) Delete(id int64) error {
	_, found := t.rows.Delete(&Row{ID: id})
	if !found {
		return fmt.Errorf("%w: id %d", ErrRecordNotFound, id)
	}
	return nil
}

func (t *Table) Len() int {
	return t.rows.Len()
}

// Traverse visits rows by ascending identifier until f returns false.
func (t *Table) Traverse(f func(row *Row) bool) {
	t.rows.Ascend(f)
}

// Values returns every payload by ascending identifier.
func (t *Table) Values() [][]byte {
	values := make([][]byte, 0, t.rows.Len())
	t.Traverse(func(row *Row) bool {
		values = append(values, row.Payload)
		return true
	})
	return values
}

// Clone returns an independent copy, rows are shared copy-on-write.
func (t *Table) Clone() *Table {
	return &Table{
		Index: t.Index,
		rows:  t.rows.Clone(),
	}
}
