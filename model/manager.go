// Package model binds record types to a database: Register declares a type
// and returns its Manager, which creates and queries Records.
package model

import (
	"fmt"
	"sort"

	"github.com/furkanonder/glassjar/codec"
	"github.com/furkanonder/glassjar/database"
	"github.com/furkanonder/glassjar/schema"
	"github.com/furkanonder/glassjar/table"
)

// ErrDoesNotExist is returned when an identifier is absent from its table.
var ErrDoesNotExist = table.ErrRecordNotFound

// Manager issues queries for one record type against its table.
type Manager struct {
	schema *schema.Schema
	db     *database.Database
}

// Register declares the record type typeName and guarantees its table
// exists. It is meant to be called once per type at program start.
func Register(db *database.Database, typeName string, fields ...*schema.Field) (*Manager, error) {
	s, err := schema.New(typeName, fields...)
	if err != nil {
		return nil, err
	}
	return RegisterSchema(db, s)
}

func RegisterDeclaration(db *database.Database, d schema.Declaration) (*Manager, error) {
	s, err := d.Schema()
	if err != nil {
		return nil, err
	}
	return RegisterSchema(db, s)
}

func RegisterSchema(db *database.Database, s *schema.Schema) (*Manager, error) {
	err := db.Registry().Add(s)
	if err != nil {
		return nil, err
	}

	err = db.CreateTable(s.TableName)
	if err != nil {
		return nil, fmt.Errorf("create table '%s': %w", s.TableName, err)
	}

	return &Manager{
		schema: s,
		db:     db,
	}, nil
}

func (m *Manager) Schema() *schema.Schema {
	return m.schema
}

func (m *Manager) TableName() string {
	return m.schema.TableName
}

// New builds an unsaved record, validating every value.
func (m *Manager) New(values map[string]any) (*Record, error) {
	r := &Record{
		manager: m,
		slots:   map[string]any{},
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		err := r.Set(name, values[name])
		if err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Create builds a record and saves it before returning.
func (m *Manager) Create(values map[string]any) (*Record, error) {
	r, err := m.New(values)
	if err != nil {
		return nil, err
	}

	err = r.Save()
	if err != nil {
		return nil, err
	}

	return r, nil
}

func (m *Manager) Get(id int64) (*Record, error) {
	stored, err := m.db.GetRecord(m.schema.TableName, id)
	if err != nil {
		return nil, err
	}
	return m.fromCodec(stored)
}

// All reads the whole table again on every call.
func (m *Manager) All() (QuerySet, error) {
	stored, err := m.db.AllRecords(m.schema.TableName)
	if err != nil {
		return nil, err
	}

	result := make(QuerySet, 0, len(stored))
	for _, s := range stored {
		r, err := m.fromCodec(s)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}

	return result, nil
}

func (m *Manager) Count() (int, error) {
	all, err := m.All()
	if err != nil {
		return 0, err
	}
	return all.Count(), nil
}

// First returns the record with the lowest identifier, or nil when the
// table is empty.
func (m *Manager) First() (*Record, error) {
	all, err := m.All()
	if err != nil {
		return nil, err
	}
	return all.First(), nil
}

// Last returns the record with the highest identifier, or nil when the
// table is empty.
func (m *Manager) Last() (*Record, error) {
	all, err := m.All()
	if err != nil {
		return nil, err
	}
	return all.Last(), nil
}

func (m *Manager) Delete(id int64) error {
	return m.db.DeleteRecord(m.schema.TableName, id)
}

func (m *Manager) fromCodec(stored *codec.Record) (*Record, error) {
	if stored.Type != m.schema.TypeName {
		return nil, fmt.Errorf("%w: '%s' record in '%s'", codec.ErrCorruptRecord, stored.Type, m.schema.TableName)
	}

	r := &Record{
		manager: m,
		id:      stored.ID,
		slots:   map[string]any{},
	}
	for _, f := range m.schema.Fields {
		value, ok := stored.Fields[f.Name]
		if !ok {
			continue
		}
		err := f.Set(r.slots, value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", codec.ErrCorruptRecord, err)
		}
	}

	return r, nil
}

// QuerySet is the result of a scan, ordered by identifier.
type QuerySet []*Record

func (q QuerySet) Count() int {
	return len(q)
}

// First returns nil on an empty set.
func (q QuerySet) First() *Record {
	if len(q) == 0 {
		return nil
	}
	return q[0]
}

// Last returns nil on an empty set.
func (q QuerySet) Last() *Record {
	if len(q) == 0 {
		return nil
	}
	return q[len(q)-1]
}

func (q QuerySet) AsDict() map[int64]map[string]any {
	result := make(map[int64]map[string]any, len(q))
	for _, r := range q {
		result[r.id] = r.AsDict(false)
	}
	return result
}
