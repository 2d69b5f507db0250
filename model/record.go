package model

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/furkanonder/glassjar/codec"
	"github.com/furkanonder/glassjar/database"
	"github.com/furkanonder/glassjar/schema"
)

// Record is a live instance of a registered type. It is owned by the
// caller; reads from the database always build new instances.
type Record struct {
	manager *Manager
	id      int64 // 0 until saved
	slots   map[string]any
}

// ID returns the identifier, ok is false for unsaved records.
func (r *Record) ID() (id int64, ok bool) {
	return r.id, r.id != 0
}

func (r *Record) Schema() *schema.Schema {
	return r.manager.schema
}

func (r *Record) Get(name string) (any, error) {
	f, err := r.manager.schema.MustField(name)
	if err != nil {
		return nil, err
	}
	return f.Get(r.slots)
}

// Set validates and assigns one field. A failed Set leaves the previous
// value in place.
func (r *Record) Set(name string, value any) error {
	f, err := r.manager.schema.MustField(name)
	if err != nil {
		return err
	}
	return f.Set(r.slots, value)
}

// Save updates a saved record or creates a new one. The identifier is
// attached only once the record is on disk.
func (r *Record) Save() error {
	if r.id != 0 {
		return r.Update()
	}

	id, err := r.manager.db.CreateRecord(r.manager.schema.TableName, r.toCodec())
	if err != nil {
		return err
	}
	r.id = id

	return nil
}

// Update writes the fields that differ from the persisted record. Fields
// never set on r keep their persisted value.
func (r *Record) Update() error {
	if r.id == 0 {
		return fmt.Errorf("%w: record is not saved", ErrDoesNotExist)
	}

	tableName := r.manager.schema.TableName
	return r.manager.db.Do(func(s *database.Session) error {
		persisted, err := s.GetRecord(tableName, r.id)
		if err != nil {
			return err
		}

		for _, f := range r.manager.schema.Fields {
			value, set := r.slots[f.StorageKey]
			if !set {
				continue
			}
			current, exists := persisted.Fields[f.Name]
			if exists && reflect.DeepEqual(current, value) {
				continue
			}
			persisted.Fields[f.Name] = value
		}

		return s.UpdateRecord(tableName, r.id, persisted)
	})
}

// Delete removes the record from its table. Deleting twice fails with
// ErrDoesNotExist.
func (r *Record) Delete() error {
	if r.id == 0 {
		return fmt.Errorf("%w: record is not saved", ErrDoesNotExist)
	}
	return r.manager.Delete(r.id)
}

// AsDict returns the set fields by name.
func (r *Record) AsDict(includeID bool) map[string]any {
	result := map[string]any{}
	for _, f := range r.manager.schema.Fields {
		if value, set := r.slots[f.StorageKey]; set {
			result[f.Name] = value
		}
	}
	if includeID && r.id != 0 {
		result[schema.IdentifierName] = r.id
	}
	return result
}

// Equal reports whether both records have the same type, identifier and
// field values.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.manager.schema.TypeName == other.manager.schema.TypeName &&
		r.id == other.id &&
		reflect.DeepEqual(r.AsDict(false), other.AsDict(false))
}

func (r *Record) String() string {
	parts := []string{}
	if r.id != 0 {
		parts = append(parts, fmt.Sprintf("id=%d", r.id))
	}
	for _, f := range r.manager.schema.Fields {
		if value, set := r.slots[f.StorageKey]; set {
			parts = append(parts, fmt.Sprintf("%s=%#v", f.Name, value))
		}
	}
	return r.manager.schema.TypeName + "(" + strings.Join(parts, ", ") + ")"
}

func (r *Record) toCodec() *codec.Record {
	return &codec.Record{
		Type:   r.manager.schema.TypeName,
		ID:     r.id,
		Fields: r.AsDict(false),
	}
}
