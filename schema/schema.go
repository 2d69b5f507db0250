package schema

import (
	"errors"
	"fmt"
	"sync"
)

const IdentifierName = "id"

var ErrAlreadyRegistered = errors.New("type already registered")

// Schema describes one record type. It is immutable once built.
type Schema struct {
	TypeName  string
	TableName string
	Fields    []*Field

	byName map[string]*Field
}

// TableName returns the table that stores records of typeName.
func TableName(typeName string) string {
	return typeName + "_table"
}

// New builds a schema, fields keep their declaration order.
func New(typeName string, fields ...*Field) (*Schema, error) {
	if typeName == "" {
		return nil, errors.New("type name is required")
	}

	s := &Schema{
		TypeName:  typeName,
		TableName: TableName(typeName),
		Fields:    make([]*Field, 0, len(fields)),
		byName:    map[string]*Field{},
	}

	storageKeys := map[string]string{}
	for i, f := range fields {
		if f == nil || f.Name == "" {
			return nil, fmt.Errorf("%w: field %d of '%s'", ErrInvalidFieldName, i, typeName)
		}
		if f.Name == IdentifierName {
			return nil, fmt.Errorf("%w: '%s'", ErrReservedField, f.Name)
		}
		if f.Type == nil {
			return nil, fmt.Errorf("field '%s': type is required", f.Name)
		}
		if err := checkType(f.Type); err != nil {
			return nil, fmt.Errorf("field '%s': %w", f.Name, err)
		}
		if _, exists := s.byName[f.Name]; exists {
			return nil, fmt.Errorf("%w: '%s'", ErrDuplicateField, f.Name)
		}
		if other, exists := storageKeys[f.StorageKey]; exists {
			return nil, fmt.Errorf("%w: '%s' and '%s' share storage key '%s'", ErrDuplicateField, other, f.Name, f.StorageKey)
		}
		storageKeys[f.StorageKey] = f.Name

		c := *f
		s.Fields = append(s.Fields, &c)
		s.byName[c.Name] = &c
	}

	return s, nil
}

// Field returns the field called name.
func (s *Schema) Field(name string) (*Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// MustField is like Field but fails with ErrUnknownField.
func (s *Schema) MustField(name string) (*Field, error) {
	f, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s' in '%s'", ErrUnknownField, name, s.TypeName)
	}
	return f, nil
}

// Registry resolves type names to schemas.
type Registry struct {
	mutex   sync.RWMutex
	schemas map[string]*Schema
}

func NewRegistry() *Registry {
	return &Registry{
		schemas: map[string]*Schema{},
	}
}

// Add registers s. Adding the same schema twice is a no-op.
func (r *Registry) Add(s *Schema) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, exists := r.schemas[s.TypeName]
	if exists && existing != s {
		return fmt.Errorf("%w: '%s'", ErrAlreadyRegistered, s.TypeName)
	}
	r.schemas[s.TypeName] = s
	return nil
}

func (r *Registry) Get(typeName string) (*Schema, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	s, ok := r.schemas[typeName]
	return s, ok
}

// ByTable returns the schema stored in tableName.
func (r *Registry) ByTable(tableName string) (*Schema, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, s := range r.schemas {
		if s.TableName == tableName {
			return s, true
		}
	}
	return nil, false
}
