// Package codec turns records into self-describing BSON blobs and back.
//
// A blob is a document {type, id, fields}. The type tag selects the schema
// used to decode every field into a fresh value of its declared Go type.
// Fields that are unvalidated or hold interface values keep the concrete
// type of every value next to it, so they decode to the same Go values.
package codec

import (
	"errors"
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/furkanonder/glassjar/schema"
)

var (
	ErrCorruptRecord = errors.New("corrupt record")
	ErrUnknownType   = errors.New("unknown record type")
)

const (
	keyType   = "type"
	keyID     = "id"
	keyFields = "fields"

	// keyTypeOf marks a value that is a type object instead of data
	keyTypeOf = "$typeof"
)

// Record is the persisted form of a record: a type tag, an optional
// identifier (0 when unsaved) and field values by field name.
type Record struct {
	Type   string
	ID     int64
	Fields map[string]any
}

type Codec struct {
	registry *schema.Registry
}

func New(registry *schema.Registry) *Codec {
	return &Codec{
		registry: registry,
	}
}

func (c *Codec) Encode(record *Record) ([]byte, error) {
	s, ok := c.registry.Get(record.Type)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownType, record.Type)
	}

	for name := range record.Fields {
		if _, ok := s.Field(name); !ok {
			return nil, fmt.Errorf("%w: '%s' in '%s'", schema.ErrUnknownField, name, s.TypeName)
		}
	}

	fields := bson.D{}
	for _, f := range s.Fields {
		value, ok := record.Fields[f.Name]
		if !ok {
			continue
		}
		encoded, err := encodeValue(f, value)
		if err != nil {
			return nil, fmt.Errorf("field '%s' of '%s': %w", f.Name, s.TypeName, err)
		}
		fields = append(fields, bson.E{Key: f.Name, Value: encoded})
	}

	doc := bson.D{{Key: keyType, Value: s.TypeName}}
	if record.ID != 0 {
		doc = append(doc, bson.E{Key: keyID, Value: record.ID})
	}
	doc = append(doc, bson.E{Key: keyFields, Value: fields})

	data, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("bson encode record '%s': %w", s.TypeName, err)
	}

	return data, nil
}

func (c *Codec) Decode(data []byte) (*Record, error) {
	raw := bson.Raw(data)
	if err := raw.Validate(); err != nil {
		return nil, corrupt("invalid document: %v", err)
	}

	typeName, ok := raw.Lookup(keyType).StringValueOK()
	if !ok {
		return nil, corrupt("missing type tag")
	}
	s, ok := c.registry.Get(typeName)
	if !ok {
		return nil, corrupt("unknown type tag '%s'", typeName)
	}

	record := &Record{
		Type:   typeName,
		Fields: map[string]any{},
	}

	if idValue, err := raw.LookupErr(keyID); err == nil {
		id, ok := idValue.Int64OK()
		if !ok || id <= 0 {
			return nil, corrupt("invalid identifier in '%s'", typeName)
		}
		record.ID = id
	}

	fieldsDoc, ok := raw.Lookup(keyFields).DocumentOK()
	if !ok {
		return nil, corrupt("missing fields in '%s'", typeName)
	}
	elements, err := fieldsDoc.Elements()
	if err != nil {
		return nil, corrupt("fields of '%s': %v", typeName, err)
	}

	for _, element := range elements {
		name := element.Key()
		f, ok := s.Field(name)
		if !ok {
			return nil, corrupt("unknown field '%s' in '%s'", name, typeName)
		}
		value, err := decodeValue(f, element.Value())
		if err != nil {
			return nil, corrupt("field '%s' of '%s': %v", name, typeName, err)
		}
		record.Fields[name] = value
	}

	return record, nil
}

// encodeValue stores values of dynamic fields in a kind envelope, values of
// the declared type as plain BSON.
func encodeValue(f *schema.Field, value any) (any, error) {
	if f.Dynamic() {
		return encodeDynamic(f.Type, value)
	}
	if t, isType := value.(reflect.Type); isType {
		return bson.D{{Key: keyTypeOf, Value: t.String()}}, nil
	}
	return value, nil
}

func decodeValue(f *schema.Field, value bson.RawValue) (any, error) {
	if f.Dynamic() {
		return decodeDynamic(f.Type, value)
	}
	if isTypeMarker(f.Type, value) {
		return f.Type, nil
	}
	return decodeTyped(f.Type, value)
}

func decodeTyped(t reflect.Type, value bson.RawValue) (any, error) {
	ptr := reflect.New(t)
	err := value.Unmarshal(ptr.Interface())
	if err != nil {
		return nil, err
	}

	return ptr.Elem().Interface(), nil
}

func isTypeMarker(t reflect.Type, value bson.RawValue) bool {
	doc, ok := value.DocumentOK()
	if !ok {
		return false
	}
	elements, err := doc.Elements()
	if err != nil || len(elements) != 1 || elements[0].Key() != keyTypeOf {
		return false
	}
	name, ok := elements[0].Value().StringValueOK()
	return ok && name == t.String()
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptRecord, fmt.Sprintf(format, args...))
}
