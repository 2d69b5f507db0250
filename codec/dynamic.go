package codec

import (
	"errors"
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/furkanonder/glassjar/schema"
	"github.com/furkanonder/glassjar/utils"
)

var ErrUnsupportedValue = errors.New("unsupported value")

// Values of dynamic fields are stored in an envelope {$kind, $value}. The
// kind is the Go type string of a concrete value, or one of the names below
// for nil, []any and map[string]any, whose items carry their own envelope.
const (
	keyKind  = "$kind"
	keyValue = "$value"

	kindNil  = "nil"
	kindList = "list"
	kindDict = "dict"
)

func envelope(kind string, value any) bson.D {
	return bson.D{
		{Key: keyKind, Value: kind},
		{Key: keyValue, Value: value},
	}
}

// resolveType finds the type named by a kind or a type marker. The declared
// type of the field is always resolvable.
func resolveType(declared reflect.Type, name string) (reflect.Type, bool) {
	if name == declared.String() {
		return declared, true
	}
	return schema.LookupType(name)
}

func encodeDynamic(declared reflect.Type, value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return bson.D{{Key: keyKind, Value: kindNil}}, nil

	case reflect.Type:
		if t, ok := resolveType(declared, v.String()); !ok || t != v {
			return nil, fmt.Errorf("%w: type marker %s", ErrUnsupportedValue, v)
		}
		return bson.D{{Key: keyTypeOf, Value: v.String()}}, nil

	case []any:
		if v == nil {
			return envelope(kindList, nil), nil
		}
		items := make(bson.A, 0, len(v))
		for i, item := range v {
			encoded, err := encodeDynamic(declared, item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			items = append(items, encoded)
		}
		return envelope(kindList, items), nil

	case map[string]any:
		if v == nil {
			return envelope(kindDict, nil), nil
		}
		entries := make(bson.D, 0, len(v))
		for _, key := range utils.GetKeys(v) {
			encoded, err := encodeDynamic(declared, v[key])
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", key, err)
			}
			entries = append(entries, bson.E{Key: key, Value: encoded})
		}
		return envelope(kindDict, entries), nil
	}

	t := reflect.TypeOf(value)
	if resolved, ok := resolveType(declared, t.String()); !ok || resolved != t || schema.HasInterface(t) {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
	return envelope(t.String(), value), nil
}

func decodeDynamic(declared reflect.Type, raw bson.RawValue) (any, error) {
	doc, ok := raw.DocumentOK()
	if !ok {
		return nil, fmt.Errorf("expected a kind envelope, got %s", raw.Type)
	}

	if name, isMarker := doc.Lookup(keyTypeOf).StringValueOK(); isMarker {
		t, found := resolveType(declared, name)
		if !found {
			return nil, fmt.Errorf("unknown type marker '%s'", name)
		}
		return t, nil
	}

	kind, ok := doc.Lookup(keyKind).StringValueOK()
	if !ok {
		return nil, errors.New("missing kind")
	}
	if kind == kindNil {
		return nil, nil
	}

	value := doc.Lookup(keyValue)
	if value.IsZero() {
		return nil, fmt.Errorf("missing value of kind '%s'", kind)
	}

	switch kind {
	case kindList:
		if value.Type == bson.TypeNull {
			return []any(nil), nil
		}
		array, ok := value.ArrayOK()
		if !ok {
			return nil, fmt.Errorf("list stored as %s", value.Type)
		}
		values, err := array.Values()
		if err != nil {
			return nil, err
		}
		items := make([]any, 0, len(values))
		for i, v := range values {
			item, err := decodeDynamic(declared, v)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			items = append(items, item)
		}
		return items, nil

	case kindDict:
		if value.Type == bson.TypeNull {
			return map[string]any(nil), nil
		}
		d, ok := value.DocumentOK()
		if !ok {
			return nil, fmt.Errorf("dict stored as %s", value.Type)
		}
		elements, err := d.Elements()
		if err != nil {
			return nil, err
		}
		entries := make(map[string]any, len(elements))
		for _, element := range elements {
			entry, err := decodeDynamic(declared, element.Value())
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", element.Key(), err)
			}
			entries[element.Key()] = entry
		}
		return entries, nil
	}

	t, found := resolveType(declared, kind)
	if !found {
		return nil, fmt.Errorf("unknown kind '%s'", kind)
	}
	return decodeTyped(t, value)
}
