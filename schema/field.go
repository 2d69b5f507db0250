package schema

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrAttributeNotSet  = errors.New("attribute not set")
	ErrUnknownField     = errors.New("unknown field")
	ErrDuplicateField   = errors.New("duplicate field")
	ErrReservedField    = errors.New("reserved field name")
	ErrInvalidFieldName = errors.New("invalid field name")
	ErrUnsupportedType  = errors.New("unsupported field type")
)

// Any is the declared type of untyped fields, they accept every value.
var Any = TypeOf[any]()

// TypeOf returns the type tag for T, also when T is an interface type.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Field is a named, typed slot of a record type.
type Field struct {
	Name       string
	StorageKey string
	Type       reflect.Type
	Validate   bool
}

// NewField declares a validating field of type T.
func NewField[T any](name string) *Field {
	return newField(name, TypeOf[T](), true)
}

// NewUntypedField declares a field that accepts any value.
func NewUntypedField(name string) *Field {
	return newField(name, Any, false)
}

func newField(name string, t reflect.Type, validate bool) *Field {
	return &Field{
		Name:       name,
		StorageKey: storageKey(name),
		Type:       t,
		Validate:   validate,
	}
}

func storageKey(name string) string {
	return "_" + name
}

// Unvalidated returns a copy of the field with type validation disabled.
func (f *Field) Unvalidated() *Field {
	c := *f
	c.Validate = false
	return &c
}

// Get returns the value stored for this field in slots.
func (f *Field) Get(slots map[string]any) (any, error) {
	value, ok := slots[f.StorageKey]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrAttributeNotSet, f.Name)
	}
	return value, nil
}

// IsSet reports whether slots hold a value for this field.
func (f *Field) IsSet(slots map[string]any) bool {
	_, ok := slots[f.StorageKey]
	return ok
}

// Set validates value and stores it in slots. On error slots are untouched.
func (f *Field) Set(slots map[string]any, value any) error {
	if err := f.Check(value); err != nil {
		return err
	}
	slots[f.StorageKey] = value
	return nil
}

// Check validates value against the declared type without storing it.
func (f *Field) Check(value any) error {
	if !f.Validate || f.Type == Any {
		return nil
	}
	if reflect.TypeOf(value) == f.Type {
		return nil
	}
	if IsTypeMarker(f.Type, value) {
		return nil
	}
	return fmt.Errorf("%w: field '%s' expects %s, got %T", ErrTypeMismatch, f.Name, f.Type, value)
}

// Dynamic reports whether the stored value does not have to be of the
// declared type, or may hold interface values whose concrete types must be
// recorded alongside the data.
func (f *Field) Dynamic() bool {
	return !f.Validate || HasInterface(f.Type)
}

// HasInterface reports whether t is, or contains, an interface type.
func HasInterface(t reflect.Type) bool {
	return hasInterface(t, map[reflect.Type]bool{})
}

func hasInterface(t reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return false
	}
	seen[t] = true

	switch t.Kind() {
	case reflect.Interface:
		return true
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return hasInterface(t.Elem(), seen)
	case reflect.Map:
		return hasInterface(t.Key(), seen) || hasInterface(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasInterface(t.Field(i).Type, seen) {
				return true
			}
		}
	}
	return false
}

// checkType accepts concrete types and the interface-holding types the
// codec can round-trip: any, []any and map[string]any.
func checkType(t reflect.Type) error {
	switch t {
	case Any, TypeOf[[]any](), TypeOf[map[string]any]():
		return nil
	}
	if HasInterface(t) {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	return nil
}

// IsTypeMarker reports whether value is the type object t itself.
func IsTypeMarker(t reflect.Type, value any) bool {
	marker, ok := value.(reflect.Type)
	return ok && marker == t
}
