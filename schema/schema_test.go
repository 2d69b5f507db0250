package schema

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	. "github.com/fulldump/biff"
)

func TestField_SetGet(t *testing.T) {
	f := NewField[string]("name")
	slots := map[string]any{}

	_, err := f.Get(slots)
	AssertTrue(errors.Is(err, ErrAttributeNotSet))

	AssertNil(f.Set(slots, "widget"))
	value, err := f.Get(slots)
	AssertNil(err)
	AssertEqual(value, "widget")
	AssertEqual(slots, map[string]any{"_name": "widget"})
}

func TestField_ValidationGate(t *testing.T) {
	f := NewField[int]("count")
	slots := map[string]any{}
	AssertNil(f.Set(slots, 3))

	err := f.Set(slots, "three")
	AssertTrue(errors.Is(err, ErrTypeMismatch))

	err = f.Set(slots, int64(4)) // no implicit coercion
	AssertTrue(errors.Is(err, ErrTypeMismatch))

	err = f.Set(slots, nil)
	AssertTrue(errors.Is(err, ErrTypeMismatch))

	value, _ := f.Get(slots)
	AssertEqual(value, 3)
}

func TestField_TypeMarker(t *testing.T) {
	f := NewField[int]("count")
	slots := map[string]any{}

	AssertNil(f.Set(slots, reflect.TypeOf(0)))
	err := f.Set(slots, reflect.TypeOf(""))
	AssertTrue(errors.Is(err, ErrTypeMismatch))
}

func TestField_Unvalidated(t *testing.T) {
	f := NewField[int]("count").Unvalidated()
	slots := map[string]any{}
	AssertNil(f.Set(slots, "anything"))

	u := NewUntypedField("extra")
	AssertNil(u.Set(slots, []any{1, "two"}))
	AssertEqual(u.Type, Any)
}

func TestNew(t *testing.T) {
	s, err := New("Item", NewField[string]("name"), NewField[int]("count"))
	AssertNil(err)
	AssertEqual(s.TableName, "Item_table")
	AssertEqual(len(s.Fields), 2)
	AssertEqual(s.Fields[0].Name, "name")
	AssertEqual(s.Fields[0].StorageKey, "_name")

	_, ok := s.Field("count")
	AssertTrue(ok)
	_, err = s.MustField("missing")
	AssertTrue(errors.Is(err, ErrUnknownField))
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("Item", NewField[string]("name"), NewField[int]("name"))
	AssertTrue(errors.Is(err, ErrDuplicateField))

	_, err = New("Item", NewField[int]("id"))
	AssertTrue(errors.Is(err, ErrReservedField))

	_, err = New("Item", NewField[int](""))
	AssertTrue(errors.Is(err, ErrInvalidFieldName))

	clash := NewField[int]("other")
	clash.StorageKey = "_name"
	_, err = New("Item", NewField[string]("name"), clash)
	AssertTrue(errors.Is(err, ErrDuplicateField))

	_, err = New("Item", NewField[[]map[string]any]("rows"))
	AssertTrue(errors.Is(err, ErrUnsupportedType))
}

func TestField_Dynamic(t *testing.T) {
	AssertFalse(NewField[int]("count").Dynamic())
	AssertTrue(NewField[int]("count").Unvalidated().Dynamic())
	AssertTrue(NewField[map[string]any]("meta").Dynamic())
	AssertTrue(NewUntypedField("extra").Dynamic())

	_, err := New("Doc", NewField[map[string]any]("meta"), NewField[[]any]("list"), NewUntypedField("extra"))
	AssertNil(err)

	found, ok := LookupType("[]uint8")
	AssertTrue(ok)
	AssertEqual(found, reflect.TypeOf([]byte{}))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	item, _ := New("Item", NewField[string]("name"))

	AssertNil(r.Add(item))
	AssertNil(r.Add(item))

	other, _ := New("Item", NewField[int]("count"))
	AssertTrue(errors.Is(r.Add(other), ErrAlreadyRegistered))

	found, ok := r.Get("Item")
	AssertTrue(ok)
	AssertEqual(found, item)

	found, ok = r.ByTable("Item_table")
	AssertTrue(ok)
	AssertEqual(found, item)

	_, ok = r.Get("Car")
	AssertFalse(ok)
}

func TestLoadDeclarations(t *testing.T) {
	doc := `
types:
  - name: Car
    fields:
      - name: brand
        type: string
      - name: year
        type: int
      - name: tags
        type: "[]string"
      - name: notes
        type: any
      - name: loose
        type: int
        validate: false
`
	declarations, err := LoadDeclarations(strings.NewReader(doc))
	AssertNil(err)
	AssertEqual(len(declarations), 1)

	s, err := declarations[0].Schema()
	AssertNil(err)
	AssertEqual(s.TypeName, "Car")
	AssertEqual(s.TableName, "Car_table")

	year, _ := s.Field("year")
	AssertEqual(year.Type, reflect.TypeOf(0))
	AssertTrue(year.Validate)

	tags, _ := s.Field("tags")
	AssertEqual(tags.Type, reflect.TypeOf([]string{}))

	notes, _ := s.Field("notes")
	AssertEqual(notes.Type, Any)
	AssertFalse(notes.Validate)

	loose, _ := s.Field("loose")
	AssertFalse(loose.Validate)
}

func TestLoadDeclarations_Errors(t *testing.T) {
	declarations, err := LoadDeclarations(strings.NewReader(""))
	AssertNil(err)
	AssertEqual(len(declarations), 0)

	declarations, err = LoadDeclarations(strings.NewReader("types:\n  - name: X\n    fields:\n      - name: a\n        type: complex128\n"))
	AssertNil(err)
	_, err = declarations[0].Schema()
	AssertNotNil(err)
}
