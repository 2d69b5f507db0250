package schema

import (
	"fmt"
	"io"
	"reflect"

	"gopkg.in/yaml.v3"
)

// Declaration is the declarative form of a record type, usually read from
// a YAML file:
//
//	types:
//	  - name: Item
//	    fields:
//	      - name: name
//	        type: string
//	      - name: count
//	        type: int
type Declaration struct {
	Name   string             `yaml:"name"`
	Fields []FieldDeclaration `yaml:"fields"`
}

type FieldDeclaration struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Validate *bool  `yaml:"validate,omitempty"` // defaults to true for typed fields
}

type declarationFile struct {
	Types []Declaration `yaml:"types"`
}

var typeNames = map[string]reflect.Type{
	"string":            TypeOf[string](),
	"int":               TypeOf[int](),
	"int32":             TypeOf[int32](),
	"int64":             TypeOf[int64](),
	"float32":           TypeOf[float32](),
	"float64":           TypeOf[float64](),
	"bool":              TypeOf[bool](),
	"bytes":             TypeOf[[]byte](),
	"[]string":          TypeOf[[]string](),
	"[]int":             TypeOf[[]int](),
	"[]float64":         TypeOf[[]float64](),
	"map[string]string": TypeOf[map[string]string](),
	"map[string]int":    TypeOf[map[string]int](),
	"[]any":             TypeOf[[]any](),
	"map[string]any":    TypeOf[map[string]any](),
	"any":               Any,
	"":                  Any,
}

// typesByString indexes the declarable types by their Go type string.
var typesByString = map[string]reflect.Type{}

func init() {
	for _, t := range typeNames {
		typesByString[t.String()] = t
	}
}

// LookupType resolves a Go type string, as produced by reflect.Type.String,
// among the declarable types.
func LookupType(name string) (reflect.Type, bool) {
	t, ok := typesByString[name]
	return t, ok
}

// ParseType maps a declared type name to its type tag.
func ParseType(name string) (reflect.Type, error) {
	t, ok := typeNames[name]
	if !ok {
		return nil, fmt.Errorf("unsupported type '%s'", name)
	}
	return t, nil
}

// LoadDeclarations reads a YAML document with a list of types.
func LoadDeclarations(r io.Reader) ([]Declaration, error) {
	file := declarationFile{}
	err := yaml.NewDecoder(r).Decode(&file)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return file.Types, nil
}

// Schema builds the schema described by d.
func (d Declaration) Schema() (*Schema, error) {
	fields := make([]*Field, 0, len(d.Fields))
	for _, fd := range d.Fields {
		t, err := ParseType(fd.Type)
		if err != nil {
			return nil, fmt.Errorf("type '%s' field '%s': %w", d.Name, fd.Name, err)
		}
		validate := t != Any
		if fd.Validate != nil {
			validate = *fd.Validate
		}
		fields = append(fields, newField(fd.Name, t, validate))
	}
	return New(d.Name, fields...)
}
