package main

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/fulldump/biff"

	"github.com/furkanonder/glassjar/codec"
	"github.com/furkanonder/glassjar/configuration"
	"github.com/furkanonder/glassjar/database"
	"github.com/furkanonder/glassjar/model"
)

const schemaYAML = `
types:
  - name: Item
    fields:
      - name: name
        type: string
      - name: count
        type: int
`

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, fmt.Sprintf("inspect-%v.jar", time.Now().UnixNano()))
	schemaFile := filepath.Join(dir, "schema.yaml")
	os.WriteFile(schemaFile, []byte(schemaYAML), 0666)

	{
		db := database.NewDatabase(&database.Config{Path: filename})
		loadSchema(db, schemaFile)
		s, _ := db.Registry().Get("Item")
		items, err := model.RegisterSchema(db, s)
		biff.AssertNil(err)
		items.Create(map[string]any{"name": "widget", "count": 3})
	}

	c := configuration.Default()
	c.File = filename
	c.Schema = schemaFile

	db := database.NewDatabase(&database.Config{Path: c.File})
	biff.AssertNil(inspect(db, c))

	_, known := db.Registry().ByTable("Item_table")
	biff.AssertTrue(known)
}

func TestLoadSchema_Missing(t *testing.T) {
	db := database.NewDatabase(&database.Config{Path: filepath.Join(t.TempDir(), "x.jar")})
	biff.AssertNotNil(loadSchema(db, filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestPrintable(t *testing.T) {
	p := printable(&codec.Record{
		Type:   "Item",
		ID:     4,
		Fields: map[string]any{"name": "widget", "kind": reflect.TypeOf(0)},
	})
	biff.AssertEqual(p, map[string]any{"id": int64(4), "name": "widget", "kind": "int"})
}

func TestPrintJSON_Error(t *testing.T) {
	err := printJSON(map[string]any{"stream": make(chan int)})
	biff.AssertNotNil(err)
}
