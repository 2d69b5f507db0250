package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/furkanonder/glassjar/codec"
	"github.com/furkanonder/glassjar/schema"
)

func Environment(f func(filename string)) {
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("glassjar-%v.jar", time.Now().UnixNano()))
	defer os.Remove(filename)

	f(filename)
}

func newTestDatabase(filename string, writeBack bool) *Database {
	db := NewDatabase(&Config{
		Path:      filename,
		WriteBack: writeBack,
	})
	item, _ := schema.New("Item",
		schema.NewField[string]("name"),
		schema.NewField[int]("count"),
	)
	db.Registry().Add(item)
	return db
}

func newItem(name string, count int) *codec.Record {
	return &codec.Record{
		Type: "Item",
		Fields: map[string]any{
			"name":  name,
			"count": count,
		},
	}
}
