package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/furkanonder/glassjar/database"
	"github.com/furkanonder/glassjar/schema"
)

func Environment(f func(db *database.Database, items *Manager)) {
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("glassjar-model-%v.jar", time.Now().UnixNano()))
	defer os.Remove(filename)

	db := database.NewDatabase(&database.Config{
		Path: filename,
	})

	items, err := Register(db, "Item",
		schema.NewField[string]("name"),
		schema.NewField[int]("count"),
	)
	if err != nil {
		panic(err)
	}

	f(db, items)
}
