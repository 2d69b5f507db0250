package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/furkanonder/glassjar/codec"
	"github.com/furkanonder/glassjar/table"
	"github.com/furkanonder/glassjar/utils"
)

// File format: one BSON document holding every table. Tables are sorted by
// name and records by identifier so the same state always produces the
// same bytes.
const fileVersion = 1

type fileImage struct {
	Version int          `bson:"version"`
	Tables  []tableImage `bson:"tables"`
}

type tableImage struct {
	Name    string        `bson:"name"`
	Index   int64         `bson:"index"`
	Records []recordImage `bson:"records"`
}

type recordImage struct {
	ID   int64  `bson:"id"`
	Data []byte `bson:"data"`
}

// readFile loads the whole file. exists is false when the file is absent or
// empty, which stands for a database with no tables.
func readFile(path string) (tables map[string]*table.Table, exists bool, err error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]*table.Table{}, false, nil
	}
	if err != nil {
		return nil, false, wrapIO("read database file", err)
	}
	if len(data) == 0 {
		return map[string]*table.Table{}, false, nil
	}

	tables, err = decodeImage(data)
	if err != nil {
		return nil, true, err
	}
	return tables, true, nil
}

func decodeImage(data []byte) (map[string]*table.Table, error) {
	image := fileImage{}
	err := bson.Unmarshal(data, &image)
	if err != nil {
		return nil, fmt.Errorf("%w: database file: %v", codec.ErrCorruptRecord, err)
	}
	if image.Version != fileVersion {
		return nil, fmt.Errorf("%w: database file version %d", codec.ErrCorruptRecord, image.Version)
	}

	tables := make(map[string]*table.Table, len(image.Tables))
	for _, ti := range image.Tables {
		if _, exists := tables[ti.Name]; exists {
			return nil, fmt.Errorf("%w: duplicated table '%s'", codec.ErrCorruptRecord, ti.Name)
		}
		t := table.New()
		for _, ri := range ti.Records {
			if ri.ID <= 0 || ri.ID >= ti.Index {
				return nil, fmt.Errorf("%w: table '%s' record id %d out of range", codec.ErrCorruptRecord, ti.Name, ri.ID)
			}
			t.Put(ri.ID, ri.Data)
		}
		t.Index = ti.Index
		tables[ti.Name] = t
	}

	return tables, nil
}

func encodeImage(tables map[string]*table.Table) ([]byte, error) {
	image := fileImage{
		Version: fileVersion,
		Tables:  make([]tableImage, 0, len(tables)),
	}

	for _, name := range utils.GetKeys(tables) {
		t := tables[name]
		ti := tableImage{
			Name:    name,
			Index:   t.Index,
			Records: make([]recordImage, 0, t.Len()),
		}
		t.Traverse(func(row *table.Row) bool {
			ti.Records = append(ti.Records, recordImage{ID: row.ID, Data: row.Payload})
			return true
		})
		image.Tables = append(image.Tables, ti)
	}

	data, err := bson.Marshal(image)
	if err != nil {
		return nil, fmt.Errorf("bson encode database file: %w", err)
	}
	return data, nil
}

// writeFile replaces path with data in a single step: data goes to a temp
// file in the same directory which is then renamed over path.
func writeFile(path string, data []byte, mode os.FileMode) error {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp-"+uuid.NewString())

	err := os.WriteFile(tmp, data, mode)
	if err != nil {
		os.Remove(tmp)
		return wrapIO("write database file", err)
	}

	err = os.Rename(tmp, path)
	if err != nil {
		os.Remove(tmp)
		return wrapIO("replace database file", err)
	}

	return nil
}

func writePlaceholder(path string, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, mode)
	if err != nil {
		return wrapIO("create database file", err)
	}
	return f.Close()
}
