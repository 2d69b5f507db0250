package main

import (
	"fmt"
	"os"
	"reflect"

	"github.com/fulldump/goconfig"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"go.uber.org/zap"

	"github.com/furkanonder/glassjar/codec"
	"github.com/furkanonder/glassjar/configuration"
	"github.com/furkanonder/glassjar/database"
	"github.com/furkanonder/glassjar/schema"
)

var VERSION = "dev"

type tableOutput struct {
	database.TableInfo `json:",inline"`
	Records []map[string]any `json:"records,omitempty"`
}

func main() {

	c := configuration.Default()
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("Version:", VERSION)
		return
	}

	if c.ShowConfig {
		err := printJSON(c)
		if err != nil {
			fmt.Fprintln(os.Stderr, "ERROR:", err.Error())
			os.Exit(1)
		}
	}

	logger := zap.NewNop()
	if c.Verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintln(os.Stderr, "ERROR:", err.Error())
			os.Exit(1)
		}
	}
	defer logger.Sync()

	db := database.NewDatabase(&database.Config{
		Path:      c.File,
		WriteBack: c.WriteBack,
		Logger:    logger,
	})

	err := inspect(db, c)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err.Error())
		os.Exit(1)
	}
}

func inspect(db *database.Database, c configuration.Configuration) error {

	if c.Schema != "" {
		err := loadSchema(db, c.Schema)
		if err != nil {
			return err
		}
	}

	tables, err := db.ListTables()
	if err != nil {
		return err
	}

	output := []tableOutput{}
	for _, info := range tables {
		if c.Table != "" && c.Table != info.Name {
			continue
		}
		t := tableOutput{TableInfo: info}
		if _, known := db.Registry().ByTable(info.Name); known {
			records, err := db.AllRecords(info.Name)
			if err != nil {
				return fmt.Errorf("table '%s': %w", info.Name, err)
			}
			for _, record := range records {
				t.Records = append(t.Records, printable(record))
			}
		}
		output = append(output, t)
	}

	return printJSON(output)
}

func loadSchema(db *database.Database, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open schema: %w", err)
	}
	defer f.Close()

	declarations, err := schema.LoadDeclarations(f)
	if err != nil {
		return fmt.Errorf("schema '%s': %w", filename, err)
	}

	for _, d := range declarations {
		s, err := d.Schema()
		if err != nil {
			return err
		}
		err = db.Registry().Add(s)
		if err != nil {
			return err
		}
	}

	return nil
}

func printable(record *codec.Record) map[string]any {
	result := map[string]any{
		schema.IdentifierName: record.ID,
	}
	for name, value := range record.Fields {
		if t, ok := value.(reflect.Type); ok {
			value = t.String()
		}
		result[name] = value
	}
	return result
}

func printJSON(v any) error {
	err := json.MarshalWrite(os.Stdout, v, jsontext.WithIndent("    "), json.Deterministic(true))
	if err != nil {
		return err
	}
	fmt.Println()
	return nil
}
