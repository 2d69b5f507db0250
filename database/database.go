package database

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/furkanonder/glassjar/codec"
	"github.com/furkanonder/glassjar/schema"
)

const DefaultPath = "database.jar"

var (
	ErrTableNotFound = errors.New("table not found")
	ErrSessionClosed = errors.New("session is closed")
)

type Config struct {
	Path string

	// WriteBack makes every session work on private copies of the tables it
	// touches, flushed into the file image on close.
	WriteBack bool

	FileMode os.FileMode
	Logger   *zap.Logger
}

// Database is the handle to one database file. It keeps no file state
// between operations: every operation runs in its own Session.
type Database struct {
	config   *Config
	logger   *zap.Logger
	registry *schema.Registry
	codec    *codec.Codec
}

func NewDatabase(config *Config) *Database {
	c := *config
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if c.FileMode == 0 {
		c.FileMode = 0666
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	registry := schema.NewRegistry()

	return &Database{
		config:   &c,
		logger:   c.Logger.With(zap.String("path", c.Path)),
		registry: registry,
		codec:    codec.New(registry),
	}
}

func (db *Database) Path() string {
	return db.config.Path
}

func (db *Database) Registry() *schema.Registry {
	return db.registry
}

func (db *Database) Codec() *codec.Codec {
	return db.codec
}

// Do runs f inside a session. The session is always closed, also when f
// fails; the error of f takes precedence over the close error.
func (db *Database) Do(f func(s *Session) error) error {
	s, err := db.Open()
	if err != nil {
		return err
	}

	err = f(s)
	closeErr := s.Close()
	if err != nil {
		return err
	}
	return closeErr
}

func (db *Database) CreateTable(name string) error {
	return db.Do(func(s *Session) error {
		_, err := s.EnsureTable(name)
		return err
	})
}

func (db *Database) CreateRecord(tableName string, record *codec.Record) (id int64, err error) {
	err = db.Do(func(s *Session) error {
		id, err = s.CreateRecord(tableName, record)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (db *Database) GetRecord(tableName string, id int64) (record *codec.Record, err error) {
	err = db.Do(func(s *Session) error {
		record, err = s.GetRecord(tableName, id)
		return err
	})
	return
}

func (db *Database) UpdateRecord(tableName string, id int64, record *codec.Record) error {
	return db.Do(func(s *Session) error {
		return s.UpdateRecord(tableName, id, record)
	})
}

func (db *Database) DeleteRecord(tableName string, id int64) error {
	return db.Do(func(s *Session) error {
		return s.DeleteRecord(tableName, id)
	})
}

func (db *Database) AllRecords(tableName string) (records []*codec.Record, err error) {
	err = db.Do(func(s *Session) error {
		records, err = s.AllRecords(tableName)
		return err
	})
	return
}

// TableInfo summarizes one table of the file.
type TableInfo struct {
	Name  string `json:"name"`
	Index int64  `json:"index"`
	Total int    `json:"total"`
}

func (db *Database) ListTables() (tables []TableInfo, err error) {
	err = db.Do(func(s *Session) error {
		for _, name := range s.TableNames() {
			t, err := s.GetTable(name, false)
			if err != nil {
				return err
			}
			tables = append(tables, TableInfo{
				Name:  name,
				Index: t.Index,
				Total: t.Len(),
			})
		}
		return nil
	})
	return
}

func wrapIO(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
