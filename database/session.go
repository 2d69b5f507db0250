package database

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/furkanonder/glassjar/codec"
	"github.com/furkanonder/glassjar/table"
)

const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Session is one open → operate → close cycle over the database file.
// It owns the whole file image while open; nothing reaches disk until Close.
type Session struct {
	db     *Database
	status string
	opened time.Time
	tables map[string]*table.Table
	cache  map[string]*table.Table // write-back copies, nil when disabled
}

// Open reads the whole file into a new session. An absent or empty file is
// an empty database and leaves a zero-length placeholder behind.
func (db *Database) Open() (*Session, error) {
	t0 := time.Now()

	tables, exists, err := readFile(db.config.Path)
	if err != nil {
		return nil, err
	}
	if !exists {
		err := writePlaceholder(db.config.Path, db.config.FileMode)
		if err != nil {
			return nil, err
		}
	}

	s := &Session{
		db:     db,
		status: StatusOpen,
		opened: t0,
		tables: tables,
	}
	if db.config.WriteBack {
		s.cache = map[string]*table.Table{}
	}

	db.logger.Debug("session opened",
		zap.Int("tables", len(tables)),
		zap.Bool("write_back", db.config.WriteBack),
		zap.Duration("elapsed", time.Since(t0)),
	)

	return s, nil
}

func (s *Session) GetStatus() string {
	return s.status
}

// Close flushes the write-back cache and writes the whole image back.
func (s *Session) Close() error {
	if s.status == StatusClosed {
		return ErrSessionClosed
	}
	s.status = StatusClosed

	for name, t := range s.cache {
		s.tables[name] = t
	}
	s.cache = nil

	data, err := encodeImage(s.tables)
	if err != nil {
		return err
	}

	err = writeFile(s.db.config.Path, data, s.db.config.FileMode)
	if err != nil {
		return err
	}

	s.db.logger.Debug("session closed",
		zap.Int("tables", len(s.tables)),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(s.opened)),
	)

	return nil
}

func (s *Session) checkOpen() error {
	if s.status != StatusOpen {
		return ErrSessionClosed
	}
	return nil
}

// TableNames returns the names of every table, sorted.
func (s *Session) TableNames() []string {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	for name := range s.cache {
		if _, exists := s.tables[name]; !exists {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// EnsureTable creates the table if it does not exist yet.
func (s *Session) EnsureTable(name string) (*table.Table, error) {
	return s.GetTable(name, true)
}

func (s *Session) GetTable(name string, createIfMissing bool) (*table.Table, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	if t, cached := s.cache[name]; cached {
		return t, nil
	}

	t, exists := s.tables[name]
	if !exists {
		if !createIfMissing {
			return nil, fmt.Errorf("%w: '%s'", ErrTableNotFound, name)
		}
		t = table.New()
		if s.cache == nil {
			s.tables[name] = t
			return t, nil
		}
	} else if s.cache != nil {
		t = t.Clone()
	}

	if s.cache != nil {
		s.cache[name] = t
	}

	return t, nil
}

// CreateRecord assigns the next identifier of the table to record and
// stores it. record itself is not modified.
func (s *Session) CreateRecord(tableName string, record *codec.Record) (int64, error) {
	t, err := s.GetTable(tableName, true)
	if err != nil {
		return 0, err
	}

	stored := *record
	stored.ID = t.Index
	payload, err := s.db.codec.Encode(&stored)
	if err != nil {
		return 0, err
	}

	id := t.NextIdentifier()
	t.Put(id, payload)

	return id, nil
}

func (s *Session) GetRecord(tableName string, id int64) (*codec.Record, error) {
	t, err := s.GetTable(tableName, false)
	if err == ErrSessionClosed {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: id %d in '%s'", table.ErrRecordNotFound, id, tableName)
	}

	payload, err := t.Get(id)
	if err != nil {
		return nil, err
	}

	return s.db.codec.Decode(payload)
}

// UpdateRecord overwrites an existing record. It never inserts.
func (s *Session) UpdateRecord(tableName string, id int64, record *codec.Record) error {
	t, err := s.GetTable(tableName, false)
	if err == ErrSessionClosed {
		return err
	}
	if err != nil || !t.Has(id) {
		return fmt.Errorf("%w: id %d in '%s'", table.ErrRecordNotFound, id, tableName)
	}

	stored := *record
	stored.ID = id
	payload, err := s.db.codec.Encode(&stored)
	if err != nil {
		return err
	}

	t.Put(id, payload)
	return nil
}

func (s *Session) DeleteRecord(tableName string, id int64) error {
	t, err := s.GetTable(tableName, false)
	if err == ErrSessionClosed {
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: id %d in '%s'", table.ErrRecordNotFound, id, tableName)
	}

	return t.Delete(id)
}

// AllRecords decodes every record of the table by ascending identifier.
// A missing table has no records.
func (s *Session) AllRecords(tableName string) ([]*codec.Record, error) {
	records := []*codec.Record{}

	t, err := s.GetTable(tableName, false)
	if err == ErrSessionClosed {
		return nil, err
	}
	if err != nil {
		return records, nil
	}

	for _, payload := range t.Values() {
		record, err := s.db.codec.Decode(payload)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}
