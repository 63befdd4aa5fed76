// Package datarecording stores the cycles of a bus into SQL databases or CSV
// files so that runs can be inspected after the fact.
package datarecording

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/fatih/structs"
)

// DataRecorder is a backend that can record and store data. Entries are
// flat structs whose fields are all scalar.
type DataRecorder interface {
	// CreateTable creates a new table with the columns of sampleEntry.
	CreateTable(tableName string, sampleEntry any) error

	// InsertData buffers an entry for a table that already exists.
	InsertData(tableName string, entry any) error

	// ListTables returns the names of the tables created so far.
	ListTables() []string

	// Flush writes all the buffered entries.
	Flush() error

	// Close flushes and releases the backend.
	Close() error
}

// ErrInvalidEntry is returned for entries that are not flat structs.
var ErrInvalidEntry = errors.New("datarecording: entry is not a flat struct")

type table struct {
	structType reflect.Type
	entries    []any
}

// sqlWriter writes entries into a SQL database in batches. The same writer
// serves SQLite and MySQL; the two only differ in how the database is
// opened.
type sqlWriter struct {
	*sql.DB

	name       string
	tables     map[string]*table
	order      []string
	batchSize  int
	entryCount int
	closed     bool
}

func newSQLWriter(db *sql.DB, name string) *sqlWriter {
	return &sqlWriter{
		DB:        db,
		name:      name,
		tables:    make(map[string]*table),
		batchSize: 10000,
	}
}

// Name returns the name of the database.
func (w *sqlWriter) Name() string {
	return w.name
}

func checkStructFields(entry any) error {
	types := reflect.TypeOf(entry)
	if types == nil || types.Kind() != reflect.Struct {
		return ErrInvalidEntry
	}

	for i := 0; i < types.NumField(); i++ {
		field := types.Field(i)

		if !field.IsExported() {
			return fmt.Errorf("%w: field %s is not exported",
				ErrInvalidEntry, field.Name)
		}

		if columnType(field.Type.Kind()) == "" {
			return fmt.Errorf("%w: field %s has kind %s",
				ErrInvalidEntry, field.Name, field.Type.Kind())
		}
	}

	return nil
}

func columnType(kind reflect.Kind) string {
	switch kind {
	case reflect.Bool:
		return "BOOLEAN"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Int64, reflect.Uint, reflect.Uint8, reflect.Uint16,
		reflect.Uint32, reflect.Uint64:
		return "BIGINT"
	case reflect.Float32, reflect.Float64:
		return "DOUBLE"
	case reflect.String:
		return "TEXT"
	default:
		return ""
	}
}

func (w *sqlWriter) CreateTable(tableName string, sampleEntry any) error {
	if err := checkStructFields(sampleEntry); err != nil {
		return err
	}

	if _, exists := w.tables[tableName]; exists {
		return fmt.Errorf("datarecording: table %s already exists", tableName)
	}

	types := reflect.TypeOf(sampleEntry)
	columns := make([]string, 0, types.NumField())

	for i, name := range structs.Names(sampleEntry) {
		columns = append(columns,
			name+" "+columnType(types.Field(i).Type.Kind()))
	}

	createTableSQL := `CREATE TABLE ` + tableName +
		` (` + "\n\t" + strings.Join(columns, ", \n\t") + "\n" + `);`
	if _, err := w.Exec(createTableSQL); err != nil {
		return fmt.Errorf("datarecording: creating table %s: %w", tableName, err)
	}

	w.tables[tableName] = &table{structType: types}
	w.order = append(w.order, tableName)

	return nil
}

func (w *sqlWriter) InsertData(tableName string, entry any) error {
	table, exists := w.tables[tableName]
	if !exists {
		return fmt.Errorf("datarecording: table %s does not exist", tableName)
	}

	if reflect.TypeOf(entry) != table.structType {
		return fmt.Errorf("datarecording: entry of type %T does not fit table %s",
			entry, tableName)
	}

	table.entries = append(table.entries, entry)

	w.entryCount++
	if w.entryCount >= w.batchSize {
		return w.Flush()
	}

	return nil
}

func (w *sqlWriter) ListTables() []string {
	return append([]string(nil), w.order...)
}

func (w *sqlWriter) Flush() error {
	if w.entryCount == 0 {
		return nil
	}

	tx, err := w.Begin()
	if err != nil {
		return fmt.Errorf("datarecording: %w", err)
	}

	for _, tableName := range w.order {
		if err := w.flushTable(tx, tableName); err != nil {
			return errors.Join(err, tx.Rollback())
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("datarecording: %w", err)
	}

	for _, table := range w.tables {
		table.entries = nil
	}
	w.entryCount = 0

	return nil
}

func (w *sqlWriter) flushTable(tx *sql.Tx, tableName string) error {
	table := w.tables[tableName]
	if len(table.entries) == 0 {
		return nil
	}

	placeholders := make([]string, table.structType.NumField())
	for i := range placeholders {
		placeholders[i] = "?"
	}

	sqlStr := "INSERT INTO " + tableName +
		" VALUES (" + strings.Join(placeholders, ", ") + ")"

	stmt, err := tx.Prepare(sqlStr)
	if err != nil {
		return fmt.Errorf("datarecording: preparing insert into %s: %w",
			tableName, err)
	}
	defer stmt.Close()

	for _, entry := range table.entries {
		if _, err := stmt.Exec(structs.Values(entry)...); err != nil {
			return fmt.Errorf("datarecording: inserting into %s: %w",
				tableName, err)
		}
	}

	return nil
}

func (w *sqlWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	return errors.Join(w.Flush(), w.DB.Close())
}
