package datarecording

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"

	"github.com/fatih/structs"
	"github.com/tebeka/atexit"
)

// CSVRecorder records every table into its own CSV file in a directory.
type CSVRecorder struct {
	dir    string
	files  map[string]*csvTable
	order  []string
	closed bool
}

type csvTable struct {
	structType reflect.Type
	file       *os.File
	writer     *csv.Writer
	rows       [][]string
}

// NewCSVRecorder records into dir, creating it if needed. Existing files are
// overwritten.
func NewCSVRecorder(dir string) (*CSVRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("datarecording: %w", err)
	}

	r := &CSVRecorder{
		dir:   dir,
		files: make(map[string]*csvTable),
	}

	atexit.Register(func() { _ = r.Close() })

	return r, nil
}

// Path returns the file of a table.
func (r *CSVRecorder) Path(tableName string) string {
	return filepath.Join(r.dir, tableName+".csv")
}

// CreateTable creates the file of the table and writes its header.
func (r *CSVRecorder) CreateTable(tableName string, sampleEntry any) error {
	if err := checkStructFields(sampleEntry); err != nil {
		return err
	}

	if _, exists := r.files[tableName]; exists {
		return fmt.Errorf("datarecording: table %s already exists", tableName)
	}

	file, err := os.Create(r.Path(tableName))
	if err != nil {
		return fmt.Errorf("datarecording: %w", err)
	}

	t := &csvTable{
		structType: reflect.TypeOf(sampleEntry),
		file:       file,
		writer:     csv.NewWriter(file),
	}

	if err := t.writer.Write(structs.Names(sampleEntry)); err != nil {
		return errors.Join(fmt.Errorf("datarecording: %w", err), file.Close())
	}

	r.files[tableName] = t
	r.order = append(r.order, tableName)

	return nil
}

// InsertData buffers a row.
func (r *CSVRecorder) InsertData(tableName string, entry any) error {
	t, exists := r.files[tableName]
	if !exists {
		return fmt.Errorf("datarecording: table %s does not exist", tableName)
	}

	if reflect.TypeOf(entry) != t.structType {
		return fmt.Errorf("datarecording: entry of type %T does not fit table %s",
			entry, tableName)
	}

	values := structs.Values(entry)
	row := make([]string, len(values))

	for i, v := range values {
		row[i] = formatValue(v)
	}

	t.rows = append(t.rows, row)

	return nil
}

func formatValue(v any) string {
	switch v := v.(type) {
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

// ListTables returns the names of the tables created so far.
func (r *CSVRecorder) ListTables() []string {
	return append([]string(nil), r.order...)
}

// Flush writes the buffered rows to the files.
func (r *CSVRecorder) Flush() error {
	for _, name := range r.order {
		t := r.files[name]

		if err := t.writer.WriteAll(t.rows); err != nil {
			return fmt.Errorf("datarecording: writing %s: %w", r.Path(name), err)
		}

		t.rows = nil
	}

	return nil
}

// Close flushes and closes every file.
func (r *CSVRecorder) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	errs := []error{r.Flush()}
	for _, name := range r.order {
		errs = append(errs, r.files[name].file.Close())
	}

	return errors.Join(errs...)
}
