package datarecording

import (
	"database/sql"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// SQLiteRecorder records into a SQLite file.
type SQLiteRecorder struct {
	*sqlWriter

	filename string
}

// NewSQLiteRecorder creates path.sqlite3 and records into it. An empty path
// picks a unique name. It refuses to overwrite an existing file. The
// recorder is flushed when the program exits through atexit.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	if path == "" {
		path = "ecatsim_recording_" + xid.New().String()
	}

	filename := path + ".sqlite3"

	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("datarecording: file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("datarecording: %w", err)
	}

	r := &SQLiteRecorder{
		sqlWriter: newSQLWriter(db, path),
		filename:  filename,
	}

	atexit.Register(func() { _ = r.Close() })

	return r, nil
}

// NewWithDB records into an already opened database.
func NewWithDB(db *sql.DB) DataRecorder {
	return newSQLWriter(db, "")
}

// Filename returns the path of the database file.
func (r *SQLiteRecorder) Filename() string {
	return r.filename
}
