package datarecording

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// MySQLRecorder records into a fresh database on a MySQL server.
type MySQLRecorder struct {
	*sqlWriter
}

// NewMySQLRecorder connects to the server in dsn, creates a database with a
// unique name and records into it. The database name of dsn, if any, is
// ignored.
func NewMySQLRecorder(dsn string) (*MySQLRecorder, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("datarecording: %w", err)
	}

	dbName := "ecatsim_" + xid.New().String()

	cfg.DBName = ""
	if err := createDatabase(cfg.FormatDSN(), dbName); err != nil {
		return nil, err
	}

	cfg.DBName = dbName

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("datarecording: %w", err)
	}

	log.Printf("Cycles are recorded in MySQL database: %s\n", dbName)

	r := &MySQLRecorder{sqlWriter: newSQLWriter(db, dbName)}

	atexit.Register(func() { _ = r.Close() })

	return r, nil
}

func createDatabase(dsn, dbName string) error {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("datarecording: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec("CREATE DATABASE " + dbName); err != nil {
		return fmt.Errorf("datarecording: creating database %s: %w", dbName, err)
	}

	return nil
}
