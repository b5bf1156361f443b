// Package sqlite stores the regional volume log in a SQLite database.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"go.ngs.io/seaice-api/internal/domain"
)

const tableName = "volumes"

// VolumeLog keeps one row per day, keyed by the window start date. Columns
// follow domain.VolumeHeader.
type VolumeLog struct {
	db     *sql.DB
	dbPath string
}

// NewVolumeLog opens (creating if needed) the database at dbPath.
func NewVolumeLog(dbPath string) (*VolumeLog, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	if _, err := db.Exec(createTableSQL()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create %s table: %w", tableName, err)
	}

	return &VolumeLog{db: db, dbPath: dbPath}, nil
}

func createTableSQL() string {
	header := domain.VolumeHeader()
	cols := make([]string, 0, len(header))
	cols = append(cols, `"start" TEXT PRIMARY KEY`, `"end" TEXT NOT NULL`)
	for _, name := range header[2:] {
		cols = append(cols, fmt.Sprintf("%q REAL NOT NULL", name))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", tableName, strings.Join(cols, ", "))
}

func quotedColumns() string {
	header := domain.VolumeHeader()
	quoted := make([]string, len(header))
	for i, name := range header {
		quoted[i] = fmt.Sprintf("%q", name)
	}
	return strings.Join(quoted, ", ")
}

// Append inserts a record. A second record for the same start date fails.
func (l *VolumeLog) Append(rec *domain.VolumeRecord) error {
	row := rec.Row()
	args := make([]any, len(row))
	for i, v := range row {
		args[i] = v
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(row)), ", ")

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", tableName, quotedColumns(), placeholders)
	if _, err := l.db.Exec(query, args...); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%s: %w", row[0], domain.ErrDuplicateDate)
		}
		return fmt.Errorf("failed to insert volume record: %w", err)
	}
	return nil
}

// ReadAll returns every record ordered by start date.
func (l *VolumeLog) ReadAll() ([]*domain.VolumeRecord, error) {
	return l.query(fmt.Sprintf(`SELECT %s FROM %s ORDER BY "start"`, quotedColumns(), tableName))
}

// Last returns the most recent record, or nil when the log is empty.
func (l *VolumeLog) Last() (*domain.VolumeRecord, error) {
	records, err := l.query(fmt.Sprintf(`SELECT %s FROM %s ORDER BY "start" DESC LIMIT 1`, quotedColumns(), tableName))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func (l *VolumeLog) query(q string) ([]*domain.VolumeRecord, error) {
	rows, err := l.db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("failed to query volumes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	n := len(domain.VolumeHeader())
	fields := make([]string, n)
	dest := make([]any, n)
	for i := range fields {
		dest[i] = &fields[i]
	}

	var records []*domain.VolumeRecord
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan volume row: %w", err)
		}
		rec, err := domain.ParseVolumeRow(fields)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate volume rows: %w", err)
	}
	return records, nil
}

// Close releases the database handle.
func (l *VolumeLog) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}
