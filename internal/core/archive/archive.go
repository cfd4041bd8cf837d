// Package archive keeps a cross-project SQLite index of resolved
// question/answer exchanges, backing history search from the CLI.
package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/romgenie/scope-agent/internal/core/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS interactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	project TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	is_custom INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interactions_project ON interactions(project);
CREATE INDEX IF NOT EXISTS idx_interactions_created ON interactions(created_at);
`

// Entry is one archived exchange.
type Entry struct {
	Project   string
	Category  string
	Question  string
	Answer    string
	IsCustom  bool
	CreatedAt string
}

// Archive wraps the SQLite connection.
type Archive struct {
	conn *sql.DB
}

// Open creates the database (and its parent directory) if needed and
// initializes the schema.
func Open(dbPath string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	conn.SetMaxOpenConns(1) // SQLite only supports one writer
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize archive schema: %w", err)
	}
	return &Archive{conn: conn}, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.conn.Close()
}

// Record appends one resolved interaction for a project.
func (a *Archive) Record(project string, rec models.InteractionRecord) error {
	isCustom := 0
	if rec.IsCustom {
		isCustom = 1
	}
	_, err := a.conn.Exec(`
		INSERT INTO interactions (project, category, question, answer, is_custom, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, project, string(rec.Category), rec.Question, rec.Answer(), isCustom, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("archive interaction: %w", err)
	}
	return nil
}

// Search returns entries whose question or answer contains the query,
// most recent first.
func (a *Archive) Search(query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + query + "%"
	rows, err := a.conn.Query(`
		SELECT project, category, question, answer, is_custom, created_at
		FROM interactions
		WHERE question LIKE ? OR answer LIKE ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search archive: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ForProject returns the most recent entries for one project.
func (a *Archive) ForProject(project string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.conn.Query(`
		SELECT project, category, question, answer, is_custom, created_at
		FROM interactions
		WHERE project = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, project, limit)
	if err != nil {
		return nil, fmt.Errorf("query archive for %q: %w", project, err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Rename re-homes archived entries when a project is renamed.
func (a *Archive) Rename(oldName, newName string) error {
	_, err := a.conn.Exec(`UPDATE interactions SET project = ? WHERE project = ?`, newName, oldName)
	if err != nil {
		return fmt.Errorf("rename archived project: %w", err)
	}
	return nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var isCustom int
		if err := rows.Scan(&e.Project, &e.Category, &e.Question, &e.Answer, &isCustom, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan archive entry: %w", err)
		}
		e.IsCustom = isCustom == 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
