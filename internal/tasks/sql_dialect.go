package tasks

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

func ParseDialect(name string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(name))); d {
	case DialectSQLite, DialectMySQL, DialectPostgres:
		return d, nil
	default:
		return "", fmt.Errorf("unsupported sql dialect %q (supported: sqlite, mysql, postgres)", name)
	}
}

func (d Dialect) quoteIdent(name string) string {
	switch d {
	case DialectMySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	case DialectPostgres:
		return pq.QuoteIdentifier(name)
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

// placeholders returns n bind markers starting at position from (1-based).
func (d Dialect) placeholders(from, n int) []string {
	marks := make([]string, n)
	for i := range marks {
		if d == DialectPostgres {
			marks[i] = "$" + strconv.Itoa(from+i)
		} else {
			marks[i] = "?"
		}
	}
	return marks
}

func (d Dialect) createTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			task_id VARCHAR(255) NOT NULL PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			status TEXT NOT NULL
		)`, d.quoteIdent(table))
}

func (d Dialect) selectTaskSQL(table string) string {
	return fmt.Sprintf(
		`SELECT task_id, title, description, status FROM %s WHERE task_id = %s`,
		d.quoteIdent(table),
		d.placeholders(1, 1)[0],
	)
}

func (d Dialect) upsertTaskSQL(table string) string {
	marks := d.placeholders(1, 4)
	insert := fmt.Sprintf(
		`INSERT INTO %s (task_id, title, description, status) VALUES (%s)`,
		d.quoteIdent(table),
		strings.Join(marks, ", "),
	)

	// MySQL 8.0.19+ row alias; VALUES(col) in the update clause is deprecated.
	if d == DialectMySQL {
		return insert + ` AS incoming
		 ON DUPLICATE KEY UPDATE
		   title = incoming.title,
		   description = incoming.description,
		   status = incoming.status`
	}
	return insert + `
		 ON CONFLICT(task_id) DO UPDATE SET
		   title = excluded.title,
		   description = excluded.description,
		   status = excluded.status`
}

func (d Dialect) updateTaskSQL(table string) string {
	marks := d.placeholders(1, 4)
	return fmt.Sprintf(
		`UPDATE %s SET title = %s, description = %s, status = %s WHERE task_id = %s`,
		d.quoteIdent(table),
		marks[0], marks[1], marks[2], marks[3],
	)
}

func (d Dialect) deleteTaskSQL(table string) string {
	return fmt.Sprintf(
		`DELETE FROM %s WHERE task_id = %s`,
		d.quoteIdent(table),
		d.placeholders(1, 1)[0],
	)
}
