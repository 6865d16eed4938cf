package repositories

import (
	"database/sql"
	"fmt"
)

// execQuerier is satisfied by both [sql.DB] and [sql.Tx].
type execQuerier interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// NextSequence increments and returns the next sequence number for table.
//
// Call it inside the transaction that inserts the row so a failed insert does not burn a number.
func NextSequence(q execQuerier, table string) (int, error) {
	sequenceTable := table + "_sequence"

	if _, err := q.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable)); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	if err := q.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	return sequence, nil
}
