package repository

import (
	"strings"

	"gorm.io/gorm"
)

// likePattern escapes LIKE wildcards so the query is matched literally as a
// substring.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

// likeOperator picks the dialect's case-insensitive LIKE. sqlite LIKE folds
// ASCII only, so non-ASCII letters match in their stored case.
func likeOperator(db *gorm.DB) string {
	if db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return "ILIKE"
	}
	return "LIKE"
}

// containsAny ORs a case-insensitive substring match over columns.
func containsAny(db *gorm.DB, q string, columns ...string) *gorm.DB {
	pattern := likePattern(q)
	op := likeOperator(db)
	clauses := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		clauses[i] = col + " " + op + ` ? ESCAPE '\'`
		args[i] = pattern
	}
	return db.Where(strings.Join(clauses, " OR "), args...)
}
