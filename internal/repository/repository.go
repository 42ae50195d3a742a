// Package repository persists investments and ledger entries through GORM.
// Repositories never check ownership; callers authorize first.
package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStaleVersion is returned when a compare-and-set lost to another writer.
	ErrStaleVersion = errors.New("stale version")
)

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive LIKE pattern matching s literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// whereContains adds a case-insensitive literal substring match on column.
func whereContains(q *gorm.DB, column, s string) *gorm.DB {
	if s == "" {
		return q
	}
	return q.Where("LOWER("+column+") LIKE ? ESCAPE '\\'", containsPattern(s))
}
