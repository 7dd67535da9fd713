package repository

import (
	"errors"
	"strings"
)

const (
	// DefaultPageSize is used when a caller asks for no specific page size
	DefaultPageSize = 20
	// MaxPageSize is the maximum allowed page size for paginated queries
	MaxPageSize = 200
)

// ErrStaleWrite is returned when an optimistic update matched no row because
// the record changed since it was read
var ErrStaleWrite = errors.New("record was modified concurrently")

// NormalizePagination clamps page and pageSize to usable values
func NormalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s anywhere. Use it with
// ESCAPE '\'.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
