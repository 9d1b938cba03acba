package services

import (
	"database/sql"
	"math"
	"strings"

	"gorm.io/gorm"
)

// pageOffset converts a 1-indexed page number to a row offset. It reports false
// for pages before the first or whose offset does not fit in an int.
func pageOffset(page, size int) (int, bool) {
	if page < 1 || size < 1 || page-1 > math.MaxInt/size {
		return 0, false
	}
	return size * (page - 1), true
}

// NumPages is never below 1, so an empty listing still has a first page.
func NumPages(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}

// likePattern builds a substring pattern that matches query literally.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(query) + "%"
}

// snapshotOptions makes multi-statement reads see one snapshot on Postgres.
// SQLite transactions are already serialized.
func snapshotOptions(db *gorm.DB) []*sql.TxOptions {
	if db.Dialector.Name() == "postgres" {
		return []*sql.TxOptions{{Isolation: sql.LevelRepeatableRead, ReadOnly: true}}
	}
	return nil
}
