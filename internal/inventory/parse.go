package inventory

import (
	"strings"
	"time"

	"github.com/alexeynavarkin/backupinventory/internal/repository/backup_repo"
)

// Keys look like YYYY/MM/DD/HH/.../<category><suffix>, the suffix being
// exactly categorySuffixLen characters long.
const (
	dateLen           = 10
	hourOffset        = 11
	hourLen           = 2
	categorySuffixLen = 8
)

// ParseKey derives a backup row from an object key. Both timestamps are set to now.
// It never rejects a key: a bad date is left for the database to refuse, an
// hour without leading digits is 0 and a name shorter than the suffix gives
// an empty category.
func ParseKey(key string, now time.Time) backup_repo.Backup {
	return backup_repo.Backup{
		S3Key:     key,
		Category:  parseCategory(key),
		Date:      strings.ReplaceAll(substr(key, 0, dateLen), "/", "-"),
		Hour:      leadingInt(substr(key, hourOffset, hourLen)),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func parseCategory(key string) string {
	name := key[strings.LastIndex(key, "/")+1:]
	if len(name) < categorySuffixLen {
		return ""
	}
	return name[:len(name)-categorySuffixLen]
}

// substr clamps the [offset, offset+n) window to the string.
func substr(s string, offset, n int) string {
	if offset >= len(s) {
		return ""
	}
	return s[offset:min(offset+n, len(s))]
}

// leadingInt reads the decimal digits s starts with, 0 when there are none.
func leadingInt(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}
