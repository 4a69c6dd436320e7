package backup_repo

import (
	"context"
	"time"
)

// Backup is a single row of the backups table. S3Key is unique.
type Backup struct {
	S3Key    string
	Category string
	Date     string
	Hour     int

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	// InsertIgnore stores backups in one statement, skipping keys already
	// present. It returns the number of rows actually inserted.
	InsertIgnore(ctx context.Context, backups []Backup) (int64, error)
	Count(ctx context.Context) (int64, error)
}
