package backup_repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	backupColumnCount = 6

	// Postgres wire protocol limit on bind parameters per statement.
	maxPostgresParams = 65535
)

func NewSQLRepository(db *sql.DB, dialect Dialect, lg *zap.Logger) *SQLRepository {
	return &SQLRepository{
		db:      db,
		dialect: dialect,
		lg:      lg,
	}
}

type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
	lg      *zap.Logger
}

func (r *SQLRepository) InsertIgnore(ctx context.Context, backups []Backup) (int64, error) {
	if len(backups) == 0 {
		return 0, nil
	}

	if r.dialect == DialectPostgres && len(backups)*backupColumnCount > maxPostgresParams {
		return 0, fmt.Errorf("batch of %d backups exceeds postgres bind parameter limit", len(backups))
	}

	query, args := r.buildInsert(backups)
	r.lg.Info(
		"executing backups insert",
		zap.Int("rows", len(backups)),
		zap.String("query", query),
	)
	r.lg.Debug("backups insert args", zap.Any("args", args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert backups: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted rows count: %w", err)
	}

	return inserted, nil
}

func (r *SQLRepository) buildInsert(backups []Backup) (string, []any) {
	var sb strings.Builder
	args := make([]any, 0, len(backups)*backupColumnCount)

	sb.WriteString("INSERT INTO backups (s3_key, category, date, hour, created_at, updated_at) VALUES ")
	for i, b := range backups {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for col := 0; col < backupColumnCount; col++ {
			if col > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(r.dialect.placeholder(len(args) + col + 1))
		}
		sb.WriteString(")")

		args = append(args,
			b.S3Key,
			b.Category,
			b.Date,
			b.Hour,
			b.CreatedAt,
			b.UpdatedAt,
		)
	}
	sb.WriteString(" ON CONFLICT (s3_key) DO NOTHING")

	return sb.String(), args
}

func (r *SQLRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM backups`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count backups: %w", err)
	}

	return count, nil
}
