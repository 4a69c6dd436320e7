package inventory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/alexeynavarkin/backupinventory/internal/connector"
	"github.com/alexeynavarkin/backupinventory/internal/repository/backup_repo"
)

type ImportResult struct {
	Objects  int
	Inserted int64
	Failed   bool
}

// Importer turns listed objects into backup rows. Failures are logged and
// reported in the result, never returned.
type Importer struct {
	repo backup_repo.Repository
	lg   *zap.Logger
	now  func() time.Time
}

func NewImporter(repo backup_repo.Repository, lg *zap.Logger) *Importer {
	return &Importer{
		repo: repo,
		lg:   lg,
		now:  time.Now,
	}
}

func (im *Importer) Import(ctx context.Context, objects []connector.Object) ImportResult {
	res := ImportResult{Objects: len(objects)}
	if len(objects) == 0 {
		return res
	}

	// One timestamp for the whole batch.
	now := im.now()

	backups := make([]backup_repo.Backup, 0, len(objects))
	for _, obj := range objects {
		backups = append(backups, ParseKey(obj.Key, now))
	}

	inserted, err := im.repo.InsertIgnore(ctx, backups)
	if err != nil {
		im.lg.Error("failed to import batch", zap.Int("rows", len(backups)), zap.Error(err))
		res.Failed = true
		return res
	}
	res.Inserted = inserted

	return res
}
