package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alexeynavarkin/backupinventory/internal/connector"
)

const (
	DefaultDays         = 7
	DefaultPrefixLayout = "2006/01/02"
)

type Config struct {
	Bucket string
	// Days is the last offset to inventory, today is offset 0.
	Days         int
	PrefixLayout string
}

func (c Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("bucket is required")
	}
	if c.Days < 0 {
		return fmt.Errorf("days must not be negative, got %d", c.Days)
	}
	if c.PrefixLayout == "" {
		return errors.New("prefix layout is required")
	}
	return nil
}

type Stats struct {
	Days          int
	Pages         int
	Objects       int
	Inserted      int64
	FailedBatches int
}

type Inventory struct {
	con      connector.Connector
	importer *Importer
	cfg      Config
	lg       *zap.Logger
	now      func() time.Time
}

func NewInventory(
	con connector.Connector,
	importer *Importer,
	cfg Config,
	lg *zap.Logger,
) *Inventory {
	return &Inventory{
		con:      con,
		importer: importer,
		cfg:      cfg,
		lg:       lg,
		now:      time.Now,
	}
}

// Run lists every day prefix from today back to cfg.Days days ago and imports
// what it finds. Listing errors stop the run, import errors don't.
func (i *Inventory) Run(ctx context.Context) (Stats, error) {
	stats := Stats{}
	today := i.now()

	for n := 0; n <= i.cfg.Days; n++ {
		prefix := today.AddDate(0, 0, -n).Format(i.cfg.PrefixLayout)
		lg := i.lg.With(
			zap.String("bucket", i.cfg.Bucket),
			zap.String("prefix", prefix),
			zap.Int("day_offset", n),
		)
		lg.Info("listing objects")

		pager := i.con.List(i.cfg.Bucket, prefix)
		for pager.HasMorePages() {
			objects, err := pager.NextPage(ctx)
			if err != nil {
				return stats, fmt.Errorf("failed to list prefix %s: %w", prefix, err)
			}
			stats.Pages++

			res := i.importer.Import(ctx, objects)
			stats.Objects += res.Objects
			stats.Inserted += res.Inserted
			if res.Failed {
				stats.FailedBatches++
			}
			lg.Debug(
				"page imported",
				zap.Int("objects", res.Objects),
				zap.Int64("inserted", res.Inserted),
				zap.Bool("failed", res.Failed),
			)
		}
		stats.Days++
	}

	return stats, nil
}
