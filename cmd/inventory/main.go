package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"

	config "github.com/ThomasObenaus/go-conf"
	"go.uber.org/zap"

	"github.com/alexeynavarkin/backupinventory/internal/connector"
	"github.com/alexeynavarkin/backupinventory/internal/inventory"
	"github.com/alexeynavarkin/backupinventory/internal/repository/backup_repo"
)

type Config struct {
	Source struct {
		Type   string `cfg:"{'name': 'type', 'desc': 'object store type: s3 or webdav', 'default': 's3'}"`
		Bucket string `cfg:"{'name': 'bucket', 'desc': 'bucket (or webdav root dir) to inventory', 'default': 'itracker-track-data'}"`

		Region    string `cfg:"{'name': 'region', 'desc': 's3 region, AWS_REGION is used when empty', 'default': ''}"`
		Endpoint  string `cfg:"{'name': 'endpoint', 'desc': 's3 compatible endpoint', 'default': ''}"`
		AccessKey string `cfg:"{'name': 'access_key', 'desc': 's3 access key, AWS default chain is used when empty', 'default': ''}"`
		SecretKey string `cfg:"{'name': 'secret_key', 'desc': 's3 secret key', 'default': ''}"`
		PathStyle bool   `cfg:"{'name': 'path_style', 'desc': 'use path style s3 addressing', 'default': false}"`

		URL      string `cfg:"{'name': 'url', 'desc': 'webdav base url', 'default': ''}"`
		Username string `cfg:"{'name': 'username', 'desc': 'webdav username', 'default': ''}"`
		Password string `cfg:"{'name': 'password', 'desc': 'webdav password', 'default': ''}"`
	} `cfg:"{'name': 'source'}"`

	Inventory struct {
		Days         int    `cfg:"{'name': 'days', 'desc': 'how many days back to inventory', 'default': 7}"`
		PrefixLayout string `cfg:"{'name': 'prefix_layout', 'desc': 'go time layout of the day prefix', 'default': '2006/01/02'}"`
	} `cfg:"{'name': 'inventory'}"`

	Database struct {
		Driver   string `cfg:"{'name': 'driver', 'desc': 'postgres or sqlite', 'default': 'postgres'}"`
		URL      string `cfg:"{'name': 'url', 'desc': 'connection url, overrides the fields below', 'default': ''}"`
		Host     string `cfg:"{'name': 'host', 'default': 'localhost'}"`
		Port     int    `cfg:"{'name': 'port', 'default': 5432}"`
		Name     string `cfg:"{'name': 'name', 'default': ''}"`
		User     string `cfg:"{'name': 'user', 'default': ''}"`
		Password string `cfg:"{'name': 'password', 'default': ''}"`
		SSLMode  string `cfg:"{'name': 'sslmode', 'default': 'disable'}"`
	} `cfg:"{'name': 'database'}"`
}

func main() {
	lgCfg := zap.NewProductionConfig()
	lgCfg.OutputPaths = []string{"stdout"}
	lg := zap.Must(lgCfg.Build())
	defer lg.Sync()

	cfg := Config{}

	cfgProvider, err := config.NewConfigProvider(
		&cfg,
		"BACKUP_INVENTORY",
		"BACKUP_INVENTORY",
	)
	if err != nil {
		lg.Fatal("failed to build config provider", zap.Error(err))
	}

	// Environment only, flags are not accepted.
	err = cfgProvider.ReadConfig(os.Args[:1])
	if err != nil {
		fmt.Println(cfgProvider.Usage())
		lg.Fatal("failed to read config", zap.Error(err))
	}

	if err := run(context.Background(), cfg, lg); err != nil {
		lg.Fatal("inventory failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg Config, lg *zap.Logger) error {
	invCfg := inventory.Config{
		Bucket:       cfg.Source.Bucket,
		Days:         cfg.Inventory.Days,
		PrefixLayout: cfg.Inventory.PrefixLayout,
	}
	if err := invCfg.Validate(); err != nil {
		return fmt.Errorf("invalid inventory config: %w", err)
	}

	con, err := newConnector(ctx, cfg)
	if err != nil {
		return err
	}

	dialect, err := backup_repo.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return err
	}

	dsn, err := databaseURL(cfg, dialect)
	if err != nil {
		return err
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	err = db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping db: %w", err)
	}

	repo := backup_repo.NewSQLRepository(db, dialect, lg)
	inv := inventory.NewInventory(
		con,
		inventory.NewImporter(repo, lg),
		invCfg,
		lg,
	)

	stats, err := inv.Run(ctx)
	if err != nil {
		return err
	}

	total, err := repo.Count(ctx)
	if err != nil {
		lg.Warn("failed to count backups", zap.Error(err))
	}

	lg.Info(
		"inventory done",
		zap.Int("days", stats.Days),
		zap.Int("pages", stats.Pages),
		zap.Int("objects", stats.Objects),
		zap.Int64("inserted", stats.Inserted),
		zap.Int("failed_batches", stats.FailedBatches),
		zap.Int64("total_backups", total),
	)

	return nil
}

func newConnector(ctx context.Context, cfg Config) (connector.Connector, error) {
	switch connector.ConnectorType(cfg.Source.Type) {
	case connector.ConnectorTypeS3:
		con, err := connector.NewS3Connector(ctx, connector.S3ConnectorConfig{
			Region:       cfg.Source.Region,
			Endpoint:     cfg.Source.Endpoint,
			AccessKey:    cfg.Source.AccessKey,
			SecretKey:    cfg.Source.SecretKey,
			UsePathStyle: cfg.Source.PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build s3 connector: %w", err)
		}
		return con, nil
	case connector.ConnectorTypeWebdav:
		return connector.NewWebdavConnector(connector.WebdavConnectorConfig{
			BaseURL:  cfg.Source.URL,
			Username: cfg.Source.Username,
			Password: cfg.Source.Password,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported source type %q", cfg.Source.Type)
	}
}

// databaseURL returns database.url when set, otherwise a postgres:// URL
// assembled from the separate fields. sqlite has no such fallback.
func databaseURL(cfg Config, dialect backup_repo.Dialect) (string, error) {
	if cfg.Database.URL != "" {
		return cfg.Database.URL, nil
	}
	if dialect != backup_repo.DialectPostgres {
		return "", fmt.Errorf("database.url is required for driver %s", dialect)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Database.User, cfg.Database.Password),
		Host:     net.JoinHostPort(cfg.Database.Host, strconv.Itoa(cfg.Database.Port)),
		Path:     "/" + cfg.Database.Name,
		RawQuery: url.Values{"sslmode": {cfg.Database.SSLMode}}.Encode(),
	}
	return u.String(), nil
}
