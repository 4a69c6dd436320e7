package connector

import (
	"context"
	"errors"
	"time"
)

type ConnectorType string

const (
	ConnectorTypeS3     ConnectorType = "s3"
	ConnectorTypeWebdav ConnectorType = "webdav"
)

var ErrNoMorePages = errors.New("no more pages")

// Object describes a single stored object as returned by a listing.
// Only Key is used for inventory, the rest is informational.
type Object struct {
	Key  string
	Name string

	SizeBytes uint64
	ETag      string

	ModifiedTimestamp *time.Time
}

// Pager walks a prefix listing page by page. It is forward only and
// can't be restarted.
type Pager interface {
	HasMorePages() bool
	NextPage(ctx context.Context) ([]Object, error)
}

type Connector interface {
	List(bucket, prefix string) Pager
}
