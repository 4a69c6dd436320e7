package inventory

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/alexeynavarkin/backupinventory/internal/connector"
	"github.com/alexeynavarkin/backupinventory/internal/repository/backup_repo"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) InsertIgnore(ctx context.Context, backups []backup_repo.Backup) (int64, error) {
	args := m.Called(ctx, backups)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type page struct {
	keys []string
	err  error
}

type fakePager struct {
	pages []page
}

func (p *fakePager) HasMorePages() bool {
	return len(p.pages) > 0
}

func (p *fakePager) NextPage(ctx context.Context) ([]connector.Object, error) {
	pg := p.pages[0]
	p.pages = p.pages[1:]
	if pg.err != nil {
		return nil, pg.err
	}

	objects := make([]connector.Object, 0, len(pg.keys))
	for _, key := range pg.keys {
		objects = append(objects, connector.Object{Key: key})
	}
	return objects, nil
}

// fakeConnector serves pages per prefix and records listed prefixes in order.
type fakeConnector struct {
	prefixes map[string][]page
	listed   []string
}

func (c *fakeConnector) List(bucket, prefix string) connector.Pager {
	c.listed = append(c.listed, prefix)
	return &fakePager{pages: c.prefixes[prefix]}
}

func objects(keys ...string) []connector.Object {
	objs := make([]connector.Object, 0, len(keys))
	for _, key := range keys {
		objs = append(objs, connector.Object{Key: key})
	}
	return objs
}
