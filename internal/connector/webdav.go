package connector

import (
	"context"
	"fmt"
	"strings"

	"github.com/studio-b12/gowebdav"

	"github.com/alexeynavarkin/backupinventory/pkg/utils"
)

type WebdavConnectorConfig struct {
	BaseURL  string
	Username string
	Password string
}

// WebdavConnector lists a WebDAV tree as if it was a bucket. The bucket is
// the root directory and a prefix is a directory below it.
type WebdavConnector struct {
	webdavClient *gowebdav.Client
}

func NewWebdavConnector(cfg WebdavConnectorConfig) *WebdavConnector {
	return &WebdavConnector{
		webdavClient: gowebdav.NewClient(
			cfg.BaseURL,
			cfg.Username,
			cfg.Password,
		),
	}
}

func (c *WebdavConnector) List(bucket, prefix string) Pager {
	return &webdavPager{
		client: c.webdavClient,
		root:   strings.Trim(bucket, "/"),
		queue:  []string{gowebdav.Join("/"+strings.Trim(bucket, "/"), prefix)},
	}
}

// webdavPager returns one page per directory, walking breadth first.
type webdavPager struct {
	client *gowebdav.Client
	root   string

	queue []string
}

func (p *webdavPager) HasMorePages() bool {
	return len(p.queue) > 0
}

func (p *webdavPager) NextPage(ctx context.Context) ([]Object, error) {
	if len(p.queue) == 0 {
		return nil, ErrNoMorePages
	}

	dir := p.queue[0]
	p.queue = p.queue[1:]

	entries, err := p.client.ReadDir(dir)
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return []Object{}, nil
		}
		return nil, fmt.Errorf("failed to read dir %s: %w", dir, err)
	}

	objects := make([]Object, 0, len(entries))
	for _, entry := range entries {
		objPath := gowebdav.Join(dir, entry.Name())
		if entry.IsDir() {
			p.queue = append(p.queue, objPath)
			continue
		}

		objects = append(objects, Object{
			Key:               p.key(objPath),
			Name:              entry.Name(),
			SizeBytes:         uint64(entry.Size()),
			ModifiedTimestamp: utils.Ptr(entry.ModTime()),
		})
	}

	return objects, nil
}

// key strips the root directory so keys look like bucket relative object keys.
func (p *webdavPager) key(objPath string) string {
	key := strings.TrimPrefix(objPath, "/")
	if p.root != "" {
		key = strings.TrimPrefix(key, p.root+"/")
	}
	return key
}
