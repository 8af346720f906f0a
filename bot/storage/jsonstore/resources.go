package jsonstore

import (
	"context"
	"log/slog"
	"sync"

	"github.com/m3rciful/catalogbot/bot/directory"
	"github.com/m3rciful/catalogbot/core/logger"
)

// Resources is a directory.Store backed by a flat {"name": "link"} document.
type Resources struct {
	path string

	writeMu sync.Mutex
	mem     *directory.MemoryStore
}

var _ directory.Store = (*Resources)(nil)

// OpenResources loads the resource document at path.
func OpenResources(ctx context.Context, path string) (*Resources, error) {
	doc := map[string]string{}
	if err := load(ctx, path, &doc); err != nil {
		return nil, err
	}
	return &Resources{path: path, mem: directory.NewMemoryStore(doc)}, nil
}

func (s *Resources) Get(ctx context.Context, name string) (string, bool, error) {
	return s.mem.Get(ctx, name)
}

func (s *Resources) Put(ctx context.Context, name, link string) error {
	return s.PutMany(ctx, []string{name}, link)
}

// PutMany writes one snapshot containing every name.
func (s *Resources) PutMany(ctx context.Context, names []string, link string) error {
	if len(names) == 0 {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.mem.Snapshot()
	for _, name := range names {
		next[name] = link
	}
	if err := persist(ctx, s.path, next); err != nil {
		return err
	}
	_ = s.mem.PutMany(ctx, names, link)
	logger.LogEvent(ctx, logger.SVCDirectory, slog.LevelInfo, "resource.saved",
		slog.Int("count", len(names)),
		logger.List("names", names, 10),
	)
	return nil
}

// Len reports how many resources are stored.
func (s *Resources) Len() int {
	return s.mem.Len()
}
