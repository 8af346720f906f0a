package jsonstore

import (
	"context"
	"log/slog"
	"sync"

	"github.com/m3rciful/catalogbot/bot/roles"
	"github.com/m3rciful/catalogbot/core/logger"
)

type roleRecord struct {
	Role string `json:"role"`
}

// Roles is a roles.Store backed by a JSON document of the form
// {"identifier": {"role": "admin"}}.
type Roles struct {
	path string

	writeMu sync.Mutex
	mem     *roles.MemoryStore
}

var _ roles.Store = (*Roles)(nil)

// OpenRoles loads the role document at path.
func OpenRoles(ctx context.Context, path string) (*Roles, error) {
	doc := map[string]roleRecord{}
	if err := load(ctx, path, &doc); err != nil {
		return nil, err
	}
	initial := make(map[roles.Identifier]roles.Role, len(doc))
	for id, rec := range doc {
		r, err := roles.ParseRole(rec.Role)
		if err != nil || r == roles.RoleNone {
			logger.LogEvent(ctx, logger.Store, slog.LevelWarn, "store.role_skipped",
				slog.String("identifier", id),
				slog.String("value", rec.Role),
			)
			continue
		}
		initial[roles.Identifier(id)] = r
	}
	return &Roles{path: path, mem: roles.NewMemoryStore(initial)}, nil
}

func (s *Roles) Role(ctx context.Context, id roles.Identifier) (roles.Role, error) {
	return s.mem.Role(ctx, id)
}

func (s *Roles) ListByRole(ctx context.Context, role roles.Role) ([]roles.Identifier, error) {
	return s.mem.ListByRole(ctx, role)
}

func (s *Roles) SetRole(ctx context.Context, id roles.Identifier, role roles.Role) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.mem.Snapshot()
	if role == roles.RoleNone {
		delete(next, id)
	} else {
		next[id] = role
	}
	if err := s.save(ctx, next); err != nil {
		return err
	}
	_ = s.mem.SetRole(ctx, id, role)
	logger.LogEvent(ctx, logger.SVCRoles, slog.LevelInfo, "role.set",
		slog.String("identifier", string(id)),
		slog.String("role", role.String()),
	)
	return nil
}

func (s *Roles) DeleteRole(ctx context.Context, id roles.Identifier) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.mem.Snapshot()
	if _, ok := next[id]; !ok {
		return nil
	}
	delete(next, id)
	if err := s.save(ctx, next); err != nil {
		return err
	}
	_ = s.mem.DeleteRole(ctx, id)
	logger.LogEvent(ctx, logger.SVCRoles, slog.LevelInfo, "role.deleted",
		slog.String("identifier", string(id)),
	)
	return nil
}

func (s *Roles) save(ctx context.Context, all map[roles.Identifier]roles.Role) error {
	doc := make(map[string]roleRecord, len(all))
	for id, r := range all {
		doc[string(id)] = roleRecord{Role: r.String()}
	}
	return persist(ctx, s.path, doc)
}
