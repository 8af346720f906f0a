// Package pgstore implements the role store and resource directory on
// PostgreSQL through sqlx. The schema lives in the migrations directory.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/catalogbot/bot/directory"
	"github.com/m3rciful/catalogbot/bot/roles"
	"github.com/m3rciful/catalogbot/core/logger"
)

const (
	qRoleGet = `SELECT role FROM roles WHERE identifier = $1`
	qRoleSet = `INSERT INTO roles (identifier, role) VALUES ($1, $2)
ON CONFLICT (identifier) DO UPDATE SET role = EXCLUDED.role, updated_at = now()`
	qRoleDelete = `DELETE FROM roles WHERE identifier = $1`
	qRoleList   = `SELECT identifier FROM roles WHERE role = $1 ORDER BY identifier`

	qResourceGet = `SELECT link FROM resources WHERE name = $1`
	qResourcePut = `INSERT INTO resources (name, link) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET link = EXCLUDED.link, updated_at = now()`
)

// Store wraps a connection pool opened by core/database.
type Store struct {
	db *sqlx.DB
}

var (
	_ roles.Store     = (*Store)(nil)
	_ directory.Store = (*Resources)(nil)
)

// New wraps db.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Resources returns the resource table view.
func (s *Store) Resources() *Resources {
	return &Resources{db: s.db}
}

func (s *Store) Role(ctx context.Context, id roles.Identifier) (roles.Role, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw, qRoleGet, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return roles.RoleNone, nil
	}
	if err != nil {
		return roles.RoleNone, fmt.Errorf("pgstore: get role: %w", err)
	}
	return roles.ParseRole(raw)
}

func (s *Store) SetRole(ctx context.Context, id roles.Identifier, role roles.Role) error {
	if role == roles.RoleNone {
		return s.DeleteRole(ctx, id)
	}
	if _, err := s.db.ExecContext(ctx, qRoleSet, string(id), role.String()); err != nil {
		return fmt.Errorf("pgstore: set role: %w", err)
	}
	logger.LogEvent(ctx, logger.SVCRoles, slog.LevelInfo, "role.set",
		slog.String("identifier", string(id)),
		slog.String("role", role.String()),
	)
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, id roles.Identifier) error {
	res, err := s.db.ExecContext(ctx, qRoleDelete, string(id))
	if err != nil {
		return fmt.Errorf("pgstore: delete role: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		logger.LogEvent(ctx, logger.SVCRoles, slog.LevelInfo, "role.deleted",
			slog.String("identifier", string(id)),
		)
	}
	return nil
}

func (s *Store) ListByRole(ctx context.Context, role roles.Role) ([]roles.Identifier, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, qRoleList, role.String()); err != nil {
		return nil, fmt.Errorf("pgstore: list roles: %w", err)
	}
	out := make([]roles.Identifier, 0, len(ids))
	for _, id := range ids {
		out = append(out, roles.Identifier(id))
	}
	return out, nil
}

// Resources is the resources table.
type Resources struct {
	db *sqlx.DB
}

func (r *Resources) Get(ctx context.Context, name string) (string, bool, error) {
	var link string
	err := r.db.GetContext(ctx, &link, qResourceGet, name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("pgstore: get resource: %w", err)
	}
	return link, true, nil
}

func (r *Resources) Put(ctx context.Context, name, link string) error {
	return r.PutMany(ctx, []string{name}, link)
}

// PutMany upserts every name inside one transaction.
func (r *Resources) PutMany(ctx context.Context, names []string, link string) (err error) {
	if len(names) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgstore: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PreparexContext(ctx, qResourcePut)
	if err != nil {
		return fmt.Errorf("pgstore: prepare: %w", err)
	}
	defer stmt.Close()

	for _, name := range names {
		if _, err = stmt.ExecContext(ctx, name, link); err != nil {
			return fmt.Errorf("pgstore: put %q: %w", name, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("pgstore: commit: %w", err)
	}
	logger.LogEvent(ctx, logger.SVCDirectory, slog.LevelInfo, "resource.saved",
		slog.Int("count", len(names)),
		logger.List("names", names, 10),
	)
	return nil
}
