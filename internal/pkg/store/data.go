package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/paulexconde/together/pkg/fault"
	"github.com/paulexconde/together/pkg/store"
)

type dataStore[T any] struct {
	db         *sqlx.DB
	tablename  string
	hooks      store.Hooks
	mu         sync.RWMutex
	dtoFactory func() any
}

func NewDataStore[T any](db *sqlx.DB, tablename string, dtoFactory ...func() any) *dataStore[T] {
	var factory func() any

	if len(dtoFactory) > 0 {
		factory = dtoFactory[0]
	}

	return &dataStore[T]{
		db:         db,
		tablename:  tablename,
		mu:         sync.RWMutex{},
		dtoFactory: factory,
	}
}

func (s *dataStore[T]) Base() *sqlx.DB {
	return s.db
}

func (s *dataStore[T]) SetHooks(hooks store.Hooks) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hooks.PreSave = append(s.hooks.PreSave, hooks.PreSave...)
	s.hooks.PostSave = append(s.hooks.PostSave, hooks.PostSave...)
	s.hooks.AfterSaveCommit = append(s.hooks.AfterSaveCommit, hooks.AfterSaveCommit...)
}

func (s *dataStore[T]) currentHooks() store.Hooks {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hooks store.Hooks
	hooks.PreSave = append(hooks.PreSave, s.hooks.PreSave...)
	hooks.PostSave = append(hooks.PostSave, s.hooks.PostSave...)
	hooks.AfterSaveCommit = append(hooks.AfterSaveCommit, s.hooks.AfterSaveCommit...)

	return hooks
}

func (s *dataStore[T]) QueryRow(ctx context.Context, query string, args ...any) (any, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(query), args...)

	var result any

	err := row.Scan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrNotFound
		}
		return nil, err
	}

	return result, nil
}

func (s *dataStore[T]) Get(ctx context.Context, query string, args ...any) (*T, error) {
	var result T

	if err := s.db.GetContext(ctx, &result, s.db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrNotFound
		}
		return nil, err
	}

	return &result, nil
}

func (s *dataStore[T]) Select(ctx context.Context, query string, args ...any) ([]T, error) {
	results := []T{}

	if err := s.db.SelectContext(ctx, &results, s.db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []T{}, nil
		}
		return nil, err
	}

	return results, nil
}

func (s *dataStore[T]) Create(ctx context.Context, data store.DTO) (any, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	hooks := s.currentHooks()

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}

	// no-op once committed
	defer tx.Rollback()

	for _, hook := range hooks.PreSave {
		if err := hook(ctx, tx, data, true); err != nil {
			return nil, err
		}
	}

	columns, placeholders := getStructFieldsFromDTO(data)

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id", s.tablename, columns, placeholders)

	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer stmt.Close()

	var id int
	if err := stmt.QueryRowContext(ctx, data).Scan(&id); err != nil {
		return nil, translateError(err)
	}

	model := data.ToModel(id)

	for _, hook := range hooks.PostSave {
		if err := hook(ctx, tx, data, model, true); err != nil {
			return nil, err
		}
	}

	afterCommit := make([]store.AfterSaveCommitHook, 0, len(hooks.AfterSaveCommit))
	for _, hook := range hooks.AfterSaveCommit {
		if fn := hook(ctx, data, model, true); fn != nil {
			afterCommit = append(afterCommit, fn)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, translateError(err)
	}

	for _, fn := range afterCommit {
		fn()
	}

	return model, nil
}

func (s *dataStore[T]) Update(ctx context.Context, id int, data store.DTO) (any, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	hooks := s.currentHooks()

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}

	defer tx.Rollback()

	for _, hook := range hooks.PreSave {
		if err := hook(ctx, tx, data, false); err != nil {
			return nil, err
		}
	}

	params := map[string]any{"id": id}
	setClause := getNonEmptyFieldsFromDTO(data, params)

	if setClause == "" {
		return nil, fmt.Errorf("no fields to update")
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", s.tablename, setClause)

	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer stmt.Close()

	res, err := stmt.ExecContext(ctx, params)
	if err != nil {
		return nil, translateError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fault.ErrNotFound
	}

	updatedModel, err := s.getByIDBase(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	for _, hook := range hooks.PostSave {
		if err := hook(ctx, tx, data, updatedModel, false); err != nil {
			return nil, err
		}
	}

	afterCommit := make([]store.AfterSaveCommitHook, 0, len(hooks.AfterSaveCommit))
	for _, hook := range hooks.AfterSaveCommit {
		if fn := hook(ctx, data, updatedModel, false); fn != nil {
			afterCommit = append(afterCommit, fn)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, translateError(err)
	}

	for _, fn := range afterCommit {
		fn()
	}

	return updatedModel, nil
}

func (s *dataStore[T]) DeleteWhere(ctx context.Context, column string, value any) error {
	query := s.db.Rebind(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", s.tablename, column))

	if _, err := s.db.ExecContext(ctx, query, value); err != nil {
		return translateError(err)
	}

	return nil
}

func (s *dataStore[T]) getByIDBase(ctx context.Context, tx *sqlx.Tx, id int) (any, error) {
	var instance any
	if s.dtoFactory != nil {
		instance = s.dtoFactory()
	} else {
		instance = new(T)
	}

	fields := strings.Join(getStructFieldNamesFromInstance(instance), ", ")
	query := tx.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", fields, s.tablename))

	if err := tx.GetContext(ctx, instance, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrNotFound
		}
		return nil, err
	}

	return instance, nil
}

// translateError maps driver constraint errors onto the fault sentinels.
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fault.ErrUniqueViolation
		case "23503":
			return fault.ErrForeignKeyViolation
		}
		return err
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fault.ErrUniqueViolation
		case sqlite3.ErrConstraintForeignKey:
			return fault.ErrForeignKeyViolation
		}
	}

	return err
}
