package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"BlogMigrator/internal/domain"
)

var sourceColumns = []string{"s.id", "s.url", "s.name", "s.created_at", "COUNT(p.id)"}

// AddSource registers a legacy blog. A URL can only be registered once.
func (r *SQLRepository) AddSource(ctx context.Context, url, name string) (domain.Source, error) {
	source := domain.Source{ID: uuid.NewString(), URL: url, Name: name}
	stamp := r.timestamp()

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		row, err := queryRow(ctx, tx, r.sb.Select("id").From("sources").Where(sq.Eq{"url": url}))
		if err != nil {
			return err
		}
		var existing string
		switch err := row.Scan(&existing); {
		case err == nil:
			return fmt.Errorf("%w: source %s already registered", domain.ErrDuplicate, url)
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("lookup source: %w", err)
		}

		_, err = exec(ctx, tx, r.sb.Insert("sources").
			Columns("id", "url", "name", "created_at").
			Values(source.ID, url, name, stamp))
		if err != nil {
			return fmt.Errorf("insert source: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Source{}, err
	}

	source.CreatedAt, err = parseTime(stamp)
	return source, err
}

// GetSource loads one source with its post count.
func (r *SQLRepository) GetSource(ctx context.Context, id string) (domain.Source, error) {
	sources, err := r.selectSources(ctx, sq.Eq{"s.id": id})
	if err != nil {
		return domain.Source{}, err
	}
	if len(sources) == 0 {
		return domain.Source{}, fmt.Errorf("%w: source %s", domain.ErrNotFound, id)
	}
	return sources[0], nil
}

// ListSources returns every source, newest first, with post counts.
func (r *SQLRepository) ListSources(ctx context.Context) ([]domain.Source, error) {
	return r.selectSources(ctx, nil)
}

func (r *SQLRepository) selectSources(ctx context.Context, where sq.Sqlizer) ([]domain.Source, error) {
	b := r.sb.Select(sourceColumns...).
		From("sources s").
		LeftJoin("posts p ON p.source_id = s.id").
		GroupBy("s.id", "s.url", "s.name", "s.created_at").
		OrderBy("s.created_at DESC")
	if where != nil {
		b = b.Where(where)
	}

	rows, err := query(ctx, r.db, b)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		var (
			s       domain.Source
			created string
		)
		if err := rows.Scan(&s.ID, &s.URL, &s.Name, &created, &s.PostCount); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		if s.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return sources, nil
}

// DeleteSource removes a source together with all of its posts.
func (r *SQLRepository) DeleteSource(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := exec(ctx, tx, r.sb.Delete("posts").Where(sq.Eq{"source_id": id})); err != nil {
			return fmt.Errorf("delete source posts: %w", err)
		}
		res, err := exec(ctx, tx, r.sb.Delete("sources").Where(sq.Eq{"id": id}))
		if err != nil {
			return fmt.Errorf("delete source: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: source %s", domain.ErrNotFound, id)
		}
		return nil
	})
}
