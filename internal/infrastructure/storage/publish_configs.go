package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"BlogMigrator/internal/domain"
)

var configColumns = []string{
	"id", "blog_name", "publish_method", "blog_id", "api_key", "email_address",
	"smtp_server", "smtp_port", "smtp_username", "smtp_password", "is_default", "created_at",
}

// AddPublishConfig stores a destination. When cfg is the default, the
// previous default is cleared in the same transaction.
func (r *SQLRepository) AddPublishConfig(ctx context.Context, cfg domain.PublishConfig) (string, error) {
	cfg.ApplyDefaults()
	id := uuid.NewString()

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if cfg.IsDefault {
			if err := r.clearDefault(ctx, tx); err != nil {
				return err
			}
		}
		_, err := exec(ctx, tx, r.sb.Insert("blogger_configs").
			Columns(configColumns...).
			Values(id, cfg.BlogName, string(cfg.PublishMethod), cfg.BlogID, cfg.APIKey, cfg.EmailAddress,
				cfg.SMTPServer, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, boolInt(cfg.IsDefault), r.timestamp()))
		if err != nil {
			return fmt.Errorf("insert publish config: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetPublishConfig loads a destination by id.
func (r *SQLRepository) GetPublishConfig(ctx context.Context, id string) (domain.PublishConfig, error) {
	configs, err := r.selectConfigs(ctx, r.db, sq.Eq{"id": id})
	if err != nil {
		return domain.PublishConfig{}, err
	}
	if len(configs) == 0 {
		return domain.PublishConfig{}, fmt.Errorf("%w: publish config %s", domain.ErrNotFound, id)
	}
	return configs[0], nil
}

// DefaultPublishConfig returns the destination flagged as default.
func (r *SQLRepository) DefaultPublishConfig(ctx context.Context) (domain.PublishConfig, error) {
	configs, err := r.selectConfigs(ctx, r.db, sq.Eq{"is_default": 1})
	if err != nil {
		return domain.PublishConfig{}, err
	}
	if len(configs) == 0 {
		return domain.PublishConfig{}, fmt.Errorf("%w: no default publish config", domain.ErrNotFound)
	}
	return configs[0], nil
}

// ListPublishConfigs returns every destination, newest first.
func (r *SQLRepository) ListPublishConfigs(ctx context.Context) ([]domain.PublishConfig, error) {
	return r.selectConfigs(ctx, r.db, nil)
}

// SetDefaultPublishConfig makes id the only default destination.
func (r *SQLRepository) SetDefaultPublishConfig(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		configs, err := r.selectConfigs(ctx, tx, sq.Eq{"id": id})
		if err != nil {
			return err
		}
		if len(configs) == 0 {
			return fmt.Errorf("%w: publish config %s", domain.ErrNotFound, id)
		}
		if err := r.clearDefault(ctx, tx); err != nil {
			return err
		}
		if _, err := exec(ctx, tx, r.sb.Update("blogger_configs").Set("is_default", 1).Where(sq.Eq{"id": id})); err != nil {
			return fmt.Errorf("set default: %w", err)
		}
		return nil
	})
}

// DeletePublishConfig removes a destination.
func (r *SQLRepository) DeletePublishConfig(ctx context.Context, id string) error {
	res, err := exec(ctx, r.db, r.sb.Delete("blogger_configs").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete publish config: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: publish config %s", domain.ErrNotFound, id)
	}
	return nil
}

// clearDefault must run inside a transaction. On Postgres it first locks the
// config rows so concurrent default changes serialize.
func (r *SQLRepository) clearDefault(ctx context.Context, run runner) error {
	if r.driver == DriverPostgres {
		rows, err := query(ctx, run, r.sb.Select("id").From("blogger_configs").Suffix("FOR UPDATE"))
		if err != nil {
			return fmt.Errorf("lock publish configs: %w", err)
		}
		if err := rows.Close(); err != nil {
			return fmt.Errorf("lock publish configs: %w", err)
		}
	}
	_, err := exec(ctx, run, r.sb.Update("blogger_configs").Set("is_default", 0).Where(sq.Eq{"is_default": 1}))
	if err != nil {
		return fmt.Errorf("clear default: %w", err)
	}
	return nil
}

func (r *SQLRepository) selectConfigs(ctx context.Context, run runner, where sq.Sqlizer) ([]domain.PublishConfig, error) {
	b := r.sb.Select(configColumns...).From("blogger_configs").OrderBy("created_at DESC", "id")
	if where != nil {
		b = b.Where(where)
	}

	rows, err := query(ctx, run, b)
	if err != nil {
		return nil, fmt.Errorf("query publish configs: %w", err)
	}
	defer rows.Close()

	var configs []domain.PublishConfig
	for rows.Next() {
		var (
			c         domain.PublishConfig
			method    string
			isDefault int
			created   string
		)
		if err := rows.Scan(&c.ID, &c.BlogName, &method, &c.BlogID, &c.APIKey, &c.EmailAddress,
			&c.SMTPServer, &c.SMTPPort, &c.SMTPUsername, &c.SMTPPassword, &isDefault, &created); err != nil {
			return nil, fmt.Errorf("scan publish config: %w", err)
		}
		c.PublishMethod = domain.PublishMethod(method)
		c.IsDefault = isDefault != 0
		if c.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return configs, nil
}
