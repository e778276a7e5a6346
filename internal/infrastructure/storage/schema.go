package storage

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sources (
		id         TEXT PRIMARY KEY,
		url        TEXT NOT NULL UNIQUE,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id                TEXT PRIMARY KEY,
		source_id         TEXT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
		title             TEXT NOT NULL,
		content           TEXT NOT NULL,
		source_url        TEXT NOT NULL,
		rewritten_title   TEXT NOT NULL DEFAULT '',
		rewritten_content TEXT NOT NULL DEFAULT '',
		meta_description  TEXT NOT NULL DEFAULT '',
		images            TEXT NOT NULL DEFAULT '[]',
		tags              TEXT NOT NULL DEFAULT '[]',
		suggested_tags    TEXT NOT NULL DEFAULT '[]',
		status            TEXT NOT NULL,
		scheduled_time    TEXT,
		published_url     TEXT NOT NULL DEFAULT '',
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_status ON posts (status)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_source ON posts (source_id)`,
	`CREATE TABLE IF NOT EXISTS blogger_configs (
		id             TEXT PRIMARY KEY,
		blog_name      TEXT NOT NULL,
		publish_method TEXT NOT NULL,
		blog_id        TEXT NOT NULL DEFAULT '',
		api_key        TEXT NOT NULL DEFAULT '',
		email_address  TEXT NOT NULL DEFAULT '',
		smtp_server    TEXT NOT NULL DEFAULT '',
		smtp_port      INTEGER NOT NULL DEFAULT 0,
		smtp_username  TEXT NOT NULL DEFAULT '',
		smtp_password  TEXT NOT NULL DEFAULT '',
		is_default     INTEGER NOT NULL DEFAULT 0,
		created_at     TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_blogger_configs_default ON blogger_configs (is_default) WHERE is_default = 1`,
}

func (r *SQLRepository) ensureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
