package db

import "database/sql"

// MigrateUp creates the relational schema described in spec.md §3/§4.1:
// users, feeds, feed_groups, articles, user_article_state, auth_tokens,
// and tasks. Statements are idempotent (IF NOT EXISTS) the way the
// teacher's migration does it, so MigrateUp can run on every boot.
func MigrateUp(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
		    id            SERIAL PRIMARY KEY,
		    email         TEXT NOT NULL UNIQUE,
		    password_hash TEXT NOT NULL,
		    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS feed_groups (
		    id      SERIAL PRIMARY KEY,
		    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		    name    TEXT NOT NULL,
		    UNIQUE(user_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS feeds (
		    id                     SERIAL PRIMARY KEY,
		    user_id                INTEGER REFERENCES users(id) ON DELETE CASCADE,
		    name                   TEXT NOT NULL,
		    aggregator_id          TEXT NOT NULL,
		    identifier             TEXT NOT NULL,
		    group_id               INTEGER REFERENCES feed_groups(id) ON DELETE SET NULL,
		    enabled                BOOLEAN NOT NULL DEFAULT TRUE,
		    icon                   TEXT,
		    daily_limit            INTEGER NOT NULL DEFAULT -1,
		    options                JSONB NOT NULL DEFAULT '{}',
		    skip_duplicates        BOOLEAN NOT NULL DEFAULT TRUE,
		    use_current_timestamp  BOOLEAN NOT NULL DEFAULT TRUE,
		    generate_title_image   BOOLEAN NOT NULL DEFAULT FALSE,
		    add_source_footer      BOOLEAN NOT NULL DEFAULT FALSE,
		    ignore_title_contains  JSONB NOT NULL DEFAULT '[]',
		    ignore_content_contains JSONB NOT NULL DEFAULT '[]',
		    exclude_selectors      JSONB NOT NULL DEFAULT '[]',
		    regex_replacements     JSONB NOT NULL DEFAULT '[]',
		    last_crawled_at        TIMESTAMPTZ,
		    created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
		    updated_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
		    UNIQUE(user_id, aggregator_id, identifier)
		)`,
		`CREATE TABLE IF NOT EXISTS articles (
		    id            SERIAL PRIMARY KEY,
		    feed_id       INTEGER NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
		    identifier    TEXT NOT NULL,
		    name          TEXT NOT NULL,
		    author        TEXT,
		    date          TIMESTAMPTZ NOT NULL,
		    raw_content   TEXT,
		    content       TEXT,
		    icon_url      TEXT,
		    icon_data     BYTEA,
		    icon_type     TEXT,
		    media_url     TEXT,
		    media_type    TEXT,
		    duration      INTEGER,
		    thumbnail_url TEXT,
		    score         INTEGER,
		    external_id   TEXT,
		    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		    UNIQUE(feed_id, identifier)
		)`,
		`CREATE TABLE IF NOT EXISTS user_article_state (
		    id         SERIAL PRIMARY KEY,
		    user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		    article_id INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
		    is_read    BOOLEAN NOT NULL DEFAULT FALSE,
		    is_saved   BOOLEAN NOT NULL DEFAULT FALSE,
		    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		    UNIQUE(user_id, article_id)
		)`,
		`CREATE TABLE IF NOT EXISTS auth_tokens (
		    id         SERIAL PRIMARY KEY,
		    user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		    token      CHAR(64) NOT NULL UNIQUE,
		    expires_at TIMESTAMPTZ,
		    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
		    id         SERIAL PRIMARY KEY,
		    name       TEXT NOT NULL,
		    status     TEXT NOT NULL,
		    result     TEXT,
		    error      TEXT,
		    started_at TIMESTAMPTZ NOT NULL,
		    stopped_at TIMESTAMPTZ
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	// Required indexes, spec.md §4.1.
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_articles_feed_date ON articles(feed_id, date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_date ON articles(date)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_feed_name_created ON articles(feed_id, name, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_feeds_user ON feeds(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_feeds_enabled ON feeds(enabled) WHERE enabled = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_uas_article ON user_article_state(article_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_stopped_at ON tasks(stopped_at)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	// pg_trgm powers ILIKE-ish substring search used by the skip-term
	// checks at higher volumes; ignored where the extension is
	// unavailable (e.g. a restricted hosting tier), same as the teacher.
	_, _ = db.Exec(`CREATE EXTENSION IF NOT EXISTS pg_trgm`)
	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_articles_name_gin ON articles USING gin(name gin_trgm_ops)`)

	return nil
}

// MigrateDown drops everything MigrateUp created, in dependency order.
func MigrateDown(db *sql.DB) error {
	statements := []string{
		`DROP TABLE IF EXISTS tasks`,
		`DROP TABLE IF EXISTS auth_tokens`,
		`DROP TABLE IF EXISTS user_article_state`,
		`DROP TABLE IF EXISTS articles`,
		`DROP TABLE IF EXISTS feeds`,
		`DROP TABLE IF EXISTS feed_groups`,
		`DROP TABLE IF EXISTS users`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
