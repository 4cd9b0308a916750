// Package sqlite provides a modernc.org/sqlite-backed implementation of
// the Store (C1) repositories, mirroring the Postgres adapter's semantics
// for local development and the package's own test suite. Grounded on the
// teacher's sqlite adapter (same dual-backend split), generalized to the
// feedstream entity model.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"feedstream/internal/domain/entity"
	"feedstream/internal/repository"

	_ "modernc.org/sqlite"
)

// Open creates a sqlite-backed *sql.DB and applies the schema, mirroring
// internal/infra/db.Open/MigrateUp for the Postgres backend.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite: serialize writers, matching its single-writer model
	if err := migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
		`CREATE TABLE IF NOT EXISTS feed_groups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			UNIQUE(user_id, name))`,
		`CREATE TABLE IF NOT EXISTS feeds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER,
			name TEXT NOT NULL,
			aggregator_id TEXT NOT NULL,
			identifier TEXT NOT NULL,
			group_id INTEGER,
			enabled BOOLEAN NOT NULL DEFAULT 1,
			icon TEXT,
			daily_limit INTEGER NOT NULL DEFAULT -1,
			options TEXT NOT NULL DEFAULT '{}',
			skip_duplicates BOOLEAN NOT NULL DEFAULT 1,
			use_current_timestamp BOOLEAN NOT NULL DEFAULT 1,
			generate_title_image BOOLEAN NOT NULL DEFAULT 0,
			add_source_footer BOOLEAN NOT NULL DEFAULT 0,
			ignore_title_contains TEXT NOT NULL DEFAULT '[]',
			ignore_content_contains TEXT NOT NULL DEFAULT '[]',
			exclude_selectors TEXT NOT NULL DEFAULT '[]',
			regex_replacements TEXT NOT NULL DEFAULT '[]',
			last_crawled_at DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, aggregator_id, identifier))`,
		`CREATE TABLE IF NOT EXISTS articles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			feed_id INTEGER NOT NULL,
			identifier TEXT NOT NULL,
			name TEXT NOT NULL,
			author TEXT,
			date DATETIME NOT NULL,
			raw_content TEXT,
			content TEXT,
			icon_url TEXT,
			icon_data BLOB,
			icon_type TEXT,
			media_url TEXT,
			media_type TEXT,
			duration INTEGER,
			thumbnail_url TEXT,
			score INTEGER,
			external_id TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(feed_id, identifier))`,
		`CREATE TABLE IF NOT EXISTS user_article_state (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			article_id INTEGER NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT 0,
			is_saved BOOLEAN NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, article_id))`,
		`CREATE TABLE IF NOT EXISTS auth_tokens (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			token TEXT NOT NULL UNIQUE,
			expires_at DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			result TEXT,
			error TEXT,
			started_at DATETIME NOT NULL,
			stopped_at DATETIME)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_feed_date ON articles(feed_id, date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_date ON articles(date)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_feed_name_created ON articles(feed_id, name, created_at)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("sqlite migrate: %w", err)
		}
	}
	return nil
}

// ArticleRepo is the sqlite-backed ArticleRepository.
type ArticleRepo struct{ db *sql.DB }

func NewArticleRepo(db *sql.DB) *ArticleRepo { return &ArticleRepo{db: db} }

var _ repository.ArticleRepository = (*ArticleRepo)(nil)

func (r *ArticleRepo) GetOrInsertArticle(ctx context.Context, feedID int64, identifier string, seed *entity.Article) (*entity.Article, bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO articles (feed_id, identifier, name, author, date, raw_content, content, icon_url,
		                       icon_data, icon_type, media_url, media_type, duration, thumbnail_url, score, external_id)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT (feed_id, identifier) DO NOTHING`,
		feedID, identifier, seed.Name, seed.Author, seed.Date, seed.RawContent, seed.Content, seed.IconURL,
		seed.IconData, seed.IconType, seed.MediaURL, seed.MediaType, seed.Duration, seed.ThumbnailURL, seed.Score, seed.ExternalID)
	if err != nil {
		return nil, false, fmt.Errorf("insert article: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 1 {
		id, _ := res.LastInsertId()
		a, err := r.Get(ctx, id)
		return a, true, err
	}
	a, err := r.GetByIdentifier(ctx, feedID, identifier)
	return a, false, err
}

const articleCols = `id, feed_id, identifier, name, COALESCE(author,''), date, COALESCE(raw_content,''), COALESCE(content,''),
	COALESCE(icon_url,''), icon_data, COALESCE(icon_type,''), COALESCE(media_url,''), COALESCE(media_type,''),
	COALESCE(duration,0), COALESCE(thumbnail_url,''), COALESCE(score,0), COALESCE(external_id,''), created_at, updated_at`

func scanArticle(row interface{ Scan(...any) error }) (*entity.Article, error) {
	a := &entity.Article{}
	err := row.Scan(&a.ID, &a.FeedID, &a.Identifier, &a.Name, &a.Author, &a.Date, &a.RawContent, &a.Content,
		&a.IconURL, &a.IconData, &a.IconType, &a.MediaURL, &a.MediaType, &a.Duration, &a.ThumbnailURL,
		&a.Score, &a.ExternalID, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan article: %w", err)
	}
	return a, nil
}

func (r *ArticleRepo) Get(ctx context.Context, id int64) (*entity.Article, error) {
	return scanArticle(r.db.QueryRowContext(ctx, `SELECT `+articleCols+` FROM articles WHERE id = ?`, id))
}

func (r *ArticleRepo) GetByIdentifier(ctx context.Context, feedID int64, identifier string) (*entity.Article, error) {
	return scanArticle(r.db.QueryRowContext(ctx, `SELECT `+articleCols+` FROM articles WHERE feed_id = ? AND identifier = ?`, feedID, identifier))
}

func (r *ArticleRepo) UpdateArticleFields(ctx context.Context, articleID int64, f repository.ArticleFields) error {
	sets := []string{"updated_at = CURRENT_TIMESTAMP"}
	var args []any
	add := func(col string, val any) {
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}
	if f.Name != nil {
		add("name", *f.Name)
	}
	if f.Author != nil {
		add("author", *f.Author)
	}
	if f.Date != nil {
		add("date", *f.Date)
	}
	if f.RawContent != nil {
		add("raw_content", *f.RawContent)
	}
	if f.Content != nil {
		add("content", *f.Content)
	}
	if f.IconURL != nil {
		add("icon_url", *f.IconURL)
	}
	if f.IconData != nil {
		add("icon_data", f.IconData)
	}
	if f.IconType != nil {
		add("icon_type", *f.IconType)
	}
	if f.MediaURL != nil {
		add("media_url", *f.MediaURL)
	}
	if f.MediaType != nil {
		add("media_type", *f.MediaType)
	}
	if f.Duration != nil {
		add("duration", *f.Duration)
	}
	if f.ThumbnailURL != nil {
		add("thumbnail_url", *f.ThumbnailURL)
	}
	if f.Score != nil {
		add("score", *f.Score)
	}
	if f.ExternalID != nil {
		add("external_id", *f.ExternalID)
	}
	args = append(args, articleID)
	_, err := r.db.ExecContext(ctx, fmt.Sprintf("UPDATE articles SET %s WHERE id = ?", strings.Join(sets, ", ")), args...)
	if err != nil {
		return fmt.Errorf("update article fields: %w", err)
	}
	return nil
}

func (r *ArticleRepo) ExistsTitleSince(ctx context.Context, feedID int64, name string, since time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM articles WHERE feed_id = ? AND name = ? AND created_at >= ?)`,
		feedID, name, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check title duplicate: %w", err)
	}
	return exists, nil
}

func (r *ArticleRepo) FindArticles(ctx context.Context, filter repository.ArticleFilter) ([]int64, *string, error) {
	where := []string{"(f.user_id = ? OR f.user_id IS NULL)"}
	args := []any{filter.UserID}

	if len(filter.FeedIDs) > 0 {
		placeholders := make([]string, len(filter.FeedIDs))
		for i, id := range filter.FeedIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		where = append(where, "a.feed_id IN ("+strings.Join(placeholders, ",")+")")
	}
	if filter.GroupID != nil {
		where = append(where, "f.group_id = ?")
		args = append(args, *filter.GroupID)
	}
	if filter.OnlyRead != nil {
		where = append(where, "COALESCE(s.is_read, 0) = ?")
		args = append(args, *filter.OnlyRead)
	}
	if filter.OnlyStarred != nil {
		where = append(where, "COALESCE(s.is_saved, 0) = ?")
		args = append(args, *filter.OnlyStarred)
	}
	if filter.OlderThan != nil {
		where = append(where, "a.date < ?")
		args = append(args, *filter.OlderThan)
	}
	if filter.NewerThan != nil {
		where = append(where, "a.date > ?")
		args = append(args, *filter.NewerThan)
	}

	orderDir, cursorOp := "DESC", "<"
	if filter.Order == repository.OrderOldestFirst {
		orderDir, cursorOp = "ASC", ">"
	}
	if !filter.CursorDate.IsZero() {
		where = append(where, fmt.Sprintf("(a.date %s ? OR (a.date = ? AND a.id %s ?))", cursorOp, cursorOp))
		args = append(args, filter.CursorDate, filter.CursorDate, filter.CursorID)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit+1)

	query := fmt.Sprintf(`
		SELECT a.id, a.date FROM articles a
		JOIN feeds f ON f.id = a.feed_id
		LEFT JOIN user_article_state s ON s.article_id = a.id AND s.user_id = ?
		WHERE %s
		ORDER BY a.date %s, a.id %s
		LIMIT ?`, strings.Join(where, " AND "), orderDir, orderDir)
	// user_id for the LEFT JOIN binding comes first positionally in the query text but
	// args were built for the WHERE clause already; prepend it.
	args = append([]any{filter.UserID}, args...)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("find articles: %w", err)
	}
	defer rows.Close()

	var ids []int64
	var dates []time.Time
	for rows.Next() {
		var id int64
		var date time.Time
		if err := rows.Scan(&id, &date); err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
		dates = append(dates, date)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var next *string
	if len(ids) > limit {
		ids = ids[:limit]
		dates = dates[:limit]
		token := repository.EncodeCursor(dates[len(dates)-1], ids[len(ids)-1])
		next = &token
	}
	return ids, next, nil
}

func (r *ArticleRepo) DeleteArticlesWhere(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM articles WHERE date < ? AND id NOT IN (
			SELECT article_id FROM user_article_state WHERE is_saved = 1
		)`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old articles: %w", err)
	}
	return res.RowsAffected()
}

func (r *ArticleRepo) BulkSetState(ctx context.Context, userID int64, articleIDs []int64, patch repository.StatePatch) error {
	if len(articleIDs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk state tx: %w", err)
	}
	defer tx.Rollback()

	for _, id := range articleIDs {
		existing, err := tx.QueryContext(ctx, `SELECT is_read, is_saved FROM user_article_state WHERE user_id = ? AND article_id = ?`, userID, id)
		if err != nil {
			return err
		}
		var isRead, isSaved bool
		hasRow := existing.Next()
		if hasRow {
			_ = existing.Scan(&isRead, &isSaved)
		}
		existing.Close()

		if patch.IsRead != nil {
			isRead = *patch.IsRead
		}
		if patch.IsSaved != nil {
			isSaved = *patch.IsSaved
		}
		if hasRow {
			if _, err := tx.ExecContext(ctx, `UPDATE user_article_state SET is_read=?, is_saved=?, updated_at=CURRENT_TIMESTAMP WHERE user_id=? AND article_id=?`,
				isRead, isSaved, userID, id); err != nil {
				return err
			}
		} else {
			if _, err := tx.ExecContext(ctx, `INSERT INTO user_article_state (user_id, article_id, is_read, is_saved) VALUES (?,?,?,?)`,
				userID, id, isRead, isSaved); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (r *ArticleRepo) GetState(ctx context.Context, userID int64, articleIDs []int64) (map[int64]entity.UserArticleState, error) {
	out := map[int64]entity.UserArticleState{}
	for _, id := range articleIDs {
		var s entity.UserArticleState
		err := r.db.QueryRowContext(ctx, `SELECT article_id, is_read, is_saved, updated_at FROM user_article_state WHERE user_id = ? AND article_id = ?`,
			userID, id).Scan(&s.ArticleID, &s.IsRead, &s.IsSaved, &s.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.UserID = userID
		out[s.ArticleID] = s
	}
	return out, nil
}

func (r *ArticleRepo) VisibleToUser(ctx context.Context, userID int64, articleIDs []int64) (map[int64]bool, error) {
	out := map[int64]bool{}
	for _, id := range articleIDs {
		var exists bool
		err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM articles a JOIN feeds f ON f.id=a.feed_id WHERE (f.user_id=? OR f.user_id IS NULL) AND a.id=?)`,
			userID, id).Scan(&exists)
		if err != nil {
			return nil, err
		}
		if exists {
			out[id] = true
		}
	}
	return out, nil
}

// FeedRepo is the sqlite-backed FeedRepository.
type FeedRepo struct{ db *sql.DB }

func NewFeedRepo(db *sql.DB) *FeedRepo { return &FeedRepo{db: db} }

var _ repository.FeedRepository = (*FeedRepo)(nil)

const feedCols = `id, user_id, name, aggregator_id, identifier, group_id, enabled, COALESCE(icon,''), daily_limit,
	options, skip_duplicates, use_current_timestamp, generate_title_image, add_source_footer,
	ignore_title_contains, ignore_content_contains, exclude_selectors, regex_replacements,
	last_crawled_at, created_at, updated_at`

func scanFeedSQLite(row interface{ Scan(...any) error }) (*entity.Feed, error) {
	var f entity.Feed
	var optionsRaw, ignoreTitle, ignoreContent, excludeSel, regexRepl string
	err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.AggregatorID, &f.Identifier, &f.GroupID, &f.Enabled, &f.Icon,
		&f.DailyLimit, &optionsRaw, &f.SkipDuplicates, &f.UseCurrentTimestamp, &f.GenerateTitleImage, &f.AddSourceFooter,
		&ignoreTitle, &ignoreContent, &excludeSel, &regexRepl, &f.LastCrawledAt, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan feed: %w", err)
	}
	_ = json.Unmarshal([]byte(optionsRaw), &f.Options)
	_ = json.Unmarshal([]byte(ignoreTitle), &f.IgnoreTitleContains)
	_ = json.Unmarshal([]byte(ignoreContent), &f.IgnoreContentContains)
	_ = json.Unmarshal([]byte(excludeSel), &f.ExcludeSelectors)
	_ = json.Unmarshal([]byte(regexRepl), &f.RegexReplacements)
	return &f, nil
}

func (r *FeedRepo) Get(ctx context.Context, id int64) (*entity.Feed, error) {
	return scanFeedSQLite(r.db.QueryRowContext(ctx, `SELECT `+feedCols+` FROM feeds WHERE id = ?`, id))
}

func (r *FeedRepo) GetOwned(ctx context.Context, userID, id int64) (*entity.Feed, error) {
	return scanFeedSQLite(r.db.QueryRowContext(ctx, `SELECT `+feedCols+` FROM feeds WHERE id = ? AND user_id = ?`, id, userID))
}

func (r *FeedRepo) GetByIdentifier(ctx context.Context, userID int64, aggregatorID, identifier string) (*entity.Feed, error) {
	return scanFeedSQLite(r.db.QueryRowContext(ctx, `SELECT `+feedCols+` FROM feeds WHERE user_id=? AND aggregator_id=? AND identifier=?`,
		userID, aggregatorID, identifier))
}

func (r *FeedRepo) listFeeds(ctx context.Context, query string, args ...any) ([]*entity.Feed, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}
	defer rows.Close()
	var out []*entity.Feed
	for rows.Next() {
		f, err := scanFeedSQLite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListByUser returns the union of userID's own feeds and shared feeds
// (user_id IS NULL), per spec.md's shared-feed read-scoping rule.
func (r *FeedRepo) ListByUser(ctx context.Context, userID int64) ([]*entity.Feed, error) {
	return r.listFeeds(ctx, `SELECT `+feedCols+` FROM feeds WHERE user_id = ? OR user_id IS NULL ORDER BY name`, userID)
}

func (r *FeedRepo) ListEnabled(ctx context.Context) ([]*entity.Feed, error) {
	return r.listFeeds(ctx, `SELECT `+feedCols+` FROM feeds WHERE enabled = 1`)
}

func (r *FeedRepo) ListEnabledByAggregatorType(ctx context.Context, aggregatorType string) ([]*entity.Feed, error) {
	return r.listFeeds(ctx, `SELECT `+feedCols+` FROM feeds WHERE enabled = 1 AND aggregator_id = ?`, aggregatorType)
}

func (r *FeedRepo) Create(ctx context.Context, f *entity.Feed) error {
	options, _ := json.Marshal(f.Options)
	ignoreTitle, _ := json.Marshal(f.IgnoreTitleContains)
	ignoreContent, _ := json.Marshal(f.IgnoreContentContains)
	excludeSel, _ := json.Marshal(f.ExcludeSelectors)
	regexRepl, _ := json.Marshal(f.RegexReplacements)

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO feeds (user_id, name, aggregator_id, identifier, group_id, enabled, icon, daily_limit,
		                    options, skip_duplicates, use_current_timestamp, generate_title_image, add_source_footer,
		                    ignore_title_contains, ignore_content_contains, exclude_selectors, regex_replacements)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		f.UserID, f.Name, f.AggregatorID, f.Identifier, f.GroupID, f.Enabled, f.Icon, f.DailyLimit,
		string(options), f.SkipDuplicates, f.UseCurrentTimestamp, f.GenerateTitleImage, f.AddSourceFooter,
		string(ignoreTitle), string(ignoreContent), string(excludeSel), string(regexRepl))
	if err != nil {
		return fmt.Errorf("create feed: %w", err)
	}
	f.ID, _ = res.LastInsertId()
	return nil
}

func (r *FeedRepo) Update(ctx context.Context, f *entity.Feed) error {
	options, _ := json.Marshal(f.Options)
	ignoreTitle, _ := json.Marshal(f.IgnoreTitleContains)
	ignoreContent, _ := json.Marshal(f.IgnoreContentContains)
	excludeSel, _ := json.Marshal(f.ExcludeSelectors)
	regexRepl, _ := json.Marshal(f.RegexReplacements)
	_, err := r.db.ExecContext(ctx, `
		UPDATE feeds SET name=?, aggregator_id=?, identifier=?, group_id=?, enabled=?, icon=?, daily_limit=?,
		    options=?, skip_duplicates=?, use_current_timestamp=?, generate_title_image=?, add_source_footer=?,
		    ignore_title_contains=?, ignore_content_contains=?, exclude_selectors=?, regex_replacements=?,
		    updated_at=CURRENT_TIMESTAMP
		WHERE id=?`,
		f.Name, f.AggregatorID, f.Identifier, f.GroupID, f.Enabled, f.Icon, f.DailyLimit,
		string(options), f.SkipDuplicates, f.UseCurrentTimestamp, f.GenerateTitleImage, f.AddSourceFooter,
		string(ignoreTitle), string(ignoreContent), string(excludeSel), string(regexRepl), f.ID)
	return err
}

func (r *FeedRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM feeds WHERE id = ?`, id)
	return err
}

func (r *FeedRepo) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE feeds SET enabled=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, enabled, id)
	return err
}

func (r *FeedRepo) TouchCrawledAt(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE feeds SET last_crawled_at=CURRENT_TIMESTAMP WHERE id=?`, id)
	return err
}

func (r *FeedRepo) CountAddedToday(ctx context.Context, feedID int64) (int, error) {
	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles WHERE feed_id = ? AND created_at >= ?`, feedID, midnight).Scan(&count)
	return count, err
}
