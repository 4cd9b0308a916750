// Package postgres implements the Store (C1) repository interfaces
// against PostgreSQL, grounded on the teacher's raw-SQL
// database/sql-based adapters (article_repo.go/source_repo.go) but
// rebuilt around the feedstream entity model and its atomic dedupe
// requirement.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"feedstream/internal/domain/entity"
	"feedstream/internal/repository"
)

// ArticleRepo is the Postgres-backed ArticleRepository.
type ArticleRepo struct {
	db *sql.DB
}

func NewArticleRepo(db *sql.DB) *ArticleRepo {
	return &ArticleRepo{db: db}
}

var _ repository.ArticleRepository = (*ArticleRepo)(nil)

// GetOrInsertArticle is the one place the teacher's check-then-insert
// pattern (ExistsByURLBatch followed by Create) is not safe enough: two
// concurrent aggregate_feed runs on the same feed must leave exactly one
// row per (feed_id, identifier), so this uses a real atomic upsert
// instead. ON CONFLICT DO NOTHING ... RETURNING returns no row on a
// collision; the follow-up SELECT then fetches the winner.
func (r *ArticleRepo) GetOrInsertArticle(ctx context.Context, feedID int64, identifier string, seed *entity.Article) (*entity.Article, bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO articles (feed_id, identifier, name, author, date, raw_content, content,
		                       icon_url, icon_data, icon_type, media_url, media_type, duration,
		                       thumbnail_url, score, external_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (feed_id, identifier) DO NOTHING
		RETURNING id`,
		feedID, identifier, seed.Name, seed.Author, seed.Date, seed.RawContent, seed.Content,
		seed.IconURL, seed.IconData, seed.IconType, seed.MediaURL, seed.MediaType, seed.Duration,
		seed.ThumbnailURL, seed.Score, seed.ExternalID,
	).Scan(&id)

	switch {
	case err == nil:
		article, getErr := r.Get(ctx, id)
		return article, true, getErr
	case errors.Is(err, sql.ErrNoRows):
		existing, getErr := r.GetByIdentifier(ctx, feedID, identifier)
		return existing, false, getErr
	default:
		return nil, false, fmt.Errorf("insert article: %w", err)
	}
}

func (r *ArticleRepo) Get(ctx context.Context, id int64) (*entity.Article, error) {
	return r.scanOne(ctx, `SELECT id, feed_id, identifier, name, author, date, raw_content, content,
		COALESCE(icon_url,''), icon_data, COALESCE(icon_type,''), COALESCE(media_url,''),
		COALESCE(media_type,''), COALESCE(duration,0), COALESCE(thumbnail_url,''),
		COALESCE(score,0), COALESCE(external_id,''), created_at, updated_at
		FROM articles WHERE id = $1`, id)
}

func (r *ArticleRepo) GetByIdentifier(ctx context.Context, feedID int64, identifier string) (*entity.Article, error) {
	return r.scanOne(ctx, `SELECT id, feed_id, identifier, name, author, date, raw_content, content,
		COALESCE(icon_url,''), icon_data, COALESCE(icon_type,''), COALESCE(media_url,''),
		COALESCE(media_type,''), COALESCE(duration,0), COALESCE(thumbnail_url,''),
		COALESCE(score,0), COALESCE(external_id,''), created_at, updated_at
		FROM articles WHERE feed_id = $1 AND identifier = $2`, feedID, identifier)
}

func (r *ArticleRepo) scanOne(ctx context.Context, query string, args ...any) (*entity.Article, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
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

func (r *ArticleRepo) UpdateArticleFields(ctx context.Context, articleID int64, f repository.ArticleFields) error {
	sets := []string{"updated_at = now()"}
	args := []any{}
	n := 1
	add := func(col string, val any) {
		n++
		sets = append(sets, fmt.Sprintf("%s = $%d", col, n))
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

	query := fmt.Sprintf("UPDATE articles SET %s WHERE id = $1",
		joinComma(sets))
	args = append([]any{articleID}, args...)
	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update article fields: %w", err)
	}
	return nil
}

func joinComma(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}

func (r *ArticleRepo) ExistsTitleSince(ctx context.Context, feedID int64, name string, since time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM articles WHERE feed_id = $1 AND name = $2 AND created_at >= $3)`,
		feedID, name, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check title duplicate: %w", err)
	}
	return exists, nil
}

// FindArticles resolves the GReader stream filter grammar (spec.md §4.8)
// to an ordered page of article ids plus an opaque continuation cursor.
func (r *ArticleRepo) FindArticles(ctx context.Context, filter repository.ArticleFilter) ([]int64, *string, error) {
	where := []string{"(f.user_id = $1 OR f.user_id IS NULL)"}
	args := []any{filter.UserID}
	n := 1
	addArg := func(v any) int {
		n++
		args = append(args, v)
		return n
	}

	if len(filter.FeedIDs) > 0 {
		idx := addArg(pq.Array(filter.FeedIDs))
		where = append(where, fmt.Sprintf("a.feed_id = ANY($%d)", idx))
	}
	if filter.GroupID != nil {
		idx := addArg(*filter.GroupID)
		where = append(where, fmt.Sprintf("f.group_id = $%d", idx))
	}
	if filter.OnlyRead != nil {
		idx := addArg(*filter.OnlyRead)
		where = append(where, fmt.Sprintf("COALESCE(s.is_read, false) = $%d", idx))
	}
	if filter.OnlyStarred != nil {
		idx := addArg(*filter.OnlyStarred)
		where = append(where, fmt.Sprintf("COALESCE(s.is_saved, false) = $%d", idx))
	}
	if filter.OlderThan != nil {
		idx := addArg(*filter.OlderThan)
		where = append(where, fmt.Sprintf("a.date < $%d", idx))
	}
	if filter.NewerThan != nil {
		idx := addArg(*filter.NewerThan)
		where = append(where, fmt.Sprintf("a.date > $%d", idx))
	}

	orderDir := "DESC"
	cursorOp := "<"
	if filter.Order == repository.OrderOldestFirst {
		orderDir = "ASC"
		cursorOp = ">"
	}
	if !filter.CursorDate.IsZero() {
		dIdx := addArg(filter.CursorDate)
		iIdx := addArg(filter.CursorID)
		where = append(where, fmt.Sprintf("(a.date, a.id) %s ($%d, $%d)", cursorOp, dIdx, iIdx))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	limitIdx := addArg(limit + 1) // fetch one extra row to detect a next page

	query := fmt.Sprintf(`
		SELECT a.id, a.date FROM articles a
		JOIN feeds f ON f.id = a.feed_id
		LEFT JOIN user_article_state s ON s.article_id = a.id AND s.user_id = $1
		WHERE %s
		ORDER BY a.date %s, a.id %s
		LIMIT $%d`, joinAnd(where), orderDir, orderDir, limitIdx)

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
			return nil, nil, fmt.Errorf("scan stream row: %w", err)
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

func joinAnd(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += " AND " + p
	}
	return out
}

func (r *ArticleRepo) DeleteArticlesWhere(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM articles a
		WHERE a.date < $1
		AND NOT EXISTS (
			SELECT 1 FROM user_article_state s WHERE s.article_id = a.id AND s.is_saved = true
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

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO user_article_state (user_id, article_id, is_read, is_saved, updated_at)
		VALUES ($1, $2, COALESCE($3, false), COALESCE($4, false), now())
		ON CONFLICT (user_id, article_id) DO UPDATE SET
			is_read = COALESCE($3, user_article_state.is_read),
			is_saved = COALESCE($4, user_article_state.is_saved),
			updated_at = now()`)
	if err != nil {
		return fmt.Errorf("prepare bulk state upsert: %w", err)
	}
	defer stmt.Close()

	for _, id := range articleIDs {
		if _, err := stmt.ExecContext(ctx, userID, id, patch.IsRead, patch.IsSaved); err != nil {
			return fmt.Errorf("upsert article state %d: %w", id, err)
		}
	}
	return tx.Commit()
}

func (r *ArticleRepo) GetState(ctx context.Context, userID int64, articleIDs []int64) (map[int64]entity.UserArticleState, error) {
	out := map[int64]entity.UserArticleState{}
	if len(articleIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT article_id, is_read, is_saved, updated_at FROM user_article_state
		WHERE user_id = $1 AND article_id = ANY($2)`, userID, pq.Array(articleIDs))
	if err != nil {
		return nil, fmt.Errorf("get article state: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s entity.UserArticleState
		if err := rows.Scan(&s.ArticleID, &s.IsRead, &s.IsSaved, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.UserID = userID
		out[s.ArticleID] = s
	}
	return out, rows.Err()
}

func (r *ArticleRepo) VisibleToUser(ctx context.Context, userID int64, articleIDs []int64) (map[int64]bool, error) {
	out := map[int64]bool{}
	if len(articleIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id FROM articles a JOIN feeds f ON f.id = a.feed_id
		WHERE (f.user_id = $1 OR f.user_id IS NULL) AND a.id = ANY($2)`, userID, pq.Array(articleIDs))
	if err != nil {
		return nil, fmt.Errorf("visible to user: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

