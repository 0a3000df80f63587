package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/newswatch/internal/domain"
)

// Outcome is the result of inserting a single article.
type Outcome int

const (
	// OutcomeFailed means the store could not complete the insert.
	OutcomeFailed Outcome = iota
	// OutcomeInserted means the link was new and the article was stored.
	OutcomeInserted
	// OutcomeAlreadyExists means the link was already stored; nothing changed.
	OutcomeAlreadyExists
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeAlreadyExists:
		return "already_exists"
	default:
		return "failed"
	}
}

const (
	insertArticleQuery = `INSERT INTO articles (title, link, source, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (link) DO NOTHING
		RETURNING id`

	recentArticlesQuery = `SELECT id, title, link, source, created_at
		FROM articles
		ORDER BY id DESC
		LIMIT ?`

	countArticlesQuery = `SELECT COUNT(*) FROM articles`
)

// ArticleStore persists articles keyed by link. A link is stored at most
// once; inserting it again never updates the existing row.
type ArticleStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// StoreOption configures an ArticleStore.
type StoreOption func(*ArticleStore)

// WithClock overrides the clock used for DiscoveredAt.
func WithClock(now func() time.Time) StoreOption {
	return func(s *ArticleStore) {
		s.now = now
	}
}

// NewArticleStore creates a store over an open handle. The schema must
// already exist (see EnsureSchema).
func NewArticleStore(db *sqlx.DB, opts ...StoreOption) *ArticleStore {
	s := &ArticleStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InsertIfAbsent stores a when its link is unknown. The returned article
// carries the assigned ID and DiscoveredAt when the outcome is OutcomeInserted.
func (s *ArticleStore) InsertIfAbsent(ctx context.Context, a domain.Article) (Outcome, domain.Article, error) {
	discoveredAt := s.now().UTC().Truncate(time.Microsecond)

	var id int64
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(insertArticleQuery),
		a.Title, a.Link, a.Source, discoveredAt,
	).Scan(&id)

	switch {
	case err == nil:
		a.ID = id
		a.DiscoveredAt = discoveredAt
		return OutcomeInserted, a, nil
	case errors.Is(err, sql.ErrNoRows), isUniqueViolation(err):
		return OutcomeAlreadyExists, a, nil
	default:
		return OutcomeFailed, a, fmt.Errorf("%w: insert %s: %w", ErrStorageFailure, a.Link, err)
	}
}

// Insert stores every article of batch whose link is not yet known and
// returns those, in batch order, with ID and DiscoveredAt set. A repeated
// link inside batch is stored once. The first storage failure stops the
// batch; articles stored before it are returned alongside the error.
func (s *ArticleStore) Insert(ctx context.Context, batch []domain.Article) ([]domain.Article, error) {
	inserted := make([]domain.Article, 0, len(batch))

	for _, article := range batch {
		outcome, stored, err := s.InsertIfAbsent(ctx, article)
		if err != nil {
			return inserted, err
		}
		if outcome == OutcomeInserted {
			inserted = append(inserted, stored)
		}
	}

	return inserted, nil
}

// RecentN returns up to n articles, newest first by assigned ID.
func (s *ArticleStore) RecentN(ctx context.Context, n int) ([]domain.Article, error) {
	articles := []domain.Article{}
	if n <= 0 {
		return articles, nil
	}

	if err := s.db.SelectContext(ctx, &articles, s.db.Rebind(recentArticlesQuery), n); err != nil {
		return nil, fmt.Errorf("%w: select recent articles: %w", ErrStorageFailure, err)
	}

	return articles, nil
}

// Count returns the number of stored articles.
func (s *ArticleStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, countArticlesQuery); err != nil {
		return 0, fmt.Errorf("%w: count articles: %w", ErrStorageFailure, err)
	}
	return count, nil
}
