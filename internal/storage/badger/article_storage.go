package badger

import (
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ArticleStorage implements the ArticleStorage interface for Badger
type ArticleStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewArticleStorage creates a new ArticleStorage instance
func NewArticleStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ArticleStorage {
	return &ArticleStorage{
		db:     db,
		logger: logger,
	}
}

// SaveArticle inserts or updates an article, preserving CreatedAt on update
func (s *ArticleStorage) SaveArticle(article *models.Article) error {
	if article.ID == "" {
		article.ID = models.NewArticleID()
	}
	now := time.Now()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	article.UpdatedAt = now

	var existing models.Article
	if err := s.db.Store().Get(article.ID, &existing); err == nil {
		article.CreatedAt = existing.CreatedAt
	}

	if err := s.db.Store().Upsert(article.ID, article); err != nil {
		return fmt.Errorf("failed to save article: %w", err)
	}

	s.logger.Debug().Str("id", article.ID).Str("topic", article.Topic).Msg("Article saved")
	return nil
}

// GetArticle retrieves one article by ID
func (s *ArticleStorage) GetArticle(id string) (*models.Article, error) {
	var article models.Article
	err := s.db.Store().Get(id, &article)
	if err == badgerhold.ErrNotFound {
		return nil, fmt.Errorf("article not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return &article, nil
}

// ListArticles returns articles newest first. A limit of 0 returns all.
func (s *ArticleStorage) ListArticles(limit int) ([]*models.Article, error) {
	// Fetch all and sort in memory
	var articles []models.Article
	if err := s.db.Store().Find(&articles, nil); err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}

	sort.Slice(articles, func(i, j int) bool {
		return articles[i].CreatedAt.After(articles[j].CreatedAt)
	})

	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}

	result := make([]*models.Article, len(articles))
	for i := range articles {
		result[i] = &articles[i]
	}
	return result, nil
}

// DeleteArticle removes an article by ID
func (s *ArticleStorage) DeleteArticle(id string) error {
	err := s.db.Store().Delete(id, models.Article{})
	if err == badgerhold.ErrNotFound {
		return fmt.Errorf("article not found: %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	return nil
}
