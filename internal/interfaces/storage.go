package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/scribo/internal/models"
)

// ErrKeyNotFound is returned when a key does not exist in the KV store
var ErrKeyNotFound = errors.New("key not found")

// KeyValuePair is a stored key/value entry (API keys, settings)
type KeyValuePair struct {
	Key         string    `badgerhold:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// KeyValueStorage defines key/value persistence (case-insensitive keys)
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value, description string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]KeyValuePair, error)
}

// ArticleStorage defines persistence for generated articles
type ArticleStorage interface {
	SaveArticle(article *models.Article) error
	GetArticle(id string) (*models.Article, error)
	ListArticles(limit int) ([]*models.Article, error)
	DeleteArticle(id string) error
}

// StorageManager aggregates the storage backends
type StorageManager interface {
	ArticleStorage() ArticleStorage
	KeyValueStorage() KeyValueStorage
	Close() error
}
