package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Article is a generated article persisted to storage
type Article struct {
	ID          string            `json:"id" badgerhold:"key"`
	Topic       string            `json:"topic"`
	MediaType   string            `json:"media_type"`
	Length      string            `json:"length"`
	Headline    string            `json:"headline"`
	Markdown    string            `json:"markdown"` // Fully rendered document
	Sections    map[string]string `json:"sections"`
	SourceCount int               `json:"source_count"`
	FilePath    string            `json:"file_path"` // Where the document was written
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewArticleID generates a unique article ID
func NewArticleID() string {
	return fmt.Sprintf("art_%s", uuid.New().String())
}

// GenerateRequest describes one pipeline run
type GenerateRequest struct {
	Topic       string
	MediaType   string
	Length      string
	UserContext *UserContext
	Refresh     bool // Bypass the research cache
}
