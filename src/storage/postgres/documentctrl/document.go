package documentctrl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// IndexStatus tracks how far a document has moved through the pipeline
type IndexStatus string

const (
	StatusPending IndexStatus = "pending"
	StatusIndexed IndexStatus = "indexed"
	StatusFailed  IndexStatus = "failed"
)

type Document struct {
	ID         int64       `gorm:"primaryKey" json:"id"`
	Filename   string      `gorm:"not null" json:"filename"`
	MinioURL   string      `gorm:"not null;column:minio_url" json:"minio_url"` // bucket name + object name
	PageCount  int         `gorm:"not null" json:"page_count"`
	ChunkCount int         `gorm:"not null" json:"chunk_count"`
	Status     IndexStatus `gorm:"not null;default:pending" json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type DocumentService struct {
	db        *gorm.DB
	snowflake *snowflake.Node
}

func NewDocumentService(db *gorm.DB) (*DocumentService, error) {
	node, err := snowflake.NewNode(1) // Node number 1 for documents
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}

	return &DocumentService{
		db:        db,
		snowflake: node,
	}, nil
}

func (s *DocumentService) Create(ctx context.Context, filename, minioURL string) (*Document, error) {
	doc := &Document{
		ID:       s.snowflake.Generate().Int64(),
		Filename: filename,
		MinioURL: minioURL,
		Status:   StatusPending,
	}

	result := s.db.WithContext(ctx).Create(doc)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create document: %w", result.Error)
	}

	return doc, nil
}

func (s *DocumentService) GetByID(ctx context.Context, id int64) (*Document, error) {
	var doc Document
	result := s.db.WithContext(ctx).First(&doc, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", result.Error)
	}
	return &doc, nil
}

func (s *DocumentService) GetByFilename(ctx context.Context, filename string) (*Document, error) {
	var doc Document
	result := s.db.WithContext(ctx).Where("filename = ?", filename).First(&doc)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", result.Error)
	}
	return &doc, nil
}

func (s *DocumentService) List(ctx context.Context, limit, offset int) ([]Document, error) {
	var docs []Document
	result := s.db.WithContext(ctx).Limit(limit).Offset(offset).Order("created_at desc").Find(&docs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list documents: %w", result.Error)
	}
	return docs, nil
}

// MarkIndexed records a successful indexing pass with its counts
func (s *DocumentService) MarkIndexed(ctx context.Context, id int64, pageCount, chunkCount int) error {
	result := s.db.WithContext(ctx).Model(&Document{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      StatusIndexed,
		"page_count":  pageCount,
		"chunk_count": chunkCount,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to mark document indexed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("document not found: %d", id)
	}
	return nil
}

func (s *DocumentService) MarkFailed(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Model(&Document{}).Where("id = ?", id).Update("status", StatusFailed)
	if result.Error != nil {
		return fmt.Errorf("failed to mark document failed: %w", result.Error)
	}
	return nil
}

func (s *DocumentService) Delete(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&Document{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete document: %w", result.Error)
	}
	return nil
}
