package chunkctrl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Chunk struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	DocumentID int64     `gorm:"not null" json:"document_id"`
	MinioURL   string    `gorm:"not null;column:minio_url" json:"minio_url"` // bucket name + object name
	Page       int       `gorm:"not null" json:"page"`
	Order      int       `gorm:"not null;column:chunk_order" json:"order"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ChunkService struct {
	db        *gorm.DB
	snowflake *snowflake.Node
}

func NewChunkService(db *gorm.DB) (*ChunkService, error) {
	node, err := snowflake.NewNode(2) // Node number 2 for chunks
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}

	return &ChunkService{
		db:        db,
		snowflake: node,
	}, nil
}

func (s *ChunkService) Create(ctx context.Context, documentID int64, minioURL string, page, order int) (*Chunk, error) {
	chunk := &Chunk{
		ID:         s.snowflake.Generate().Int64(),
		DocumentID: documentID,
		MinioURL:   minioURL,
		Page:       page,
		Order:      order,
	}

	result := s.db.WithContext(ctx).Create(chunk)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create chunk: %w", result.Error)
	}

	return chunk, nil
}

func (s *ChunkService) GetByID(ctx context.Context, id int64) (*Chunk, error) {
	var chunk Chunk
	result := s.db.WithContext(ctx).First(&chunk, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chunk: %w", result.Error)
	}
	return &chunk, nil
}

func (s *ChunkService) GetByDocumentID(ctx context.Context, documentID int64) ([]Chunk, error) {
	var chunks []Chunk
	result := s.db.WithContext(ctx).Where("document_id = ?", documentID).Order("chunk_order asc").Find(&chunks)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get chunks: %w", result.Error)
	}
	return chunks, nil
}

func (s *ChunkService) DeleteByDocumentID(ctx context.Context, documentID int64) error {
	result := s.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&Chunk{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete chunks: %w", result.Error)
	}
	return nil
}
