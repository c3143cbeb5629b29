package chatctrl

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Message is one entry in a question-answering session. Assistant messages
// carry the confidence and source metadata produced by the answer flow.
type Message struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID   string    `gorm:"not null;index" json:"session_id"`
	MessageID   string    `gorm:"not null;uniqueIndex" json:"message_id"`
	Role        string    `gorm:"not null" json:"role"`
	Content     string    `gorm:"not null" json:"content"`
	Confidence  string    `json:"confidence,omitempty"`
	SourceFiles string    `gorm:"column:source_files" json:"source_files,omitempty"` // comma-joined
	CreatedAt   time.Time `json:"created_at"`
}

type ChatService struct {
	db *gorm.DB
}

func NewChatService(db *gorm.DB) *ChatService {
	return &ChatService{db: db}
}

func (s *ChatService) Save(ctx context.Context, msg *Message) error {
	result := s.db.WithContext(ctx).Create(msg)
	if result.Error != nil {
		return fmt.Errorf("failed to save chat message: %w", result.Error)
	}
	return nil
}

func (s *ChatService) ListBySession(ctx context.Context, sessionID string) ([]Message, error) {
	var messages []Message
	result := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at asc").
		Find(&messages)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", result.Error)
	}
	return messages, nil
}
