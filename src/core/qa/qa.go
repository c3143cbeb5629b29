package qa

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"docintel/src/core/answerflow"
	"docintel/src/infrastructure/log"
	"docintel/src/storage/esctrl"
	"docintel/src/storage/postgres/chatctrl"
)

var (
	ErrEmptyQuestion = errors.New("question must not be empty")
)

// AnswerFlow runs the retrieve/analyze/generate steps for one question.
type AnswerFlow interface {
	Process(ctx context.Context, question string) (*answerflow.Result, error)
}

// ChatStore persists session history. May be nil for the one-shot CLI path.
type ChatStore interface {
	Save(ctx context.Context, msg *chatctrl.Message) error
	ListBySession(ctx context.Context, sessionID string) ([]chatctrl.Message, error)
}

// AuditLog records answered questions for later analysis. May be nil.
type AuditLog interface {
	Record(ctx context.Context, entry esctrl.QueryLogEntry) error
}

// Answer is what the caller gets back for one question.
type Answer struct {
	SessionID   string    `json:"session_id"`
	MessageID   string    `json:"message_id"`
	Question    string    `json:"question"`
	Answer      string    `json:"answer"`
	Confidence  string    `json:"confidence"`
	SourceFiles []string  `json:"source_files"`
	NumSources  int       `json:"num_sources"`
	CreatedAt   time.Time `json:"created_at"`
}

// Service answers questions about the indexed documents and keeps the
// surrounding bookkeeping (history, audit) out of the flow itself.
type Service struct {
	flow  AnswerFlow
	chats ChatStore
	audit AuditLog
}

func NewService(flow AnswerFlow, chats ChatStore, audit AuditLog) *Service {
	return &Service{
		flow:  flow,
		chats: chats,
		audit: audit,
	}
}

// Ask runs one question through the answer flow. sessionID groups questions
// into a conversation; pass a fresh UUID for one-shot use.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	start := time.Now()

	result, err := s.flow.Process(ctx, question)
	if err != nil {
		return nil, err
	}

	answer := &Answer{
		SessionID:   sessionID,
		MessageID:   uuid.New().String(),
		Question:    question,
		Answer:      result.Answer,
		Confidence:  result.Confidence,
		SourceFiles: result.SourceFiles,
		NumSources:  result.NumSources,
		CreatedAt:   time.Now().UTC(),
	}

	if s.chats != nil {
		if err := s.saveHistory(ctx, answer); err != nil {
			return nil, err
		}
	}

	if s.audit != nil {
		entry := esctrl.QueryLogEntry{
			SessionID:   sessionID,
			Question:    question,
			Answer:      result.Answer,
			Confidence:  result.Confidence,
			SourceFiles: result.SourceFiles,
			NumSources:  result.NumSources,
			LatencyMS:   time.Since(start).Milliseconds(),
			AskedAt:     start.UTC(),
		}
		// Audit failures must not fail the answer.
		if err := s.audit.Record(ctx, entry); err != nil {
			log.Error(err, "failed to record query log entry", "session_id", sessionID)
		}
	}

	return answer, nil
}

// History returns all messages of a session in chronological order.
func (s *Service) History(ctx context.Context, sessionID string) ([]chatctrl.Message, error) {
	if s.chats == nil {
		return nil, fmt.Errorf("chat history is not configured")
	}
	return s.chats.ListBySession(ctx, sessionID)
}

func (s *Service) saveHistory(ctx context.Context, answer *Answer) error {
	userMsg := &chatctrl.Message{
		SessionID: answer.SessionID,
		MessageID: uuid.New().String(),
		Role:      "user",
		Content:   answer.Question,
		CreatedAt: answer.CreatedAt,
	}
	if err := s.chats.Save(ctx, userMsg); err != nil {
		return fmt.Errorf("failed to save question: %w", err)
	}

	assistantMsg := &chatctrl.Message{
		SessionID:   answer.SessionID,
		MessageID:   answer.MessageID,
		Role:        "assistant",
		Content:     answer.Answer,
		Confidence:  answer.Confidence,
		SourceFiles: strings.Join(answer.SourceFiles, ","),
		CreatedAt:   answer.CreatedAt,
	}
	if err := s.chats.Save(ctx, assistantMsg); err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}

	return nil
}
