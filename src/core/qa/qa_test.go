package qa_test

import (
	"context"
	"errors"
	"testing"

	"docintel/src/core/answerflow"
	"docintel/src/core/qa"
	"docintel/src/storage/esctrl"
	"docintel/src/storage/postgres/chatctrl"
)

type fakeFlow struct {
	result *answerflow.Result
	err    error
}

func (f *fakeFlow) Process(ctx context.Context, question string) (*answerflow.Result, error) {
	return f.result, f.err
}

type fakeChatStore struct {
	saved []chatctrl.Message
	err   error
}

func (f *fakeChatStore) Save(ctx context.Context, msg *chatctrl.Message) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, *msg)
	return nil
}

func (f *fakeChatStore) ListBySession(ctx context.Context, sessionID string) ([]chatctrl.Message, error) {
	var out []chatctrl.Message
	for _, msg := range f.saved {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	return out, nil
}

type fakeAudit struct {
	entries []esctrl.QueryLogEntry
	err     error
}

func (f *fakeAudit) Record(ctx context.Context, entry esctrl.QueryLogEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func flowResult() *answerflow.Result {
	return &answerflow.Result{
		Question:    "How was the year?",
		Answer:      "The year went well.",
		Confidence:  answerflow.ConfidenceHigh,
		SourceFiles: []string{"report.pdf"},
		NumSources:  3,
	}
}

func TestAsk(t *testing.T) {
	chats := &fakeChatStore{}
	audit := &fakeAudit{}
	service := qa.NewService(&fakeFlow{result: flowResult()}, chats, audit)

	answer, err := service.Ask(context.Background(), "session-1", "How was the year?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if answer.Answer != "The year went well." {
		t.Errorf("Ask() answer = %q, want %q", answer.Answer, "The year went well.")
	}
	if answer.SessionID != "session-1" {
		t.Errorf("Ask() session = %q, want %q", answer.SessionID, "session-1")
	}
	if answer.MessageID == "" {
		t.Error("Ask() message id is empty")
	}

	if len(chats.saved) != 2 {
		t.Fatalf("Ask() saved %d messages, want 2", len(chats.saved))
	}
	if chats.saved[0].Role != "user" || chats.saved[0].Content != "How was the year?" {
		t.Errorf("Ask() first message = %+v, want user question", chats.saved[0])
	}
	if chats.saved[1].Role != "assistant" || chats.saved[1].Content != "The year went well." {
		t.Errorf("Ask() second message = %+v, want assistant answer", chats.saved[1])
	}
	if chats.saved[1].SourceFiles != "report.pdf" {
		t.Errorf("Ask() assistant sources = %q, want %q", chats.saved[1].SourceFiles, "report.pdf")
	}

	if len(audit.entries) != 1 {
		t.Fatalf("Ask() recorded %d audit entries, want 1", len(audit.entries))
	}
	if audit.entries[0].Question != "How was the year?" {
		t.Errorf("Ask() audit question = %q, want %q", audit.entries[0].Question, "How was the year?")
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	service := qa.NewService(&fakeFlow{result: flowResult()}, nil, nil)

	tests := []struct {
		name     string
		question string
	}{
		{name: "empty", question: ""},
		{name: "whitespace only", question: "   \n\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Ask(context.Background(), "session-1", tt.question)
			if !errors.Is(err, qa.ErrEmptyQuestion) {
				t.Errorf("Ask() error = %v, want %v", err, qa.ErrEmptyQuestion)
			}
		})
	}
}

func TestAskAuditFailureDoesNotFailAnswer(t *testing.T) {
	audit := &fakeAudit{err: errors.New("elasticsearch down")}
	service := qa.NewService(&fakeFlow{result: flowResult()}, nil, audit)

	answer, err := service.Ask(context.Background(), "session-1", "How was the year?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Answer != "The year went well." {
		t.Errorf("Ask() answer = %q, want %q", answer.Answer, "The year went well.")
	}
}

func TestAskFlowError(t *testing.T) {
	wantErr := errors.New("retrieval failed")
	service := qa.NewService(&fakeFlow{err: wantErr}, nil, nil)

	_, err := service.Ask(context.Background(), "session-1", "anything")
	if !errors.Is(err, wantErr) {
		t.Errorf("Ask() error = %v, want %v", err, wantErr)
	}
}

func TestHistory(t *testing.T) {
	chats := &fakeChatStore{}
	service := qa.NewService(&fakeFlow{result: flowResult()}, chats, nil)

	if _, err := service.Ask(context.Background(), "session-1", "How was the year?"); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if _, err := service.Ask(context.Background(), "session-2", "Another question?"); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	history, err := service.History(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Errorf("History() returned %d messages, want 2", len(history))
	}
}

func TestHistoryWithoutStore(t *testing.T) {
	service := qa.NewService(&fakeFlow{result: flowResult()}, nil, nil)

	if _, err := service.History(context.Background(), "session-1"); err == nil {
		t.Error("History() error = nil, want error")
	}
}
