package esctrl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

const DefaultIndex = "docintel-questions"

// QueryLogEntry is the audit record indexed for every answered question.
type QueryLogEntry struct {
	SessionID   string    `json:"session_id"`
	Question    string    `json:"question"`
	Answer      string    `json:"answer"`
	Confidence  string    `json:"confidence"`
	SourceFiles []string  `json:"source_files"`
	NumSources  int       `json:"num_sources"`
	LatencyMS   int64     `json:"latency_ms"`
	AskedAt     time.Time `json:"asked_at"`
}

// QueryLog writes answered questions to Elasticsearch for later analysis.
type QueryLog struct {
	client *elasticsearch.Client
	index  string
}

func NewQueryLog(addresses []string, index string) (*QueryLog, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	if index == "" {
		index = DefaultIndex
	}

	return &QueryLog{
		client: client,
		index:  index,
	}, nil
}

// Record indexes one audit entry. Failures are returned to the caller so it
// can decide whether to surface or merely log them.
func (l *QueryLog) Record(ctx context.Context, entry QueryLogEntry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal query log entry: %w", err)
	}

	res, err := l.client.Index(
		l.index,
		bytes.NewReader(body),
		l.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index query log entry: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch returned %s", res.Status())
	}

	return nil
}
