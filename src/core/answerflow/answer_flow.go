package answerflow

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"docintel/src/core/retriever"
)

const DefaultTopK = 4

// Confidence wording surfaced to the caller alongside the answer.
const (
	ConfidenceHigh   = "High - Found multiple relevant sources"
	ConfidenceMedium = "Medium - Found some relevant information"
	ConfidenceLow    = "Low - Limited relevant information found"
)

// Retriever fetches chunks relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]retriever.Chunk, error)
}

// LLMProvider generates the final answer.
type LLMProvider interface {
	Generate(ctx context.Context, system string, prompt string) (string, error)
}

// State carries the intermediate values through the flow steps.
type State struct {
	Question    string
	Retrieved   []retriever.Chunk
	Confidence  string
	SourceFiles []string
	Answer      string
}

// Result is the outcome of one pass through the flow.
type Result struct {
	Question    string            `json:"question"`
	Answer      string            `json:"answer"`
	Confidence  string            `json:"confidence"`
	SourceFiles []string          `json:"source_files"`
	NumSources  int               `json:"num_sources"`
	Chunks      []retriever.Chunk `json:"chunks,omitempty"`
}

// AnswerFlow runs the question-answering steps in order:
// retrieve -> analyze relevance -> generate answer.
type AnswerFlow struct {
	retriever Retriever
	llm       LLMProvider
	topK      int
}

type Option func(f *AnswerFlow)

func WithTopK(topK int) Option {
	return func(f *AnswerFlow) {
		if topK > 0 {
			f.topK = topK
		}
	}
}

func NewAnswerFlow(r Retriever, llm LLMProvider, opts ...Option) *AnswerFlow {
	f := &AnswerFlow{
		retriever: r,
		llm:       llm,
		topK:      DefaultTopK,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Process answers a question about the indexed documents.
func (f *AnswerFlow) Process(ctx context.Context, question string) (*Result, error) {
	state := &State{Question: question}

	steps := []func(ctx context.Context, state *State) error{
		f.retrieveStep,
		f.analyzeStep,
		f.generateStep,
	}

	for _, step := range steps {
		if err := step(ctx, state); err != nil {
			return nil, err
		}
	}

	return &Result{
		Question:    state.Question,
		Answer:      state.Answer,
		Confidence:  state.Confidence,
		SourceFiles: state.SourceFiles,
		NumSources:  len(state.Retrieved),
		Chunks:      state.Retrieved,
	}, nil
}

func (f *AnswerFlow) retrieveStep(ctx context.Context, state *State) error {
	chunks, err := f.retriever.Retrieve(ctx, state.Question, f.topK)
	if err != nil {
		return fmt.Errorf("failed to retrieve context: %w", err)
	}

	state.Retrieved = chunks
	return nil
}

func (f *AnswerFlow) analyzeStep(_ context.Context, state *State) error {
	state.Confidence, state.SourceFiles = AnalyzeRelevance(state.Retrieved)
	return nil
}

func (f *AnswerFlow) generateStep(ctx context.Context, state *State) error {
	prompt, err := buildPrompt(state.Question, state.Retrieved)
	if err != nil {
		return err
	}

	answer, err := f.llm.Generate(ctx, answerSystemPrompt, prompt)
	if err != nil {
		return fmt.Errorf("failed to generate answer: %w", err)
	}

	state.Answer = answer
	return nil
}

// AnalyzeRelevance derives the confidence label and the unique source files
// from the retrieved chunks.
func AnalyzeRelevance(chunks []retriever.Chunk) (string, []string) {
	seen := make(map[string]struct{})
	sources := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		source := chunk.Source
		if source == "" {
			source = "Unknown"
		}
		if _, ok := seen[source]; ok {
			continue
		}
		seen[source] = struct{}{}
		sources = append(sources, source)
	}
	sort.Strings(sources)

	var confidence string
	switch {
	case len(chunks) >= 3:
		confidence = ConfidenceHigh
	case len(chunks) >= 1:
		confidence = ConfidenceMedium
	default:
		confidence = ConfidenceLow
	}

	return confidence, sources
}

// BuildContext joins the retrieved chunks into the context block handed to
// the model, each attributed to its source file.
func BuildContext(chunks []retriever.Chunk) string {
	entries := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		source := chunk.Source
		if source == "" {
			source = "Unknown"
		}
		entries = append(entries, fmt.Sprintf("From %s:\n%s", source, chunk.Content))
	}
	return strings.Join(entries, "\n\n")
}

type promptData struct {
	Context  string
	Question string
}

func buildPrompt(question string, chunks []retriever.Chunk) (string, error) {
	tmpl, err := template.New("answer").Parse(answerPromptTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse answer template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, promptData{
		Context:  BuildContext(chunks),
		Question: question,
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute answer template: %w", err)
	}

	return buf.String(), nil
}
