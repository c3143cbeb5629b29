package retriever_test

import (
	"context"
	"errors"
	"testing"

	"docintel/src/core/retriever"
	"docintel/src/storage/weaviate"
)

type fakeSearcher struct {
	results []weaviate.QueryResult
	err     error

	nearVectorCalls int
	hybridCalls     int
	gotLimit        int
	gotAlpha        float32
}

func (f *fakeSearcher) QueryNearVector(ctx context.Context, vector []float32, config weaviate.QueryConfig) ([]weaviate.QueryResult, error) {
	f.nearVectorCalls++
	f.gotLimit = config.Limit
	return f.results, f.err
}

func (f *fakeSearcher) QueryHybrid(ctx context.Context, vector []float32, config weaviate.HybridConfig) ([]weaviate.QueryResult, error) {
	f.hybridCalls++
	f.gotLimit = config.Limit
	f.gotAlpha = config.Alpha
	return f.results, f.err
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vector, f.err
}

func TestRetrieve(t *testing.T) {
	results := []weaviate.QueryResult{
		{Content: "Revenue grew 10%.", Source: "report.pdf", DocumentID: "42", Page: 2, Score: 0.91},
		{Content: "Costs were flat.", Source: "report.pdf", DocumentID: "42", Page: 3, Score: 0.85},
	}

	searcher := &fakeSearcher{results: results}
	r := retriever.NewRetriever(searcher, &fakeEmbedder{vector: []float32{0.1, 0.2}})

	chunks, err := r.Retrieve(context.Background(), "how was revenue", 5)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	if searcher.nearVectorCalls != 1 || searcher.hybridCalls != 0 {
		t.Errorf("Retrieve() near vector calls = %d, hybrid calls = %d, want 1 and 0",
			searcher.nearVectorCalls, searcher.hybridCalls)
	}
	if searcher.gotLimit != 5 {
		t.Errorf("Retrieve() limit = %d, want 5", searcher.gotLimit)
	}
	if len(chunks) != 2 {
		t.Fatalf("Retrieve() returned %d chunks, want 2", len(chunks))
	}

	want := retriever.Chunk{
		Content:    "Revenue grew 10%.",
		Source:     "report.pdf",
		DocumentID: "42",
		Page:       2,
		Score:      0.91,
	}
	if chunks[0] != want {
		t.Errorf("Retrieve() chunk = %+v, want %+v", chunks[0], want)
	}
}

func TestRetrieveDefaultsTopK(t *testing.T) {
	searcher := &fakeSearcher{}
	r := retriever.NewRetriever(searcher, &fakeEmbedder{vector: []float32{0.1}})

	if _, err := r.Retrieve(context.Background(), "anything", 0); err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if searcher.gotLimit != retriever.DefaultTopK {
		t.Errorf("Retrieve() limit = %d, want %d", searcher.gotLimit, retriever.DefaultTopK)
	}
}

func TestRetrieveHybrid(t *testing.T) {
	searcher := &fakeSearcher{}
	r := retriever.NewRetriever(
		searcher,
		&fakeEmbedder{vector: []float32{0.1}},
		retriever.WithHybrid(0.5),
	)

	if _, err := r.Retrieve(context.Background(), "anything", 3); err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	if searcher.hybridCalls != 1 || searcher.nearVectorCalls != 0 {
		t.Errorf("Retrieve() hybrid calls = %d, near vector calls = %d, want 1 and 0",
			searcher.hybridCalls, searcher.nearVectorCalls)
	}
	if searcher.gotAlpha != 0.5 {
		t.Errorf("Retrieve() alpha = %v, want 0.5", searcher.gotAlpha)
	}
	if searcher.gotLimit != 3 {
		t.Errorf("Retrieve() limit = %d, want 3", searcher.gotLimit)
	}
}

func TestRetrieveEmbedError(t *testing.T) {
	wantErr := errors.New("embedding service down")
	r := retriever.NewRetriever(&fakeSearcher{}, &fakeEmbedder{err: wantErr})

	_, err := r.Retrieve(context.Background(), "anything", 4)
	if err == nil {
		t.Fatal("Retrieve() error = nil, want error")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("Retrieve() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestRetrieveSearchError(t *testing.T) {
	wantErr := errors.New("weaviate unavailable")
	r := retriever.NewRetriever(&fakeSearcher{err: wantErr}, &fakeEmbedder{vector: []float32{0.1}})

	_, err := r.Retrieve(context.Background(), "anything", 4)
	if err == nil {
		t.Fatal("Retrieve() error = nil, want error")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("Retrieve() error = %v, want wrapped %v", err, wantErr)
	}
}
