package indexer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"docintel/src/core/indexer"
	"docintel/src/extract"
	"docintel/src/storage/postgres/chunkctrl"
	"docintel/src/storage/postgres/documentctrl"
	"docintel/src/storage/weaviate"
)

type fakeDocumentStore struct {
	existing      *documentctrl.Document
	deleted       []int64
	markedIndexed bool
	markedFailed  bool
	gotPages      int
	gotChunks     int
}

func (f *fakeDocumentStore) Create(ctx context.Context, filename, minioURL string) (*documentctrl.Document, error) {
	return &documentctrl.Document{ID: 42, Filename: filename, MinioURL: minioURL}, nil
}

func (f *fakeDocumentStore) GetByFilename(ctx context.Context, filename string) (*documentctrl.Document, error) {
	if f.existing != nil && f.existing.Filename == filename {
		return f.existing, nil
	}
	return nil, nil
}

func (f *fakeDocumentStore) MarkIndexed(ctx context.Context, id int64, pageCount, chunkCount int) error {
	f.markedIndexed = true
	f.gotPages = pageCount
	f.gotChunks = chunkCount
	return nil
}

func (f *fakeDocumentStore) MarkFailed(ctx context.Context, id int64) error {
	f.markedFailed = true
	return nil
}

func (f *fakeDocumentStore) Delete(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeChunkStore struct {
	rows    []chunkctrl.Chunk
	created []chunkctrl.Chunk
	deleted []int64
}

func (f *fakeChunkStore) Create(ctx context.Context, documentID int64, minioURL string, page, order int) (*chunkctrl.Chunk, error) {
	chunk := chunkctrl.Chunk{DocumentID: documentID, MinioURL: minioURL, Page: page, Order: order}
	f.created = append(f.created, chunk)
	return &chunk, nil
}

func (f *fakeChunkStore) GetByDocumentID(ctx context.Context, documentID int64) ([]chunkctrl.Chunk, error) {
	var out []chunkctrl.Chunk
	for _, row := range f.rows {
		if row.DocumentID == documentID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeChunkStore) DeleteByDocumentID(ctx context.Context, documentID int64) error {
	f.deleted = append(f.deleted, documentID)
	return nil
}

type fakeVectorStore struct {
	added   []weaviate.ChunkObject
	deleted []string
}

func (f *fakeVectorStore) EnsureSchema(ctx context.Context) error {
	return nil
}

func (f *fakeVectorStore) BatchAddChunks(ctx context.Context, objects []weaviate.ChunkObject) error {
	f.added = append(f.added, objects...)
	return nil
}

func (f *fakeVectorStore) DeleteByDocumentID(ctx context.Context, documentID string) error {
	f.deleted = append(f.deleted, documentID)
	return nil
}

type fakeObjectStore struct {
	puts           map[string][]byte
	deletedObjects []string
}

func (f *fakeObjectStore) EnsureBucketExists(ctx context.Context, bucketName string) error {
	return nil
}

func (f *fakeObjectStore) PutObject(ctx context.Context, bucketName, objectName string, data []byte, contentType string) error {
	if f.puts == nil {
		f.puts = make(map[string][]byte)
	}
	f.puts[bucketName+"/"+objectName] = data
	return nil
}

func (f *fakeObjectStore) DeleteObject(ctx context.Context, bucketName, objectName string) error {
	f.deletedObjects = append(f.deletedObjects, bucketName+"/"+objectName)
	return nil
}

func (f *fakeObjectStore) DeleteObjects(ctx context.Context, bucketName string, objectNames []string) error {
	for _, name := range objectNames {
		f.deletedObjects = append(f.deletedObjects, bucketName+"/"+name)
	}
	return nil
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return []float32{0.1, 0.2}, f.err
}

func testDocument() *extract.Document {
	return &extract.Document{
		Name: "report.pdf",
		Pages: []extract.Page{
			{Number: 1, Text: "First page text."},
			{Number: 2, Text: "Second page text."},
		},
	}
}

func TestIndexExtracted(t *testing.T) {
	documents := &fakeDocumentStore{}
	chunks := &fakeChunkStore{}
	vectors := &fakeVectorStore{}
	objects := &fakeObjectStore{}
	embedder := &fakeEmbedder{}

	ix := indexer.NewIndexer(embedder, vectors, documents, chunks, objects)

	report, err := ix.IndexExtracted(context.Background(), 42, testDocument())
	if err != nil {
		t.Fatalf("IndexExtracted() error = %v", err)
	}

	if report.DocumentID != 42 || report.Filename != "report.pdf" {
		t.Errorf("IndexExtracted() report = %+v", report)
	}
	if report.Pages != 2 || report.Chunks != 2 {
		t.Errorf("IndexExtracted() pages = %d, chunks = %d, want 2 and 2", report.Pages, report.Chunks)
	}

	if !documents.markedIndexed {
		t.Error("IndexExtracted() did not mark the document indexed")
	}
	if documents.gotPages != 2 || documents.gotChunks != 2 {
		t.Errorf("IndexExtracted() marked pages = %d, chunks = %d, want 2 and 2",
			documents.gotPages, documents.gotChunks)
	}

	// Replace semantics: old vectors and chunk rows cleared before insert.
	if len(vectors.deleted) != 1 || vectors.deleted[0] != "42" {
		t.Errorf("IndexExtracted() deleted vectors = %v, want [42]", vectors.deleted)
	}
	if len(chunks.deleted) != 1 || chunks.deleted[0] != 42 {
		t.Errorf("IndexExtracted() deleted chunk rows = %v, want [42]", chunks.deleted)
	}

	if len(chunks.created) != 2 {
		t.Fatalf("IndexExtracted() created %d chunk rows, want 2", len(chunks.created))
	}
	if chunks.created[0].MinioURL != "chunks/42/0.txt" {
		t.Errorf("IndexExtracted() chunk url = %q, want %q", chunks.created[0].MinioURL, "chunks/42/0.txt")
	}
	if chunks.created[1].Page != 2 || chunks.created[1].Order != 1 {
		t.Errorf("IndexExtracted() second chunk page = %d, order = %d, want 2 and 1",
			chunks.created[1].Page, chunks.created[1].Order)
	}

	if len(vectors.added) != 2 {
		t.Fatalf("IndexExtracted() added %d vector objects, want 2", len(vectors.added))
	}
	first := vectors.added[0]
	if first.Source != "report.pdf" || first.DocumentID != "42" || first.Page != 1 || first.ChunkIndex != 0 {
		t.Errorf("IndexExtracted() vector object = %+v", first)
	}
	if len(first.Vector) == 0 {
		t.Error("IndexExtracted() vector object has no embedding")
	}

	if _, ok := objects.puts["chunks/42/0.txt"]; !ok {
		t.Errorf("IndexExtracted() chunk text not stored, puts = %v", objects.puts)
	}
	if embedder.calls != 2 {
		t.Errorf("IndexExtracted() embed calls = %d, want 2", embedder.calls)
	}
}

func TestIndexDocumentReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	if err := os.WriteFile(path, []byte("raw pdf bytes"), 0644); err != nil {
		t.Fatalf("failed to write raw file: %v", err)
	}

	documents := &fakeDocumentStore{
		existing: &documentctrl.Document{
			ID:       7,
			Filename: "report.pdf",
			MinioURL: "documents/old-object.pdf",
		},
	}
	chunks := &fakeChunkStore{
		rows: []chunkctrl.Chunk{
			{DocumentID: 7, MinioURL: "chunks/7/0.txt"},
			{DocumentID: 7, MinioURL: "chunks/7/1.txt"},
			{DocumentID: 8, MinioURL: "chunks/8/0.txt"},
		},
	}
	vectors := &fakeVectorStore{}
	objects := &fakeObjectStore{}

	doc := testDocument()
	doc.Path = path

	ix := indexer.NewIndexer(&fakeEmbedder{}, vectors, documents, chunks, objects)

	report, err := ix.IndexDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}
	if report.Chunks != 2 {
		t.Errorf("IndexDocument() chunks = %d, want 2", report.Chunks)
	}

	// The replaced document's stored objects must go too: its chunk text
	// and the old raw PDF, but nothing belonging to other documents.
	wantDeleted := map[string]bool{
		"chunks/7/0.txt":           true,
		"chunks/7/1.txt":           true,
		"documents/old-object.pdf": true,
	}
	if len(objects.deletedObjects) != len(wantDeleted) {
		t.Fatalf("IndexDocument() deleted objects = %v, want %v", objects.deletedObjects, wantDeleted)
	}
	for _, name := range objects.deletedObjects {
		if !wantDeleted[name] {
			t.Errorf("IndexDocument() deleted unexpected object %q", name)
		}
	}

	if len(documents.deleted) != 1 || documents.deleted[0] != 7 {
		t.Errorf("IndexDocument() deleted document rows = %v, want [7]", documents.deleted)
	}
	// Vectors cleared for the old ID (replace) and the new ID (re-insert).
	if len(vectors.deleted) != 2 || vectors.deleted[0] != "7" || vectors.deleted[1] != "42" {
		t.Errorf("IndexDocument() deleted vectors = %v, want [7 42]", vectors.deleted)
	}
	if len(chunks.deleted) != 2 || chunks.deleted[0] != 7 || chunks.deleted[1] != 42 {
		t.Errorf("IndexDocument() deleted chunk rows = %v, want [7 42]", chunks.deleted)
	}

	// The new raw PDF was uploaded to the documents bucket.
	var uploadedPDF bool
	for name := range objects.puts {
		if filepath.Ext(name) == ".pdf" {
			uploadedPDF = true
		}
	}
	if !uploadedPDF {
		t.Errorf("IndexDocument() did not upload the raw PDF, puts = %v", objects.puts)
	}
}

func TestIndexExtractedClearsStaleChunkObjects(t *testing.T) {
	chunks := &fakeChunkStore{
		rows: []chunkctrl.Chunk{
			{DocumentID: 42, MinioURL: "chunks/42/0.txt"},
			{DocumentID: 42, MinioURL: "chunks/42/1.txt"},
			{DocumentID: 42, MinioURL: "chunks/42/2.txt"},
		},
	}
	objects := &fakeObjectStore{}

	ix := indexer.NewIndexer(&fakeEmbedder{}, &fakeVectorStore{}, &fakeDocumentStore{}, chunks, objects)

	// A re-index that yields fewer chunks than before must not leave the
	// extra objects from the previous pass behind.
	report, err := ix.IndexExtracted(context.Background(), 42, testDocument())
	if err != nil {
		t.Fatalf("IndexExtracted() error = %v", err)
	}
	if report.Chunks != 2 {
		t.Errorf("IndexExtracted() chunks = %d, want 2", report.Chunks)
	}

	if len(objects.deletedObjects) != 3 {
		t.Fatalf("IndexExtracted() deleted objects = %v, want 3 stale chunk objects", objects.deletedObjects)
	}
	for i, want := range []string{"chunks/42/0.txt", "chunks/42/1.txt", "chunks/42/2.txt"} {
		if objects.deletedObjects[i] != want {
			t.Errorf("IndexExtracted() deleted object %d = %q, want %q", i, objects.deletedObjects[i], want)
		}
	}
}

func TestIndexExtractedEmbedErrorMarksFailed(t *testing.T) {
	documents := &fakeDocumentStore{}
	ix := indexer.NewIndexer(
		&fakeEmbedder{err: errors.New("embedding service down")},
		&fakeVectorStore{},
		documents,
		&fakeChunkStore{},
		&fakeObjectStore{},
	)

	_, err := ix.IndexExtracted(context.Background(), 42, testDocument())
	if err == nil {
		t.Fatal("IndexExtracted() error = nil, want error")
	}
	if !documents.markedFailed {
		t.Error("IndexExtracted() did not mark the document failed")
	}
	if documents.markedIndexed {
		t.Error("IndexExtracted() marked a failed document indexed")
	}
}

func TestIndexExtractedEmptyDocument(t *testing.T) {
	documents := &fakeDocumentStore{}
	ix := indexer.NewIndexer(
		&fakeEmbedder{},
		&fakeVectorStore{},
		documents,
		&fakeChunkStore{},
		&fakeObjectStore{},
	)

	_, err := ix.IndexExtracted(context.Background(), 42, &extract.Document{Name: "empty.pdf"})
	if err == nil {
		t.Fatal("IndexExtracted() error = nil, want error")
	}
	if !documents.markedFailed {
		t.Error("IndexExtracted() did not mark the document failed")
	}
}
