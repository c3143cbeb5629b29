package indexer

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"docintel/src/extract"
	"docintel/src/fsutil"
	"docintel/src/infrastructure/log"
	"docintel/src/storage/minioctrl"
	"docintel/src/storage/postgres/chunkctrl"
	"docintel/src/storage/postgres/documentctrl"
	"docintel/src/storage/weaviate"
)

// DocumentStore persists document metadata rows.
type DocumentStore interface {
	Create(ctx context.Context, filename, minioURL string) (*documentctrl.Document, error)
	GetByFilename(ctx context.Context, filename string) (*documentctrl.Document, error)
	MarkIndexed(ctx context.Context, id int64, pageCount, chunkCount int) error
	MarkFailed(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// ChunkStore persists chunk metadata rows.
type ChunkStore interface {
	Create(ctx context.Context, documentID int64, minioURL string, page, order int) (*chunkctrl.Chunk, error)
	GetByDocumentID(ctx context.Context, documentID int64) ([]chunkctrl.Chunk, error)
	DeleteByDocumentID(ctx context.Context, documentID int64) error
}

// VectorStore holds chunk embeddings.
type VectorStore interface {
	EnsureSchema(ctx context.Context) error
	BatchAddChunks(ctx context.Context, objects []weaviate.ChunkObject) error
	DeleteByDocumentID(ctx context.Context, documentID string) error
}

// ObjectStore holds raw documents and chunk text.
type ObjectStore interface {
	EnsureBucketExists(ctx context.Context, bucketName string) error
	PutObject(ctx context.Context, bucketName, objectName string, data []byte, contentType string) error
	DeleteObject(ctx context.Context, bucketName, objectName string) error
	DeleteObjects(ctx context.Context, bucketName string, objectNames []string) error
}

// Embedder computes one embedding per chunk.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Indexer runs the extract -> split -> embed -> persist pipeline.
type Indexer struct {
	splitter  *Splitter
	embedder  Embedder
	vectors   VectorStore
	documents DocumentStore
	chunks    ChunkStore
	objects   ObjectStore
	fs        fsutil.FileStore

	documentsBucket string
	chunksBucket    string
}

type Option func(ix *Indexer)

func WithBuckets(documentsBucket, chunksBucket string) Option {
	return func(ix *Indexer) {
		ix.documentsBucket = documentsBucket
		ix.chunksBucket = chunksBucket
	}
}

func WithSplitter(s *Splitter) Option {
	return func(ix *Indexer) {
		ix.splitter = s
	}
}

func NewIndexer(embedder Embedder, vectors VectorStore, documents DocumentStore, chunks ChunkStore, objects ObjectStore, opts ...Option) *Indexer {
	ix := &Indexer{
		splitter:        NewSplitter(DefaultChunkSize, DefaultChunkOverlap),
		embedder:        embedder,
		vectors:         vectors,
		documents:       documents,
		chunks:          chunks,
		objects:         objects,
		fs:              fsutil.NewLocalFileStore(),
		documentsBucket: "documents",
		chunksBucket:    "chunks",
	}

	for _, opt := range opts {
		opt(ix)
	}

	return ix
}

// Report summarizes one indexing pass over a document.
type Report struct {
	DocumentID int64  `json:"document_id"`
	Filename   string `json:"filename"`
	Pages      int    `json:"pages"`
	Chunks     int    `json:"chunks"`
}

// IndexDocument stores an extracted document's raw file in object storage,
// creates the metadata row and indexes the chunks. A document with the same
// filename is replaced, including its stored objects.
func (ix *Indexer) IndexDocument(ctx context.Context, doc *extract.Document) (*Report, error) {
	if doc.Empty() {
		return nil, fmt.Errorf("no extractable text in %s", doc.Name)
	}

	if err := ix.removeExisting(ctx, doc.Name); err != nil {
		return nil, err
	}

	raw, err := ix.fs.ReadFile(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", doc.Path, err)
	}

	objectName := fmt.Sprintf("%s.pdf", uuid.New().String())
	if err := ix.objects.EnsureBucketExists(ctx, ix.documentsBucket); err != nil {
		return nil, err
	}
	if err := ix.objects.PutObject(ctx, ix.documentsBucket, objectName, raw, "application/pdf"); err != nil {
		return nil, err
	}

	rec, err := ix.documents.Create(ctx, doc.Name, fmt.Sprintf("%s/%s", ix.documentsBucket, objectName))
	if err != nil {
		return nil, err
	}

	return ix.IndexExtracted(ctx, rec.ID, doc)
}

// IndexExtracted indexes an already-extracted document against an existing
// metadata row. The worker path lands here after fetching the PDF from
// object storage.
func (ix *Indexer) IndexExtracted(ctx context.Context, documentID int64, doc *extract.Document) (*Report, error) {
	report, err := ix.indexChunks(ctx, documentID, doc)
	if err != nil {
		if markErr := ix.documents.MarkFailed(ctx, documentID); markErr != nil {
			log.Error(markErr, "failed to mark document failed", "document_id", documentID)
		}
		return nil, err
	}

	if err := ix.documents.MarkIndexed(ctx, documentID, report.Pages, report.Chunks); err != nil {
		return nil, err
	}

	return report, nil
}

func (ix *Indexer) indexChunks(ctx context.Context, documentID int64, doc *extract.Document) (*Report, error) {
	if err := ix.vectors.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure vector schema: %w", err)
	}
	if err := ix.objects.EnsureBucketExists(ctx, ix.chunksBucket); err != nil {
		return nil, err
	}

	pieces, err := ix.splitter.SplitDocument(doc)
	if err != nil {
		return nil, err
	}
	if len(pieces) == 0 {
		return nil, fmt.Errorf("document %s produced no chunks", doc.Name)
	}

	docIDStr := strconv.FormatInt(documentID, 10)

	// Replace semantics: clear any chunks from a previous indexing pass.
	// Stored objects go first, while the rows still carry their URLs.
	stale, err := ix.chunks.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := ix.deleteChunkObjects(ctx, stale); err != nil {
		return nil, err
	}
	if err := ix.vectors.DeleteByDocumentID(ctx, docIDStr); err != nil {
		return nil, err
	}
	if err := ix.chunks.DeleteByDocumentID(ctx, documentID); err != nil {
		return nil, err
	}

	objects := make([]weaviate.ChunkObject, 0, len(pieces))
	for _, piece := range pieces {
		embedding, err := ix.embedder.Embed(ctx, piece.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk %d: %w", piece.Index, err)
		}

		objectName := fmt.Sprintf("%s/%d.txt", docIDStr, piece.Index)
		if err := ix.objects.PutObject(ctx, ix.chunksBucket, objectName, []byte(piece.Content), "text/plain"); err != nil {
			return nil, err
		}

		minioURL := fmt.Sprintf("%s/%s", ix.chunksBucket, objectName)
		if _, err := ix.chunks.Create(ctx, documentID, minioURL, piece.Page, piece.Index); err != nil {
			return nil, err
		}

		objects = append(objects, weaviate.ChunkObject{
			Vector:     embedding,
			Content:    piece.Content,
			Source:     doc.Name,
			DocumentID: docIDStr,
			Page:       piece.Page,
			ChunkIndex: piece.Index,
		})
	}

	if err := ix.vectors.BatchAddChunks(ctx, objects); err != nil {
		return nil, err
	}

	return &Report{
		DocumentID: documentID,
		Filename:   doc.Name,
		Pages:      len(doc.Pages),
		Chunks:     len(objects),
	}, nil
}

// deleteChunkObjects removes the stored text objects behind a set of chunk
// rows, batched per bucket.
func (ix *Indexer) deleteChunkObjects(ctx context.Context, chunks []chunkctrl.Chunk) error {
	objectsByBucket := make(map[string][]string)
	for _, chunk := range chunks {
		bucket, object := minioctrl.GetBucketAndObjectFromURL(chunk.MinioURL)
		if bucket == "" {
			continue
		}
		objectsByBucket[bucket] = append(objectsByBucket[bucket], object)
	}
	for bucket, names := range objectsByBucket {
		if err := ix.objects.DeleteObjects(ctx, bucket, names); err != nil {
			return err
		}
	}
	return nil
}

// removeExisting drops a previously indexed document with the same filename,
// including its raw PDF and chunk text objects.
func (ix *Indexer) removeExisting(ctx context.Context, filename string) error {
	existing, err := ix.documents.GetByFilename(ctx, filename)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	log.Info("replacing previously indexed document", "filename", filename, "document_id", existing.ID)

	// Enumerate chunk objects before their rows go away.
	chunks, err := ix.chunks.GetByDocumentID(ctx, existing.ID)
	if err != nil {
		return err
	}
	if err := ix.deleteChunkObjects(ctx, chunks); err != nil {
		return err
	}

	if bucket, object := minioctrl.GetBucketAndObjectFromURL(existing.MinioURL); bucket != "" {
		if err := ix.objects.DeleteObject(ctx, bucket, object); err != nil {
			return err
		}
	}

	if err := ix.vectors.DeleteByDocumentID(ctx, strconv.FormatInt(existing.ID, 10)); err != nil {
		return err
	}
	if err := ix.chunks.DeleteByDocumentID(ctx, existing.ID); err != nil {
		return err
	}
	return ix.documents.Delete(ctx, existing.ID)
}
