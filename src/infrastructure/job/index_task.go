package job

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"docintel/src/core/indexer"
	"docintel/src/extract"
	"docintel/src/infrastructure/log"
	"docintel/src/storage/minioctrl"
	"docintel/src/storage/postgres/documentctrl"
)

type IndexDocumentPayload struct {
	DocumentID int64 `json:"document_id"`
}

// IndexTask processes uploaded documents in the background: fetch the PDF
// from object storage, extract, and hand off to the indexer.
type IndexTask struct {
	documentService *documentctrl.DocumentService
	minioService    *minioctrl.MinioService
	indexer         *indexer.Indexer
}

func NewIndexTask(
	documentService *documentctrl.DocumentService,
	minioService *minioctrl.MinioService,
	ix *indexer.Indexer,
) *IndexTask {
	return &IndexTask{
		documentService: documentService,
		minioService:    minioService,
		indexer:         ix,
	}
}

func (task *IndexTask) HandleIndexDocument(ctx context.Context, payload json.RawMessage) error {
	var indexPayload IndexDocumentPayload
	if err := json.Unmarshal(payload, &indexPayload); err != nil {
		return fmt.Errorf("failed to unmarshal index payload: %w", err)
	}

	document, err := task.documentService.GetByID(ctx, indexPayload.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	if document == nil {
		return fmt.Errorf("document not found: %d", indexPayload.DocumentID)
	}

	bucket, object := minioctrl.GetBucketAndObjectFromURL(document.MinioURL)
	if bucket == "" {
		return fmt.Errorf("invalid minio URL format: %s", document.MinioURL)
	}

	raw, err := task.minioService.GetObject(ctx, bucket, object)
	if err != nil {
		return fmt.Errorf("failed to get document content: %w", err)
	}

	doc, err := extract.FromReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return fmt.Errorf("failed to extract document: %w", err)
	}
	doc.Name = document.Filename

	if doc.Empty() {
		if markErr := task.documentService.MarkFailed(ctx, document.ID); markErr != nil {
			log.Error(markErr, "failed to mark document failed", "document_id", document.ID)
		}
		return fmt.Errorf("no extractable text in document %d", document.ID)
	}

	report, err := task.indexer.IndexExtracted(ctx, document.ID, doc)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}

	log.Info("document indexed",
		"document_id", report.DocumentID,
		"filename", report.Filename,
		"pages", report.Pages,
		"chunks", report.Chunks)

	return nil
}
