package weaviate

import (
	"context"
	"fmt"
	"strings"

	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

// ClassName is the single Weaviate class holding document chunk vectors.
const ClassName = "DocumentChunk"

const DefaultQueryLimit = 20

// SDK encapsulates all Weaviate operations for the chunk index
type SDK struct {
	client *weaviate.Client
}

// NewSDK creates a new instance of SDK
func NewSDK(client *weaviate.Client) *SDK {
	return &SDK{
		client: client,
	}
}

// EnsureSchema creates the DocumentChunk class if it does not exist yet.
// Vectorizer is "none": embeddings are computed by the LLM provider.
func (w *SDK) EnsureSchema(ctx context.Context) error {
	exists, err := w.classExists(ctx, ClassName)
	if err != nil {
		return fmt.Errorf("failed to check if class exists: %w", err)
	}
	if exists {
		return nil
	}

	class := &models.Class{
		Class:      ClassName,
		Vectorizer: "none",
		Properties: []*models.Property{
			{
				Name:        "content",
				DataType:    []string{"text"},
				Description: "The chunk text",
			},
			{
				Name:        "source",
				DataType:    []string{"text"},
				Description: "Filename of the source document",
			},
			{
				Name:        "documentId",
				DataType:    []string{"text"},
				Description: "ID of the source document",
			},
			{
				Name:        "page",
				DataType:    []string{"int"},
				Description: "Page the chunk was extracted from",
			},
			{
				Name:        "chunkIndex",
				DataType:    []string{"int"},
				Description: "Order of the chunk within the document",
			},
		},
	}

	if err := w.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return fmt.Errorf("failed to create Weaviate class: %w", err)
	}

	return nil
}

// Ready reports whether the Weaviate server answers its readiness probe
func (w *SDK) Ready(ctx context.Context) (bool, error) {
	return w.client.Misc().ReadyChecker().Do(ctx)
}

// classExists checks if a class exists in the schema
func (w *SDK) classExists(ctx context.Context, className string) (bool, error) {
	schema, err := w.client.Schema().Getter().Do(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get schema: %w", err)
	}

	for _, class := range schema.Classes {
		if class.Class == className {
			return true, nil
		}
	}

	return false, nil
}

// ChunkObject represents a single chunk with its vector and metadata
type ChunkObject struct {
	Vector     []float32
	Content    string
	Source     string
	DocumentID string
	Page       int
	ChunkIndex int
}

func (o ChunkObject) properties() map[string]interface{} {
	return map[string]interface{}{
		"content":    o.Content,
		"source":     o.Source,
		"documentId": o.DocumentID,
		"page":       o.Page,
		"chunkIndex": o.ChunkIndex,
	}
}

// BatchAddChunks adds multiple chunk objects in a single batch operation
func (w *SDK) BatchAddChunks(ctx context.Context, objects []ChunkObject) error {
	objs := make([]*models.Object, len(objects))
	for i, obj := range objects {
		objs[i] = &models.Object{
			Class:      ClassName,
			Properties: obj.properties(),
			Vector:     obj.Vector,
		}
	}

	batcher := w.client.Batch().ObjectsBatcher()
	resp, err := batcher.WithObjects(objs...).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to batch add chunks: %w", err)
	}
	if len(resp) == 0 {
		return fmt.Errorf("batch operation returned no results")
	}

	return nil
}

// DeleteByDocumentID removes every chunk belonging to a document.
// Re-indexing a document runs this first so chunks are replaced, not duplicated.
func (w *SDK) DeleteByDocumentID(ctx context.Context, documentID string) error {
	where := filters.Where().
		WithPath([]string{"documentId"}).
		WithOperator(filters.Equal).
		WithValueText(documentID)

	_, err := w.client.Batch().ObjectsBatchDeleter().
		WithClassName(ClassName).
		WithWhere(where).
		Do(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete chunks for document %s: %w", documentID, err)
	}

	return nil
}

// QueryConfig represents configuration for vector similarity search
type QueryConfig struct {
	Limit     int     // Maximum number of results
	Certainty float64 // Optional certainty threshold
}

// QueryResult represents a single chunk returned from a search
type QueryResult struct {
	ID         string
	Score      float64 // Distance for near-vector queries, hybrid score otherwise
	Content    string
	Source     string
	DocumentID string
	Page       int
	ChunkIndex int
}

var chunkFields = []graphql.Field{
	{Name: "content"},
	{Name: "source"},
	{Name: "documentId"},
	{Name: "page"},
	{Name: "chunkIndex"},
}

// QueryNearVector performs vector similarity search over the chunk index
func (w *SDK) QueryNearVector(ctx context.Context, vector []float32, config QueryConfig) ([]QueryResult, error) {
	fields := append([]graphql.Field{}, chunkFields...)
	fields = append(fields, graphql.Field{Name: "_additional { id distance certainty }"})

	nearVectorBuilder := w.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector)

	if config.Certainty > 0 {
		nearVectorBuilder.WithCertainty(float32(config.Certainty))
	}

	if config.Limit <= 0 {
		config.Limit = DefaultQueryLimit
	}

	result, err := w.client.GraphQL().Get().
		WithClassName(ClassName).
		WithFields(fields...).
		WithNearVector(nearVectorBuilder).
		WithLimit(config.Limit).
		Do(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}

	return parseResults(result.Data, "distance")
}

// parseResults walks the GraphQL response and converts objects to QueryResults.
// scoreField selects which _additional value carries the ranking score.
func parseResults(data map[string]models.JSONObject, scoreField string) ([]QueryResult, error) {
	var queryResults []QueryResult

	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return queryResults, nil
	}
	objects, ok := get[ClassName].([]interface{})
	if !ok {
		return queryResults, nil
	}

	for _, obj := range objects {
		objMap, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}

		qr := QueryResult{}
		if additional, ok := objMap["_additional"].(map[string]interface{}); ok {
			if id, ok := additional["id"].(string); ok {
				qr.ID = id
			}
			if score, ok := additional[scoreField].(float64); ok {
				qr.Score = score
			} else if s, ok := additional[scoreField].(string); ok {
				// Hybrid scores come back as strings from some server versions.
				fmt.Sscanf(s, "%f", &qr.Score)
			}
		}

		if v, ok := objMap["content"].(string); ok {
			qr.Content = v
		}
		if v, ok := objMap["source"].(string); ok {
			qr.Source = v
		}
		if v, ok := objMap["documentId"].(string); ok {
			qr.DocumentID = v
		}
		if v, ok := objMap["page"].(float64); ok {
			qr.Page = int(v)
		}
		if v, ok := objMap["chunkIndex"].(float64); ok {
			qr.ChunkIndex = int(v)
		}

		queryResults = append(queryResults, qr)
	}

	return queryResults, nil
}
