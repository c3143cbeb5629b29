package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"
	weaviateClient "github.com/weaviate/weaviate-go-client/v4/weaviate"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"docintel/src/core/indexer"
	"docintel/src/core/llm"
	"docintel/src/core/retriever"
	"docintel/src/infrastructure/integrations/ollama"
	"docintel/src/infrastructure/integrations/openai"
	"docintel/src/infrastructure/job"
	"docintel/src/storage/esctrl"
	"docintel/src/storage/minioctrl"
	"docintel/src/storage/postgres/chatctrl"
	"docintel/src/storage/postgres/chunkctrl"
	"docintel/src/storage/postgres/documentctrl"
	"docintel/src/storage/weaviate"
)

// openDatabase connects to PostgreSQL and migrates the schema.
func openDatabase() (*gorm.DB, error) {
	host := viper.GetString("postgres.host")
	user := viper.GetString("postgres.user")
	password := viper.GetString("postgres.password")
	dbname := viper.GetString("postgres.db")
	port := viper.GetString("postgres.port")

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		host, user, password, dbname, port)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&documentctrl.Document{},
		&chunkctrl.Chunk{},
		&chatctrl.Message{},
		&job.Job{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}

func newWeaviateSDK() *weaviate.SDK {
	wc := weaviateClient.New(weaviateClient.Config{
		Host:   viper.GetString("weaviate.host"),
		Scheme: viper.GetString("weaviate.scheme"),
	})
	return weaviate.NewSDK(wc)
}

func newMinioService() (*minioctrl.MinioService, error) {
	return minioctrl.NewMinioService(
		viper.GetString("minio.endpoint"),
		viper.GetString("minio.access_key"),
		viper.GetString("minio.secret_key"),
		viper.GetBool("minio.use_ssl"),
	)
}

// newLLMProvider picks the embedding/generation backend from config.
func newLLMProvider() (llm.Provider, error) {
	httpClient := &http.Client{Timeout: 120 * time.Second}

	switch provider := viper.GetString("llm.provider"); provider {
	case "openai":
		apiKey := viper.GetString("openai.api_key")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		client := openai.NewClient(viper.GetString("openai.base_url"), apiKey, httpClient)
		return openai.NewProvider(
			client,
			viper.GetString("openai.embedding_model"),
			viper.GetString("openai.chat_model"),
		), nil
	case "ollama":
		return ollama.NewProvider(
			viper.GetString("ollama.url"),
			viper.GetString("ollama.embedding_model"),
			viper.GetString("ollama.chat_model"),
			httpClient,
		)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}

// newQueryLog returns nil when no Elasticsearch URL is configured.
func newQueryLog() (*esctrl.QueryLog, error) {
	url := viper.GetString("elasticsearch.url")
	if url == "" {
		return nil, nil
	}
	return esctrl.NewQueryLog([]string{url}, viper.GetString("elasticsearch.index"))
}

func newIndexer(
	provider llm.Provider,
	wsdk *weaviate.SDK,
	documentService *documentctrl.DocumentService,
	chunkService *chunkctrl.ChunkService,
	minioService *minioctrl.MinioService,
) *indexer.Indexer {
	splitter := indexer.NewSplitter(
		viper.GetInt("rag.chunk_size"),
		viper.GetInt("rag.chunk_overlap"),
	)
	return indexer.NewIndexer(
		provider,
		wsdk,
		documentService,
		chunkService,
		minioService,
		indexer.WithBuckets(
			viper.GetString("minio.document_bucket"),
			viper.GetString("minio.chunk_bucket"),
		),
		indexer.WithSplitter(splitter),
	)
}

func documentServiceFromDB(db *gorm.DB) (*documentctrl.DocumentService, error) {
	svc, err := documentctrl.NewDocumentService(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create document service: %w", err)
	}
	return svc, nil
}

func chunkServiceFromDB(db *gorm.DB) (*chunkctrl.ChunkService, error) {
	svc, err := chunkctrl.NewChunkService(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunk service: %w", err)
	}
	return svc, nil
}

func newRetriever(provider llm.Provider, wsdk *weaviate.SDK) *retriever.Retriever {
	var opts []retriever.Option
	if viper.GetBool("rag.hybrid") {
		opts = append(opts, retriever.WithHybrid(float32(viper.GetFloat64("rag.hybrid_alpha"))))
	}
	return retriever.NewRetriever(wsdk, provider, opts...)
}
