package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	httphandler "docintel/handler/http"
	"docintel/src/core/answerflow"
	"docintel/src/core/qa"
	"docintel/src/core/system"
	"docintel/src/infrastructure/job"
	"docintel/src/infrastructure/log"
	"docintel/src/storage/postgres/chatctrl"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the document question-answering server",
	Long: `The serve command starts an HTTP server that accepts document
uploads and answers questions about the indexed documents. Uploaded
documents are indexed asynchronously by the worker.`,
	Run: RunServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer(cmd *cobra.Command, args []string) {
	db, err := openDatabase()
	if err != nil {
		log.Error(err, "Failed to connect to database")
		return
	}

	wsdk := newWeaviateSDK()

	minioService, err := newMinioService()
	if err != nil {
		log.Error(err, "Failed to create minio service")
		return
	}

	provider, err := newLLMProvider()
	if err != nil {
		log.Error(err, "Failed to create llm provider")
		return
	}

	documentService, err := documentServiceFromDB(db)
	if err != nil {
		log.Error(err, "Failed to create document service")
		return
	}

	// The server only enqueues index jobs; the worker owns the indexer.
	amqpPublisher, err := amqp.NewPublisher(
		amqp.NewDurableQueueConfig(viper.GetString("amqp.url")),
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		log.Error(err, "Failed to create amqp publisher")
		return
	}
	defer amqpPublisher.Close()

	jobService := job.NewJobService(
		amqpPublisher,
		job.NewPostgresJobRepository(db),
		watermill.NewStdLogger(false, false),
		nil,
	)

	flow := answerflow.NewAnswerFlow(
		newRetriever(provider, wsdk),
		provider,
		answerflow.WithTopK(viper.GetInt("rag.top_k")),
	)

	queryLog, err := newQueryLog()
	if err != nil {
		log.Error(err, "Failed to create query log")
		return
	}
	var audit qa.AuditLog
	if queryLog != nil {
		audit = queryLog
	}

	qaService := qa.NewService(flow, chatctrl.NewChatService(db), audit)

	handler := httphandler.NewHandler(
		qaService,
		documentService,
		minioService,
		jobService,
		system.NewService(db, wsdk, provider),
		viper.GetString("minio.document_bucket"),
	)

	// Setup gin router
	r := gin.Default()
	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + viper.GetString("server.port"),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "Failed to start server")
			return
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	timeout, err := time.ParseDuration(viper.GetString("server.shutdown_timeout"))
	if err != nil {
		log.Error(err, "Invalid shutdown timeout, using default 5s")
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sqlDB, err := db.DB()
	if err != nil {
		log.Error(err, "Failed to get underlying *sql.DB")
	} else {
		if err := sqlDB.Close(); err != nil {
			log.Error(err, "Error closing database connection")
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "Server forced to shutdown")
	}

	log.Info("Server exited")
}
