package cmd

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"docintel/src/extract"
	"docintel/src/fsutil"
	"docintel/src/infrastructure/log"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index all PDF documents in a directory",
	Long: `The index command extracts text from every PDF in the documents
directory, splits it into chunks, embeds each chunk and stores the
vectors so questions can be answered against them.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringP("dir", "d", "", "directory containing PDF files (defaults to rag.documents_dir)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = viper.GetString("rag.documents_dir")
	}

	loader := extract.NewLoader(fsutil.NewLocalFileStore())
	docs, err := loader.LoadDirectory(dir)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no readable PDF documents in %s", dir)
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying *sql.DB: %w", err)
	}
	defer sqlDB.Close()

	minioService, err := newMinioService()
	if err != nil {
		return err
	}

	provider, err := newLLMProvider()
	if err != nil {
		return err
	}

	documentService, err := documentServiceFromDB(db)
	if err != nil {
		return err
	}
	chunkService, err := chunkServiceFromDB(db)
	if err != nil {
		return err
	}

	ix := newIndexer(provider, newWeaviateSDK(), documentService, chunkService, minioService)

	fmt.Printf("Indexing %d PDF document(s) from %s\n", len(docs), dir)
	bar := progressbar.Default(int64(len(docs)))

	ctx := cmd.Context()
	var indexed, failed int
	for _, doc := range docs {
		report, err := ix.IndexDocument(ctx, doc)
		if err != nil {
			log.Error(err, "failed to index document", "path", doc.Path)
			failed++
			bar.Add(1)
			continue
		}
		indexed++
		bar.Add(1)
		log.Info("indexed document",
			"filename", report.Filename,
			"pages", report.Pages,
			"chunks", report.Chunks,
		)
	}

	fmt.Printf("\nDone. %d indexed, %d failed.\n", indexed, failed)
	if failed > 0 && indexed == 0 {
		return fmt.Errorf("all %d documents failed to index", failed)
	}
	return nil
}
