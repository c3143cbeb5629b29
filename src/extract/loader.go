package extract

import (
	"errors"
	"fmt"

	"docintel/src/fsutil"
	"docintel/src/infrastructure/log"
)

var (
	ErrNoDocuments = errors.New("no PDF files found in documents directory")
)

// Loader reads every PDF file from a directory.
type Loader struct {
	fs fsutil.FileStore
}

func NewLoader(fs fsutil.FileStore) *Loader {
	return &Loader{fs: fs}
}

// ListPDFs returns the paths of all PDF files in dir, sorted by name.
// It fails when the directory does not exist or contains no PDFs.
func (l *Loader) ListPDFs(dir string) ([]string, error) {
	files, err := l.fs.ListFilesByExt(dir, ".pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to read documents directory %q: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, ErrNoDocuments
	}
	return files, nil
}

// LoadDirectory extracts every PDF in dir. Files whose extraction yields
// no text are skipped with a log entry rather than failing the batch.
func (l *Loader) LoadDirectory(dir string) ([]*Document, error) {
	paths, err := l.ListPDFs(dir)
	if err != nil {
		return nil, err
	}

	var docs []*Document
	for _, path := range paths {
		doc, err := FromFile(path)
		if err != nil {
			log.Error(err, "failed to extract document", "path", path)
			continue
		}
		if doc.Empty() {
			log.Info("skipping document with no extractable text", "path", path)
			continue
		}
		docs = append(docs, doc)
	}

	return docs, nil
}
