package ingest

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/mungunsi/medichat/internal/model/document"
)

// LoadPDFDirectory walks root and extracts one Document per PDF page.
// Only the source path is retained from the file metadata.
func LoadPDFDirectory(root string) ([]document.Document, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no PDF files found under %s", root)
	}

	var docs []document.Document
	for _, path := range paths {
		pages, err := loadPDF(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		docs = append(docs, pages...)
	}

	log.Printf("[ingest] loaded %d pages from %d files under %s", len(docs), len(paths), root)
	return docs, nil
}

func loadPDF(path string) ([]document.Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	baseID := hashString(path)
	var docs []document.Document
	for pageIndex := 1; pageIndex <= r.NumPage(); pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the whole corpus.
			log.Printf("[ingest] skipping %s page %d: %v", path, pageIndex, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		docs = append(docs, document.Document{
			ID:      fmt.Sprintf("%s-p%d", baseID, pageIndex),
			Source:  path,
			Content: text,
		})
	}

	return docs, nil
}

func hashString(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:8])
}
