package inventory

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/logger"
)

// DefaultIgnore returns the extensions the local builder skips.
// Markdown and plain text are deliberately on the list: the manifest
// flow exists for binary office documents, and skipping json keeps a
// previously written inventory.json out of its own manifest.
func DefaultIgnore() []string {
	return []string{"png", "jpg", "md", "txt", "json", "csv", "zip"}
}

// Build scans a local directory tree into manifest records. Paths are
// recorded relative to root with forward slashes, hashes are
// SHA-2-256 over the file bytes. Hidden files and directories are
// skipped, as are the ignored extensions.
func Build(ctx context.Context, root string, ignore []string) ([]Record, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("root directory %s does not exist", root)
	}

	var records []Record
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if ignored(path, ignore) {
			logger.Debug("Skipping %s", path)
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relativise %s: %w", path, err)
		}
		records = append(records, Record{
			Path:   filepath.ToSlash(rel),
			SHA256: domain.HashFile(content),
			Metadata: map[string]any{
				"size":         int64(len(content)),
				"content-type": DetectMIME(path, content),
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Built inventory for %s: %d files", root, len(records))
	return records, nil
}

func ignored(path string, ignore []string) bool {
	ext := domain.PathExtension(path)
	for _, ig := range ignore {
		if strings.EqualFold(ig, ext) {
			return true
		}
	}
	return false
}
