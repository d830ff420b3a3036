package crawler

import (
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"callproof/internal/extractor"
)

// Crawler scans a directory for source files.
type Crawler struct {
	extractors []*extractor.Extractor
	ignored    []string
	logger     *zap.Logger
}

type Option func(*Crawler)

// WithLogger sets the logger used to report files that fail to parse.
func WithLogger(l *zap.Logger) Option {
	return func(c *Crawler) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCrawler creates a new crawler instance.
func NewCrawler(exts []*extractor.Extractor, opts ...Option) *Crawler {
	c := &Crawler{
		extractors: exts,
		ignored:    []string{".git", "vendor", "node_modules", "testdata", "__pycache__", ".venv", "venv"},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ScanProject walks the root directory and extracts every supported file.
// It uses a callback to stream results, preventing large memory buildup.
// Files that fail to parse are logged and skipped.
func (c *Crawler) ScanProject(root string, onFile func(*extractor.FileResult)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && c.isIgnored(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasSuffix(d.Name(), "_test.go") {
			return nil
		}
		ext := c.extractorFor(path)
		if ext == nil {
			return nil
		}

		res, err := ext.ExtractFromFile(path)
		if err != nil {
			c.logger.Warn("skipping file", zap.String("path", path), zap.Error(err))
			return nil
		}

		if rel, relErr := filepath.Rel(root, path); relErr == nil {
			relativize(res, path, filepath.ToSlash(rel))
		}
		onFile(res)
		return nil
	})
}

func (c *Crawler) isIgnored(name string) bool {
	for _, ign := range c.ignored {
		if name == ign {
			return true
		}
	}
	return false
}

func (c *Crawler) extractorFor(path string) *extractor.Extractor {
	for _, e := range c.extractors {
		if e.Handles(path) {
			return e
		}
	}
	return nil
}

// relativize rewrites IDs and evidence so that graphs do not depend on
// where the project was checked out.
func relativize(res *extractor.FileResult, abs, rel string) {
	if abs == rel {
		return
	}
	prefix := abs + ":"
	swap := func(id string) string {
		if strings.HasPrefix(id, prefix) {
			return rel + ":" + strings.TrimPrefix(id, prefix)
		}
		return id
	}
	res.Filepath = rel
	for _, s := range res.Symbols {
		s.ID = swap(s.ID)
		s.Filepath = rel
	}
	for i := range res.Calls {
		res.Calls[i].From = swap(res.Calls[i].From)
		res.Calls[i].Evidence.Filepath = rel
	}
}
