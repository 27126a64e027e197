// Package analyze turns source files into stored code elements. Parsing
// fans out across CPU cores; persistence is a single transaction. Results
// are memoized by content hash so re-analyzing an unchanged file is free.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/SourceScope/source-scope-mcp/internal/discover"
	"github.com/SourceScope/source-scope-mcp/internal/lang"
	"github.com/SourceScope/source-scope-mcp/internal/sqlang"
	"github.com/SourceScope/source-scope-mcp/internal/store"
)

// ErrUnsupported marks files whose extension matches no registered language.
var ErrUnsupported = errors.New("unsupported file type")

// Options configures an Analyzer.
type Options struct {
	// Adapter post-processes SQL extraction for this platform. Nil means
	// raw, unadapted extraction.
	Adapter sqlang.Adapter

	// CacheSize bounds the per-file result cache. Default 256.
	CacheSize int
}

// Analyzer extracts code elements and persists them.
type Analyzer struct {
	st    *store.Store
	ext   *sqlang.Extractor
	cache *lru.Cache[string, *FileResult]
}

// FileResult is the outcome of analyzing one file.
type FileResult struct {
	Path     string        `json:"path"`
	Language lang.Language `json:"language"`
	Hash     string        `json:"content_hash"`
	Records  []Record      `json:"records"`
	HasError bool          `json:"has_parse_error"` // parse tree contained error nodes
	Cached   bool          `json:"cached"`          // served from the result cache
}

// DirectoryResult summarizes a directory analysis.
type DirectoryResult struct {
	Root     string `json:"root"`
	Files    int    `json:"files"`
	Elements int    `json:"elements"`
	Cached   int    `json:"cached"`
	Failed   int    `json:"failed"`
}

// New returns an analyzer persisting into st.
func New(st *store.Store, opts Options) (*Analyzer, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, *FileResult](size)
	if err != nil {
		return nil, fmt.Errorf("result cache: %w", err)
	}
	return &Analyzer{
		st:    st,
		ext:   &sqlang.Extractor{Adapter: opts.Adapter},
		cache: cache,
	}, nil
}

// File analyzes a single file and persists its elements.
func (a *Analyzer) File(ctx context.Context, path string) (*FileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	ext := filepath.Ext(path)
	language, ok := lang.LanguageForExtension(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}

	res, err := a.extractFile(path, language)
	if err != nil {
		return nil, err
	}
	if err := a.persist([]*FileResult{res}); err != nil {
		return nil, err
	}
	return res, nil
}

// Directory discovers and analyzes every supported file under root.
// Per-file failures are logged and counted, not fatal.
func (a *Analyzer) Directory(ctx context.Context, root string) (*DirectoryResult, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	files, err := discover.Discover(ctx, root, nil)
	if err != nil {
		return nil, err
	}
	slog.Info("analyze.start", "root", root, "files", len(files))

	results := make([]*FileResult, len(files))
	failures := make([]error, len(files))

	numWorkers := runtime.NumCPU()
	if numWorkers > len(files) {
		numWorkers = len(files)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := a.extractFile(f.Path, f.Language)
			if err != nil {
				failures[i] = err
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dr := &DirectoryResult{Root: root, Files: len(files)}
	var persistable []*FileResult
	for i, res := range results {
		if res == nil {
			dr.Failed++
			slog.Warn("analyze.file_error", "path", files[i].Path, "err", failures[i])
			continue
		}
		if res.Cached {
			dr.Cached++
		}
		dr.Elements += len(res.Records)
		persistable = append(persistable, res)
	}
	if err := a.persist(persistable); err != nil {
		return nil, err
	}

	slog.Info("analyze.done", "files", dr.Files, "elements", dr.Elements, "cached", dr.Cached, "failed", dr.Failed)
	return dr, nil
}

// extractFile reads, hashes, and extracts one file, consulting the result
// cache first.
func (a *Analyzer) extractFile(path string, language lang.Language) (*FileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	hash := contentHash(data)

	if hit, ok := a.cache.Get(path); ok && hit.Hash == hash {
		cached := *hit
		cached.Cached = true
		return &cached, nil
	}

	var records []Record
	var hasError bool
	if language == lang.SQL {
		records, hasError, err = a.sqlRecords(data)
	} else {
		records, hasError, err = genericRecords(data, language)
	}
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}

	res := &FileResult{Path: path, Language: language, Hash: hash, Records: records, HasError: hasError}
	a.cache.Add(path, res)
	slog.Debug("analyze.file", "path", path, "language", language, "elements", len(records))
	return res, nil
}

// persist writes results in one transaction. Files and their elements are
// replaced wholesale, so repeated runs stay idempotent.
func (a *Analyzer) persist(results []*FileResult) error {
	if len(results) == 0 {
		return nil
	}
	return a.st.WithTransaction(func(tx *store.Store) error {
		for _, res := range results {
			fileID, err := tx.UpsertFile(res.Path, string(res.Language), res.Hash)
			if err != nil {
				return err
			}
			els := make([]*store.Element, 0, len(res.Records))
			for _, r := range res.Records {
				els = append(els, &store.Element{
					Kind:       r.Kind,
					Name:       r.Name,
					StartLine:  r.StartLine,
					EndLine:    r.EndLine,
					Properties: r.Props,
				})
			}
			if err := tx.ReplaceElements(fileID, els); err != nil {
				return err
			}
		}
		return nil
	})
}
