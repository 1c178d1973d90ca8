// Package index extracts declarations from source files into the symbol
// store.
package index

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jward/symkit/internal/sitter"
	"github.com/jward/symkit/internal/store"
)

// ErrBadPattern is returned by New-time validation of include globs.
var ErrBadPattern = errors.New("index: invalid include pattern")

// Indexer keeps the store in sync with a set of source files.
type Indexer struct {
	store     *store.Store
	languages map[string]bool // nil means all languages
	include   []string
	parallel  bool
	workers   int
	logger    zerolog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLanguages restricts which languages the Indexer will process.
func WithLanguages(languages ...string) Option {
	return func(ix *Indexer) {
		if len(languages) == 0 {
			return
		}
		ix.languages = make(map[string]bool, len(languages))
		for _, lang := range languages {
			ix.languages[lang] = true
		}
	}
}

// WithParallel controls parallel extraction. When true (default), files are
// parsed and extracted by a worker pool while a single writer commits each
// file's batch to SQLite. When false, files are extracted one at a time
// straight into the store.
func WithParallel(parallel bool) Option {
	return func(ix *Indexer) {
		ix.parallel = parallel
	}
}

// WithWorkers sets the worker pool size used in parallel mode.
func WithWorkers(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.workers = n
		}
	}
}

// WithInclude restricts indexing to files matching any of the doublestar
// globs, e.g. "src/**/*.go". Paths are matched relative to the directory
// being indexed, or as given to IndexFiles.
func WithInclude(globs ...string) Option {
	return func(ix *Indexer) {
		ix.include = append(ix.include, globs...)
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(ix *Indexer) {
		ix.logger = logger
	}
}

// New creates an Indexer writing to s.
func New(s *store.Store, opts ...Option) (*Indexer, error) {
	ix := &Indexer{
		store:    s,
		parallel: true,
		workers:  runtime.NumCPU(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	for _, g := range ix.include {
		if !doublestar.ValidatePattern(g) {
			return nil, fmt.Errorf("%w: %q", ErrBadPattern, g)
		}
	}
	return ix, nil
}

// Stats summarizes one indexing run.
type Stats struct {
	Indexed   int
	Unchanged int
	Failed    int
	Symbols   int
}

// workItem holds everything extraction needs for one file.
type workItem struct {
	path    string
	lang    string
	fileID  int64
	content []byte
}

// IndexFiles indexes paths. Unsupported and filtered files are ignored, and
// files whose content hash is unchanged are skipped. A failing file does not
// stop the run; the first failure is returned along with the count.
func (ix *Indexer) IndexFiles(ctx context.Context, paths []string) (Stats, error) {
	var kept []string
	for _, p := range paths {
		if ix.included(filepath.ToSlash(p)) {
			kept = append(kept, p)
		}
	}
	return ix.indexFiles(ctx, kept)
}

func (ix *Indexer) indexFiles(ctx context.Context, paths []string) (Stats, error) {
	var stats Stats
	var errs []error

	var items []workItem
	for _, path := range paths {
		item, skip, err := ix.prepareFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("prepare %s: %w", path, err))
			continue
		}
		if skip {
			if item.path != "" {
				stats.Unchanged++
			}
			continue
		}
		items = append(items, item)
	}

	settled := make(map[int64]bool, len(items))
	var err error
	if ix.parallel && len(items) > 1 {
		err = ix.extractParallel(ctx, items, settled, &stats, &errs)
	} else {
		err = ix.extractSerial(ctx, items, settled, &stats, &errs)
	}
	if err != nil {
		ix.abandon(items, settled)
		return stats, err
	}

	stats.Failed = len(errs)
	if stats.Indexed > 0 {
		if err := ix.store.SetMetadata("last_indexed", time.Now().UTC().Format(time.RFC3339)); err != nil {
			errs = append(errs, err)
		}
	}
	ix.logger.Info().
		Int("indexed", stats.Indexed).
		Int("unchanged", stats.Unchanged).
		Int("failed", stats.Failed).
		Int("symbols", stats.Symbols).
		Msg("indexing finished")

	if len(errs) > 0 {
		return stats, fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return stats, nil
}

func (ix *Indexer) included(path string) bool {
	if len(ix.include) == 0 {
		return true
	}
	for _, g := range ix.include {
		if ok, _ := doublestar.Match(g, path); ok {
			return true
		}
	}
	return false
}

// prepareFile does the serial part of indexing a file: hash check, cleanup
// of stale data and a fresh file record. skip is true for unsupported,
// filtered and unchanged files; only the last carries a path in item.
func (ix *Indexer) prepareFile(path string) (item workItem, skip bool, err error) {
	lang, ok := sitter.LanguageForFile(path)
	if !ok {
		return workItem{}, true, nil
	}
	if _, ok := declarationsFor(lang); !ok {
		return workItem{}, true, nil
	}
	if ix.languages != nil && !ix.languages[lang] {
		return workItem{}, true, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("read file: %w", err)
	}
	hash := store.ContentHash(content)

	existing, err := ix.store.FileByPath(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		ix.logger.Debug().Str("path", path).Msg("unchanged")
		return workItem{path: path}, true, nil
	}
	if existing != nil {
		if err := ix.store.DeleteFile(existing.ID); err != nil {
			return workItem{}, false, fmt.Errorf("delete old data: %w", err)
		}
	}

	fileID, err := ix.store.InsertFile(&store.File{
		Path:        path,
		Language:    lang,
		Hash:        hash,
		LineCount:   bytes.Count(content, []byte{'\n'}) + 1,
		LastIndexed: time.Now(),
	})
	if err != nil {
		return workItem{}, false, fmt.Errorf("insert file: %w", err)
	}
	return workItem{path: path, lang: lang, fileID: fileID, content: content}, false, nil
}

// extractInto parses one file and extracts its declarations into ds.
func (ix *Indexer) extractInto(ctx context.Context, ds store.DataStore, item workItem) (int, error) {
	tree, err := sitter.Parse(ctx, item.content, item.lang)
	if err != nil {
		return 0, err
	}
	defer tree.Close()
	return extract(ds, tree, item.fileID, ix.logger.With().Str("path", item.path).Logger())
}

func (ix *Indexer) extractSerial(ctx context.Context, items []workItem, settled map[int64]bool, stats *Stats, errs *[]error) error {
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := ix.extractInto(ctx, ix.store, item)
		settled[item.fileID] = true
		if err != nil {
			*errs = append(*errs, ix.fail(item, err))
			continue
		}
		stats.Indexed++
		stats.Symbols += n
	}
	return nil
}

type extractResult struct {
	item    workItem
	batch   *store.BatchedStore
	symbols int
	err     error
}

// extractParallel parses and extracts in a worker pool. Each worker fills a
// BatchedStore, and the calling goroutine is the only one writing to SQLite.
func (ix *Indexer) extractParallel(ctx context.Context, items []workItem, settled map[int64]bool, stats *Stats, errs *[]error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(ix.workers, len(items)))

	results := make(chan extractResult)
	var waitErr error
	go func() {
		for _, item := range items {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				batch := store.NewBatchedStore(ix.store)
				n, err := ix.extractInto(gctx, batch, item)
				select {
				case results <- extractResult{item: item, batch: batch, symbols: n, err: err}:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		waitErr = g.Wait()
		close(results)
	}()

	for res := range results {
		settled[res.item.fileID] = true
		if res.err != nil {
			*errs = append(*errs, ix.fail(res.item, res.err))
			continue
		}
		if err := ix.store.CommitBatch(res.batch); err != nil {
			*errs = append(*errs, ix.fail(res.item, fmt.Errorf("commit: %w", err)))
			continue
		}
		stats.Indexed++
		stats.Symbols += res.symbols
	}
	return waitErr
}

// abandon removes the records of files a cancelled run never extracted, so
// the next run does not mistake them for unchanged.
func (ix *Indexer) abandon(items []workItem, settled map[int64]bool) {
	for _, item := range items {
		if settled[item.fileID] {
			continue
		}
		if err := ix.store.DeleteFile(item.fileID); err != nil {
			ix.logger.Error().Err(err).Str("path", item.path).Msg("cleanup failed")
		}
	}
}

// fail logs a file failure and removes its record so the next run retries
// it instead of treating it as unchanged.
func (ix *Indexer) fail(item workItem, err error) error {
	ix.logger.Warn().Err(err).Str("path", item.path).Msg("extraction failed")
	if derr := ix.store.DeleteFile(item.fileID); derr != nil {
		ix.logger.Error().Err(derr).Str("path", item.path).Msg("cleanup failed")
	}
	return fmt.Errorf("extract %s: %w", item.path, err)
}
