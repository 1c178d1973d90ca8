// Package runtime hosts Risor scripts that walk syntax trees and the symbol
// index with the symkit helpers.
package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
	"github.com/rs/zerolog"

	"github.com/jward/symkit/internal/sitter"
	"github.com/jward/symkit/internal/store"
)

// Runtime embeds a Risor VM and exposes tree helpers, and store queries
// when a store is configured, to scripts.
type Runtime struct {
	store      *store.Store
	scriptsDir string
	fsys       fs.FS
	logger     zerolog.Logger

	mu      sync.Mutex
	results []any
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS loads scripts, and resolves their imports, from fsys
// instead of the scripts directory.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithRuntimeLogger sets the logger behind the scripts' log global.
func WithRuntimeLogger(logger zerolog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// NewRuntime creates a Runtime. s may be nil, in which case the store
// globals are not defined.
func NewRuntime(s *store.Store, scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		store:      s,
		scriptsDir: scriptsDir,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunScript loads and executes a Risor script with the standard globals
// plus extraGlobals.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) error {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return err
	}
	return r.eval(ctx, src, scriptPath, extraGlobals)
}

// RunSource executes Risor source directly.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) error {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

// Results returns the values scripts passed to emit, in order.
func (r *Runtime) Results() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.results...)
}

// Reset discards collected results.
func (r *Runtime) Reset() {
	r.mu.Lock()
	r.results = nil
	r.mu.Unlock()
}

func (r *Runtime) emit(v any) {
	r.mu.Lock()
	r.results = append(r.results, v)
	r.mu.Unlock()
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) error {
	sess := &session{}
	defer sess.close()

	globals := r.buildGlobals(sess, extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	r.logger.Debug().Str("script", label).Msg("running script")
	if _, err := risor.Eval(ctx, source, opts...); err != nil {
		return fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return nil
}

// session owns the trees parsed during one evaluation.
type session struct {
	mu    sync.Mutex
	trees []*sitter.Tree
}

func (s *session) track(t *sitter.Tree) {
	s.mu.Lock()
	s.trees = append(s.trees, t)
	s.mu.Unlock()
}

func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.trees {
		t.Close()
	}
	s.trees = nil
}

// buildImporter returns an importer for the configured script source, or
// nil when there is none.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file from the configured fs.FS, or from disk
// relative to the scripts directory.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) && r.scriptsDir != "" {
		fullPath = filepath.Join(r.scriptsDir, path)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

func (r *Runtime) buildGlobals(sess *session, extra map[string]any) map[string]any {
	globals := map[string]any{
		"parse":            makeParseFn(sess),
		"parse_src":        makeParseSrcFn(sess),
		"node_text":        makeNodeTextFn(),
		"node_child":       makeNodeChildFn(),
		"node_children":    makeNodeChildrenFn(),
		"find_descendants": makeFindDescendantsFn(),
		"find_ancestor":    makeFindAncestorFn(),
		"render_node":      makeRenderNodeFn(),
		"emit":             makeEmitFn(r),
		"log":              mustProxy(&logObject{logger: r.logger}),
	}

	if r.store != nil {
		globals["qualified_name"] = makeQualifiedNameFn(r.store, r.logger)
		globals["symbols_by_name"] = makeSymbolsByNameFn(r.store)
		globals["symbols_by_kind"] = makeSymbolsByKindFn(r.store)
		globals["symbol_children"] = makeSymbolChildrenFn(r.store)
	}

	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
