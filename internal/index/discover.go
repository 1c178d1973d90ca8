package index

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/jward/symkit/internal/sitter"
)

var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

// IndexDirectory indexes every supported file under root. Inside a git work
// tree the file list comes from git ls-files, which honours every ignore
// source git knows about. Elsewhere the tree is walked, skipping hidden and
// dependency directories and whatever root's .gitignore excludes.
func (ix *Indexer) IndexDirectory(ctx context.Context, root string) (Stats, error) {
	rel, err := ix.gitListFiles(ctx, root)
	if err != nil {
		ix.logger.Debug().Err(err).Str("root", root).Msg("git unavailable, walking")
		rel, err = ix.walkListFiles(root)
		if err != nil {
			return Stats{}, err
		}
	}

	var paths []string
	for _, r := range rel {
		if !ix.included(filepath.ToSlash(r)) {
			continue
		}
		path := filepath.Join(root, r)
		if _, ok := sitter.LanguageForFile(path); ok {
			paths = append(paths, path)
		}
	}
	ix.logger.Debug().Str("root", root).Int("files", len(paths)).Msg("discovered")
	return ix.indexFiles(ctx, paths)
}

// gitListFiles returns tracked and untracked, non-ignored files relative to
// root.
func (ix *Indexer) gitListFiles(ctx context.Context, root string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var out []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, filepath.FromSlash(line))
		}
	}
	return out, nil
}

// walkListFiles walks root and returns file paths relative to it.
func (ix *Indexer) walkListFiles(root string) ([]string, error) {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read .gitignore: %w", err)
		}
		gi = nil
	}

	var out []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		slashed := filepath.ToSlash(rel)
		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				return filepath.SkipDir
			}
			if gi != nil && gi.MatchesPath(slashed+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if gi != nil && gi.MatchesPath(slashed) {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return out, nil
}
