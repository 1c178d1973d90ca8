package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jward/symkit/internal/index"
	"github.com/jward/symkit/internal/store"
)

func main() {
	a := newApp(os.Stdout, os.Stderr)
	if err := a.root().Execute(); err != nil {
		if !a.errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

// app carries the state shared by every command of one invocation.
type app struct {
	v      *viper.Viper
	logger zerolog.Logger
	stdout io.Writer
	stderr io.Writer

	// errorHandled is set by outputError so main doesn't print twice.
	errorHandled bool
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		v:      viper.New(),
		logger: zerolog.Nop(),
		stdout: stdout,
		stderr: stderr,
	}
}

func (a *app) root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "symkit",
		Short:         "Syntax-tree search and qualified symbol names",
		Long:          "symkit searches tree-sitter syntax trees, renders nodes as normalized text and indexes declarations with their fully-qualified metadata names.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure(cmd)
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	pf := cmd.PersistentFlags()
	pf.String("db", "", "database path (default: .symkit/index.db relative to repo root)")
	pf.String("format", "json", "output format: json|text")
	pf.String("log-level", "warn", "log level: trace|debug|info|warn|error")
	pf.String("config", "", "config file (default: .symkit.yaml in the working directory)")

	cmd.AddCommand(
		a.indexCmd(),
		a.namesCmd(),
		a.findCmd(),
		a.ancestorCmd(),
		a.renderCmd(),
		a.goNamesCmd(),
		a.runCmd(),
	)
	return cmd
}

// configure binds flags, SYMKIT_* environment variables and the optional
// config file, then builds the logger.
func (a *app) configure(cmd *cobra.Command) error {
	v := a.v
	v.SetEnvPrefix("SYMKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".symkit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	if err := validateFormat(v.GetString("format")); err != nil {
		return err
	}
	level, err := zerolog.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", v.GetString("log-level"), err)
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: a.stderr, NoColor: true, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
	return nil
}

func (a *app) format() string { return a.v.GetString("format") }

func (a *app) indexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index declarations and their qualified names",
		Long:  "Parses source files with tree-sitter, extracts declarations and writes them to the SQLite database.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runIndex,
	}
	cmd.Flags().Bool("force", false, "delete database and reindex from scratch")
	cmd.Flags().StringSlice("languages", nil, "language filter (e.g. go,typescript)")
	cmd.Flags().StringSlice("include", nil, "doublestar globs relative to the indexed directory")
	cmd.Flags().Bool("serial", false, "extract files one at a time")
	cmd.Flags().Int("workers", 0, "parallel extraction workers (default: number of CPUs)")
	return cmd
}

func (a *app) runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return a.outputError("index", err)
	}
	dbPath := a.resolveDBPath(findRepoRoot(targetDir))
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return a.outputError("index", fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err))
	}

	if a.v.GetBool("force") {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return a.outputError("index", fmt.Errorf("removing database for --force: %w", err))
		}
		a.logger.Info().Str("db", dbPath).Msg("cleared database")
	}

	s, err := openStore(dbPath)
	if err != nil {
		return a.outputError("index", err)
	}
	defer s.Close()

	opts := []index.Option{
		index.WithLogger(a.logger),
		index.WithParallel(!a.v.GetBool("serial")),
		index.WithWorkers(a.v.GetInt("workers")),
	}
	if langs := splitList(a.v.GetStringSlice("languages")); len(langs) > 0 {
		opts = append(opts, index.WithLanguages(langs...))
	}
	if globs := splitList(a.v.GetStringSlice("include")); len(globs) > 0 {
		opts = append(opts, index.WithInclude(globs...))
	}
	ix, err := index.New(s, opts...)
	if err != nil {
		return a.outputError("index", err)
	}

	stats, indexErr := ix.IndexDirectory(context.Background(), targetDir)
	if indexErr != nil && stats.Indexed == 0 && stats.Unchanged == 0 {
		return a.outputError("index", fmt.Errorf("indexing: %w", indexErr))
	}
	if indexErr != nil {
		a.logger.Warn().Err(indexErr).Msg("some files failed")
	}

	return a.outputResult(CLIResult{
		Command: "index",
		Results: CLIIndexStats{
			Root:      targetDir,
			Database:  dbPath,
			Indexed:   stats.Indexed,
			Unchanged: stats.Unchanged,
			Failed:    stats.Failed,
			Symbols:   stats.Symbols,
			Duration:  time.Since(start).Round(time.Millisecond).String(),
		},
	})
}

// openStore opens and migrates the database at dbPath.
func openStore(dbPath string) (*store.Store, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// openExistingStore opens the index for the working directory's repo.
func (a *app) openExistingStore() (*store.Store, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	dbPath := a.resolveDBPath(findRepoRoot(cwd))
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'symkit index' first)", dbPath)
	}
	return openStore(dbPath)
}

// splitList flattens comma-separated values, which arrive unsplit from
// the environment and config file.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// resolveTargetDir returns the absolute path of the directory to index.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from --db or the default.
func (a *app) resolveDBPath(repoRoot string) string {
	if db := a.v.GetString("db"); db != "" {
		if filepath.IsAbs(db) {
			return db
		}
		return filepath.Join(repoRoot, db)
	}
	return filepath.Join(repoRoot, ".symkit", "index.db")
}
