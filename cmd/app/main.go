package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
	"github.com/starford/ansuz/internal/agentctx"
	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/snapshot"
	"github.com/starford/ansuz/internal/storage"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if ws := cmd.String("workspace"); ws != "" {
		cfg.Workspace.Path = ws
	}
	if globs := cmd.StringSlice("glob"); len(globs) > 0 {
		cfg.Workspace.Globs = globs
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// cliLogger writes JSON logs to stderr so command output on stdout stays
// machine-readable.
func cliLogger(cfg *internal.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

func buildRepo(ctx context.Context, cmd *cli.Command) (*internal.Config, storage.Provider, *graph.Repo, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := storage.NewWorkspace(cfg.Workspace.Path)
	if err != nil {
		return nil, nil, nil, err
	}
	repo, err := graph.Load(ctx, store, cfg.Workspace.Globs, cliLogger(cfg))
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, store, repo, nil
}

func outputWriter(cmd *cli.Command) (io.Writer, func() error, error) {
	path := cmd.String("output")
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}

func writeJSONTo(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runLoad(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// Positional arguments are extra glob patterns.
	if args := cmd.Args().Slice(); len(args) > 0 {
		cfg.Workspace.Globs = args
	}
	store, err := storage.NewWorkspace(cfg.Workspace.Path)
	if err != nil {
		return err
	}
	repo, err := graph.Load(ctx, store, cfg.Workspace.Globs, cliLogger(cfg))
	if err != nil {
		return err
	}

	if db := cmd.String("dump-db"); db != "" {
		if err := snapshot.Export(db, repo); err != nil {
			return err
		}
	}

	if cmd.Bool("dump") {
		return writeJSONTo(os.Stdout, repo)
	}

	fmt.Printf("documents:  %d\n", len(repo.Documents))
	fmt.Printf("operations: %d\n", len(repo.Operations))
	fmt.Printf("localdefs:  %d\n", len(repo.LocalDefs))
	fmt.Printf("edges:      %d\n", len(repo.Edges))
	fmt.Printf("warnings:   %d\n", len(repo.Warnings))
	for _, warn := range repo.Warnings {
		fmt.Printf("  %s: %s\n", warn.File, warn.Message)
	}
	return nil
}

func runContext(ctx context.Context, cmd *cli.Command) error {
	cfg, _, repo, err := buildRepo(ctx, cmd)
	if err != nil {
		return err
	}

	opts := agentctx.Options{
		MaxDefChars:     cfg.Context.MaxDefChars,
		IncludeChildren: cfg.Context.IncludeChildren,
	}
	if cmd.IsSet("max-def-chars") {
		opts.MaxDefChars = int(cmd.Int("max-def-chars"))
	}
	if cmd.IsSet("include-children") {
		opts.IncludeChildren = cmd.Bool("include-children")
	}

	w, closeFn, err := outputWriter(cmd)
	if err != nil {
		return err
	}
	defer closeFn() //nolint:errcheck // close error only matters for writes below

	if ref := cmd.Args().First(); ref != "" {
		payload, err := agentctx.Build(repo, ref, opts)
		if err != nil {
			return err
		}
		return writeJSONTo(w, payload)
	}

	// No ref given: build the context of every operation in the corpus.
	all := make(map[string]*agentctx.Payload)
	for _, op := range repo.OperationList() {
		payload, err := agentctx.Build(repo, op.ID, opts)
		if err != nil {
			return fmt.Errorf("build context for %s: %w", op.ID, err)
		}
		all[op.ID] = payload
	}
	return writeJSONTo(w, all)
}

func runGraph(ctx context.Context, cmd *cli.Command) error {
	_, _, repo, err := buildRepo(ctx, cmd)
	if err != nil {
		return err
	}

	w, closeFn, err := outputWriter(cmd)
	if err != nil {
		return err
	}
	defer closeFn() //nolint:errcheck

	switch format := cmd.String("format"); format {
	case "dot":
		return repo.WriteDOT(w)
	case "json", "":
		return writeJSONTo(w, map[string]any{
			"concepts": repo.Concepts,
			"edges":    repo.Edges,
		})
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, store, repo, err := buildRepo(ctx, cmd)
	if err != nil {
		return err
	}
	svc := api.NewService(store, cfg.Workspace.Globs, repo, cliLogger(cfg))
	svc.SetContextDefaults(cfg.Context.MaxDefChars, cfg.Context.IncludeChildren)
	return mcpserver.New(svc, store).ServeStdio()
}

func main() {
	workspaceFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to config file",
			Value:   "config/config.yaml",
			Sources: cli.EnvVars("APP_CONFIG_FILE"),
		},
		&cli.StringFlag{
			Name:    "workspace",
			Aliases: []string{"w"},
			Usage:   "Workspace root directory",
			Sources: cli.EnvVars("ANSUZ_WORKSPACE"),
		},
		&cli.StringSliceFlag{
			Name:  "glob",
			Usage: "File glob pattern (repeatable)",
		},
	}
	outputFlag := &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output file (default stdout)",
	}

	cmd := &cli.Command{
		Name:  "ansuz",
		Usage: "Document graph builder and execution-context resolver for structured Markdown workspaces",
		Commands: []*cli.Command{
			{
				Name:      "load",
				Usage:     "Build the document graph and report a summary",
				ArgsUsage: "[glob]...",
				Action:    runLoad,
				Flags: append([]cli.Flag{
					&cli.BoolFlag{
						Name:  "dump",
						Usage: "Print the full repo as JSON",
					},
					&cli.StringFlag{
						Name:  "dump-db",
						Usage: "Export the repo to a SQLite file at this path",
					},
				}, workspaceFlags...),
			},
			{
				Name:      "context",
				Usage:     "Resolve the execution context of an operation (all operations when no ref is given)",
				ArgsUsage: "[ref]",
				Action:    runContext,
				Flags: append([]cli.Flag{
					outputFlag,
					&cli.IntFlag{
						Name:  "max-def-chars",
						Usage: "Trim each definition to this many characters (0 disables)",
					},
					&cli.BoolFlag{
						Name:  "include-children",
						Usage: "Collect references from nested sections too",
					},
				}, workspaceFlags...),
			},
			{
				Name:   "graph",
				Usage:  "Emit the concept graph",
				Action: runGraph,
				Flags: append([]cli.Flag{
					outputFlag,
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: json or dot",
						Value:   "json",
					},
				}, workspaceFlags...),
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: runServe,
				Flags:  workspaceFlags,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio",
				Action: runMCP,
				Flags:  workspaceFlags,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
