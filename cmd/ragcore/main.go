// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/ragcore"
	"github.com/poiesic/ragcore/config"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/index"
	"github.com/poiesic/ragcore/ingestion"
)

const prompt = "Ask a question (or type exit): "

// opener opens the workspace described by cfg.
type opener func(cfg *config.Config, progress io.Writer) (*ragcore.Workspace, error)

func openWorkspace(cfg *config.Config, progress io.Writer) (*ragcore.Workspace, error) {
	return ragcore.Open(cfg, ragcore.WithProgress(progress))
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp(openWorkspace).RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(open opener) *cli.App {
	queryFlags := []cli.Flag{
		&cli.IntFlag{
			Name:  "k",
			Usage: "Number of chunks to retrieve (default from config)",
		},
		&cli.IntFlag{
			Name:  "max-context-chars",
			Usage: "Character budget for retrieved context (default from config)",
		},
		&cli.BoolFlag{
			Name:  "sources",
			Usage: "Print the chunks used for each answer",
		},
	}

	return &cli.App{
		Name:  "ragcore",
		Usage: "Answer questions from your documents with retrieval-augmented generation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   config.DefaultFile,
			},
			&cli.StringFlag{
				Name:  "index",
				Usage: "Index file (overrides index.path)",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "Document store directory (overrides store.path)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Load, chunk and embed documents into a new index",
				ArgsUsage: "PATH...",
				Action:    withWorkspace(open, ingestCommand),
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Chunk length in characters (default from config)",
					},
					&cli.IntFlag{
						Name:  "overlap",
						Usage: "Characters shared by consecutive chunks (default from config)",
					},
					&cli.StringFlag{
						Name:  "metric",
						Usage: "Similarity metric: cosine or dot (default from config)",
					},
					&cli.BoolFlag{
						Name:  "no-cache",
						Usage: "Do not reuse or store cached embeddings",
					},
				},
			},
			{
				Name:   "query",
				Usage:  "Ask questions interactively; type exit to quit",
				Action: withWorkspace(open, queryCommand),
				Flags:  queryFlags,
			},
			{
				Name:      "ask",
				Usage:     "Answer a single question",
				ArgsUsage: "QUESTION",
				Action:    withWorkspace(open, askCommand),
				Flags:     queryFlags,
			},
			{
				Name:   "reembed",
				Usage:  "Re-embed the saved index with the configured embedding model",
				Action: withWorkspace(open, reembedCommand),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model to switch to (default from config)",
					},
					&cli.BoolFlag{
						Name:  "purge",
						Usage: "Remove cached vectors of the previous model",
					},
				},
			},
			{
				Name:   "inspect",
				Usage:  "Show header and manifest of the saved index",
				Action: withWorkspace(open, inspectCommand),
			},
		},
	}
}

type commandFunc func(c *cli.Context, ws *ragcore.Workspace) error

// withWorkspace loads the configuration, applies environment and flag
// overrides, and opens the workspace for the duration of the command.
func withWorkspace(open opener, fn commandFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load(c.String("config"))
		if err != nil {
			return err
		}
		if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
			return err
		}
		applyFlags(c, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		ws, err := open(cfg, c.App.ErrWriter)
		if err != nil {
			return fmt.Errorf("failed to open workspace: %w", err)
		}
		defer ws.Close()

		return fn(c, ws)
	}
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	if v := c.String("index"); v != "" {
		cfg.Index.Path = v
	}
	if v := c.String("store"); v != "" {
		cfg.Store.Path = v
	}
	if c.IsSet("chunk-size") {
		cfg.Chunking.Size = c.Int("chunk-size")
	}
	if c.IsSet("overlap") {
		cfg.Chunking.Overlap = c.Int("overlap")
	}
	if v := c.String("metric"); v != "" {
		cfg.Index.Metric = v
	}
	if c.Bool("no-cache") {
		cfg.Ingest.Cache = false
	}
	if c.IsSet("k") {
		cfg.Query.K = c.Int("k")
	}
	if c.IsSet("max-context-chars") {
		cfg.Query.MaxContextChars = c.Int("max-context-chars")
	}
	if v := c.String("embedding-model"); v != "" {
		cfg.AI.EmbeddingModel = v
	}
}

func ingestCommand(c *cli.Context, ws *ragcore.Workspace) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file or directory is required")
	}

	result, err := ws.Ingest(c.Context, c.Args().Slice()...)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	printResult(c.App.Writer, ws.IndexPath(), result)
	return nil
}

func reembedCommand(c *cli.Context, ws *ragcore.Workspace) error {
	result, err := ws.Reembed(c.Context, c.Bool("purge"))
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	printResult(c.App.Writer, ws.IndexPath(), result)
	return nil
}

func printResult(w io.Writer, path string, result *ingestion.Result) {
	fmt.Fprintf(w, "Index: %s\n", path)
	fmt.Fprintf(w, "Documents: %d\n", result.Documents)
	fmt.Fprintf(w, "Chunks: %d\n", result.Chunks)
	fmt.Fprintf(w, "Embedded: %d (cache hits: %d)\n", result.Embedded, result.CacheHits)
	fmt.Fprintf(w, "Dimension: %d\n", result.Index.Dimension())
}

func askCommand(c *cli.Context, ws *ragcore.Workspace) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}

	idx, err := ws.LoadIndex()
	if err != nil {
		return err
	}
	engine, err := ws.NewEngine(idx)
	if err != nil {
		return err
	}

	result, err := engine.Ask(c.Context, question)
	if err != nil {
		return err
	}
	printAnswer(c.App.Writer, result, c.Bool("sources"))
	return nil
}

// queryCommand runs the question loop until "exit" or end of input.
func queryCommand(c *cli.Context, ws *ragcore.Workspace) error {
	idx, err := ws.LoadIndex()
	if err != nil {
		return err
	}
	engine, err := ws.NewEngine(idx)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(c.App.Reader)
	out := c.App.Writer
	for {
		fmt.Fprint(out, "\n"+prompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(question, "exit") {
			return nil
		}
		if question == "" {
			continue
		}

		result, err := engine.Ask(c.Context, question)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			// Backend failures are reported and the loop continues.
			slog.Error("query failed", "err", err)
			fmt.Fprintf(c.App.ErrWriter, "Error: %v\n", err)
			continue
		}
		printAnswer(out, result, c.Bool("sources"))
	}
}

func printAnswer(w io.Writer, result *core.QueryResult, sources bool) {
	fmt.Fprintf(w, "\nAnswer:\n %s\n", result.Answer)
	if !sources || len(result.UsedChunks) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSources:")
	for i, chunk := range result.UsedChunks {
		fmt.Fprintf(w, "  %.4f  %s (%s)\n", result.Scores[i], chunk.ID, chunk.DocumentID)
	}
}

func inspectCommand(c *cli.Context, ws *ragcore.Workspace) error {
	header, err := index.ReadHeader(ws.IndexPath())
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Index: %s\n", ws.IndexPath())
	fmt.Fprintf(w, "Format version: %d\n", header.Version)
	fmt.Fprintf(w, "Metric: %s\n", header.Metric)
	fmt.Fprintf(w, "Dimension: %d\n", header.Dimension)
	fmt.Fprintf(w, "Entries: %d\n", header.Count)
	fmt.Fprintf(w, "Body: %d bytes\n", header.BodyLen)
	fmt.Fprintf(w, "Checksum: %s\n", hex.EncodeToString(header.Checksum))

	manifest, err := ws.Manifest(c.Context)
	if err != nil {
		return err
	}
	if manifest == nil {
		fmt.Fprintln(w, "Manifest: none")
		return nil
	}
	fmt.Fprintf(w, "Embedding model: %s\n", manifest.EmbeddingModel)
	fmt.Fprintf(w, "Chunking: size %d, overlap %d\n", manifest.ChunkSize, manifest.Overlap)
	fmt.Fprintf(w, "Documents: %d\n", manifest.Documents)
	fmt.Fprintf(w, "Built: %s\n", manifest.BuiltAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
