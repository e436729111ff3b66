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


package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/poiesic/ragcore/ai"
	"github.com/poiesic/ragcore/core"
)

const (
	// Instruction is the fixed system instruction sent with every question.
	Instruction = "You are a helpful assistant.\n" +
		"Answer ONLY using the context below.\n" +
		"If the answer is not in the context, say \"I don't know\"."

	// NoAnswer is returned instead of calling the generator when no context
	// could be retrieved.
	NoAnswer = "No answer available: no relevant context was found."

	// DefaultK is the default number of chunks retrieved per question.
	DefaultK = 3

	// DefaultMaxContextChars is the default context budget in characters.
	DefaultMaxContextChars = 4000
)

// Retriever is the read side of an index.
type Retriever interface {
	Len() int
	Search(query []float32, k int) ([]core.SearchHit, error)
}

// Engine answers questions from an index. It holds no per-call state and is
// safe for concurrent use as long as the index is not mutated.
type Engine struct {
	retriever       Retriever
	embedder        ai.Embedder
	generator       ai.Generator
	monitor         Monitor
	k               int
	maxContextChars int
	logger          *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithMonitor installs a monitor that observes every Answer call.
func WithMonitor(m Monitor) Option {
	return func(e *Engine) error {
		if m == nil {
			m = &noopMonitor{}
		}
		e.monitor = m
		return nil
	}
}

// WithDefaults sets the k and context budget used by Ask.
func WithDefaults(k, maxContextChars int) Option {
	return func(e *Engine) error {
		if err := validateLimits(k, maxContextChars); err != nil {
			return err
		}
		e.k = k
		e.maxContextChars = maxContextChars
		return nil
	}
}

// NewEngine creates a query engine over retriever.
func NewEngine(retriever Retriever, embedder ai.Embedder, generator ai.Generator, opts ...Option) (*Engine, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	e := &Engine{
		retriever:       retriever,
		embedder:        embedder,
		generator:       generator,
		monitor:         &noopMonitor{},
		k:               DefaultK,
		maxContextChars: DefaultMaxContextChars,
		logger:          slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "query-engine")

	return e, nil
}

// Ask answers question with the engine's default k and context budget.
func (e *Engine) Ask(ctx context.Context, question string) (*core.QueryResult, error) {
	return e.Answer(ctx, question, e.k, e.maxContextChars)
}

// Answer embeds question, retrieves the top k chunks, assembles at most
// maxContextChars characters of context and asks the generator once.
//
// When nothing can be retrieved or no chunk fits the budget, the result
// carries NoAnswer and the generator is not called. Embedder and generator
// failures are wrapped with core.ErrEmbedder and core.ErrGenerator.
func (e *Engine) Answer(ctx context.Context, question string, k, maxContextChars int) (*core.QueryResult, error) {
	if err := validateLimits(k, maxContextChars); err != nil {
		return nil, err
	}

	e.monitor.Start(question)

	if e.retriever.Len() == 0 {
		e.logger.Debug("index is empty, skipping retrieval")
		return e.finish(noAnswer()), nil
	}

	vector, err := e.embedder.EmbedText(ctx, question)
	if err != nil {
		e.logger.Error("error generating embedding for question", "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrEmbedder, err)
	}
	e.monitor.AfterEmbedding(vector)

	hits, err := e.retriever.Search(vector, k)
	if errors.Is(err, core.ErrEmptyIndex) {
		return e.finish(noAnswer()), nil
	}
	if err != nil {
		e.logger.Error("error searching index", "err", err)
		return nil, err
	}
	e.monitor.AfterRetrieval(hits)

	contextText, used := AssembleContext(hits, maxContextChars)
	e.monitor.AfterAssembly(used, utf8.RuneCountInString(contextText))
	if len(used) < len(hits) {
		e.logger.Debug("dropped chunks over context budget",
			"retrieved", len(hits), "used", len(used), "max_context_chars", maxContextChars)
	}
	if len(used) == 0 {
		return e.finish(noAnswer()), nil
	}

	answer, err := e.generator.Generate(ctx, Instruction, contextText, question)
	if err != nil {
		e.logger.Error("error generating answer", "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrGenerator, err)
	}

	result := &core.QueryResult{
		Answer:     answer,
		UsedChunks: make([]core.Chunk, len(used)),
		Scores:     make([]float32, len(used)),
	}
	for i, hit := range used {
		result.UsedChunks[i] = hit.Entry.Chunk
		result.Scores[i] = hit.Score
	}
	return e.finish(result), nil
}

func (e *Engine) finish(result *core.QueryResult) *core.QueryResult {
	e.monitor.Finish(result)
	return result
}

func noAnswer() *core.QueryResult {
	return &core.QueryResult{
		Answer:     NoAnswer,
		UsedChunks: []core.Chunk{},
		Scores:     []float32{},
	}
}

func validateLimits(k, maxContextChars int) error {
	if k < 1 {
		return fmt.Errorf("%w: k must be at least 1, got %d", core.ErrInvalidConfig, k)
	}
	if maxContextChars < 1 {
		return fmt.Errorf("%w: max context chars must be at least 1, got %d", core.ErrInvalidConfig, maxContextChars)
	}
	return nil
}
