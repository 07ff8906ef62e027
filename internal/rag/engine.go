// Package rag wires corpus loading, chunking, embedding, retrieval and
// completion into the answer pipeline behind POST /api/chat.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/DanyoungYoo/my-chatbot/internal/corpus"
	"github.com/DanyoungYoo/my-chatbot/internal/knowledge"
	"github.com/DanyoungYoo/my-chatbot/internal/log"
)

// ErrNotReady indicates the engine failed to initialize; the next request
// will retry initialization from scratch.
var ErrNotReady = errors.New("model not ready")

// Config holds the engine's corpus and retrieval parameters.
type Config struct {
	CorpusPath   string
	ChunkSize    int
	ChunkOverlap int
	TopK         int

	// Language the model is instructed to answer in. Empty means Korean.
	Language string

	// Per-call budgets for the external services. Both calls cross a network
	// boundary with no local fallback, so they must not hang a request.
	EmbedTimeout    time.Duration
	CompleteTimeout time.Duration
}

// Engine owns the lazily-built vector index and answers questions over it.
//
// Initialization runs on the first request, guarded by a singleflight group:
// concurrent first requests share one corpus→chunk→embed→index attempt
// instead of each triggering its own embedding batch. A failed attempt leaves
// the engine uninitialized, so the next request retries. Once built, the
// index is immutable and the ready check is a read-lock fast path.
type Engine struct {
	cfg       Config
	embedder  *knowledge.Embedder
	completer Completer
	logger    log.Logger

	initGroup singleflight.Group

	mu    sync.RWMutex
	index *knowledge.Index // nil until initialization succeeds
}

// NewEngine creates an engine. Initialization is deferred to the first call
// of Answer (or Warmup).
func NewEngine(cfg Config, embedder *knowledge.Embedder, completer Completer, logger log.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		embedder:  embedder,
		completer: completer,
		logger:    logger,
	}
}

// Ready reports whether the index has been built.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index != nil
}

// Warmup runs initialization eagerly. Optional: the engine initializes
// itself on the first question either way.
func (e *Engine) Warmup(ctx context.Context) error {
	return e.ensureReady(ctx)
}

// ensureReady builds the index once. Late arrivals during an in-flight build
// await its result rather than starting their own.
func (e *Engine) ensureReady(ctx context.Context) error {
	if e.Ready() {
		return nil
	}

	_, err, _ := e.initGroup.Do("init", func() (any, error) {
		// A caller that lost the race to a just-finished build skips the work.
		if e.Ready() {
			return nil, nil
		}
		return nil, e.initialize(ctx)
	})
	return err
}

// initialize runs the one-time pipeline: load corpus, split into overlapping
// chunks, embed them in one batch, build the index.
func (e *Engine) initialize(ctx context.Context) error {
	start := time.Now()

	text, err := corpus.Load(e.cfg.CorpusPath)
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}

	splitter := corpus.NewSplitter(e.cfg.ChunkSize, e.cfg.ChunkOverlap)
	chunks := splitter.Split(text)
	if len(chunks) == 0 {
		return fmt.Errorf("corpus %s produced no chunks", e.cfg.CorpusPath)
	}

	embedCtx, cancel := context.WithTimeout(ctx, e.cfg.EmbedTimeout)
	defer cancel()

	vectors, err := e.embedder.Embed(embedCtx, chunks)
	if err != nil {
		return fmt.Errorf("embedding corpus: %w", err)
	}

	segments := make([]knowledge.Segment, len(chunks))
	for i, c := range chunks {
		segments[i] = knowledge.Segment{Text: c}
	}

	index, err := knowledge.BuildIndex(segments, vectors)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	e.mu.Lock()
	e.index = index
	e.mu.Unlock()

	e.logger.Info("RAG engine ready",
		"corpus", e.cfg.CorpusPath,
		"segments", index.Len(),
		"duration", time.Since(start))
	return nil
}

// Retrieve returns the top-k segments most similar to the question.
func (e *Engine) Retrieve(ctx context.Context, question string) ([]knowledge.Segment, error) {
	if err := e.ensureReady(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotReady, err)
	}

	e.mu.RLock()
	index := e.index
	e.mu.RUnlock()

	embedCtx, cancel := context.WithTimeout(ctx, e.cfg.EmbedTimeout)
	defer cancel()

	queryVec, err := e.embedder.EmbedQuery(embedCtx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	return index.Retrieve(queryVec, e.cfg.TopK), nil
}

// Answer runs the full pipeline for one question: ensure the index exists,
// retrieve context, assemble the prompt, and complete. An empty completion
// degrades to the fixed apology instead of an error.
func (e *Engine) Answer(ctx context.Context, question string) (string, error) {
	segments, err := e.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}

	prompt := formatPrompt(e.cfg.Language, buildContext(segments), question)

	completeCtx, cancel := context.WithTimeout(ctx, e.cfg.CompleteTimeout)
	defer cancel()

	answer, err := e.completer.Complete(completeCtx, prompt)
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}

	if strings.TrimSpace(answer) == "" {
		e.logger.Warn("completion service returned empty response, using fallback answer")
		return fallbackAnswer, nil
	}
	return answer, nil
}
