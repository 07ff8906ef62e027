package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/DanyoungYoo/my-chatbot/internal/config"
	"github.com/DanyoungYoo/my-chatbot/internal/knowledge"
	"github.com/DanyoungYoo/my-chatbot/internal/log"
	"github.com/DanyoungYoo/my-chatbot/internal/rag"
)

// newEngine wires the Genkit provider, embedder, and completer into a
// ready-to-serve answer engine. The engine loads and embeds the corpus
// lazily on first use (or via Warmup).
func newEngine(ctx context.Context, cfg *config.Config, logger log.Logger) (*rag.Engine, error) {
	g := genkit.Init(ctx,
		genkit.WithPlugins(&googlegenai.GoogleAI{}),
	)
	if g == nil {
		return nil, errors.New("initializing genkit with googleai provider")
	}
	logger.Info("initialized Genkit with googleai provider",
		"model", cfg.ModelName, "embedder", cfg.EmbedderModel)

	embedder := knowledge.NewEmbedder(googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel))
	completer := rag.NewGenkitCompleter(g, cfg.FullModelName())

	engine := rag.NewEngine(rag.Config{
		CorpusPath:      cfg.CorpusPath,
		ChunkSize:       cfg.ChunkSize,
		ChunkOverlap:    cfg.ChunkOverlap,
		TopK:            cfg.TopK,
		Language:        cfg.Language,
		EmbedTimeout:    cfg.EmbedTimeout(),
		CompleteTimeout: cfg.CompleteTimeout(),
	}, embedder, completer, logger)

	return engine, nil
}

// loadConfig loads and validates configuration for commands that talk to
// the model provider.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}
