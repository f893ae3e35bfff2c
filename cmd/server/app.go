package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"francechallenges.com/sales-assistant/internal/config"
	"francechallenges.com/sales-assistant/internal/knowledge"
	"francechallenges.com/sales-assistant/internal/ledger"
	"francechallenges.com/sales-assistant/internal/llm"
	"francechallenges.com/sales-assistant/internal/pricing"
	"francechallenges.com/sales-assistant/internal/store"
)

// app holds the clients shared by the subcommands.
type app struct {
	cfg       *config.Config
	kb        *store.SQLiteStore
	ledgerDB  *store.SQLiteStore
	gemini    *llm.GeminiClient
	completer llm.Completer
	writer    *ledger.AsyncWriter
	meter     *ledger.Meter
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	kb, err := store.NewSQLiteStore(cfg.KnowledgeBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}
	a.kb = kb
	a.ledgerDB = kb
	if cfg.LedgerDatabaseURL != cfg.KnowledgeBaseURL {
		if a.ledgerDB, err = store.NewSQLiteStore(cfg.LedgerDatabaseURL); err != nil {
			kb.Close()
			return nil, fmt.Errorf("failed to open ledger database: %w", err)
		}
	}

	if a.gemini, err = llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel, cfg.TokenCountModel); err != nil {
		a.closeStores()
		return nil, err
	}
	openai, err := llm.NewOpenAICompleter(ctx, llm.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.KnowledgeBaseModel,
	})
	if err != nil {
		a.gemini.Close()
		a.closeStores()
		return nil, err
	}
	a.completer = &llm.Mux{Default: openai, Gemini: a.gemini}

	a.writer = ledger.NewAsyncWriter(a.ledgerDB, cfg.LedgerBuffer)
	a.meter = ledger.NewMeter(pricing.Default, a.writer)
	return a, nil
}

// index loads the configured collection into memory.
func (a *app) index(ctx context.Context) (*knowledge.Index, error) {
	ix := knowledge.NewIndex(a.kb, a.cfg.KnowledgeBaseCollection)
	if err := ix.Reload(ctx); err != nil {
		return nil, err
	}
	if ix.Len() == 0 {
		log.Warn().Str("collection", a.cfg.KnowledgeBaseCollection).Msg("knowledge base is empty, every question will go through the relevance check")
	}
	return ix, nil
}

// Close drains the ledger before releasing the clients.
func (a *app) Close(ctx context.Context) {
	if err := a.writer.Close(ctx); err != nil {
		log.Error().Err(err).Msg("ledger did not drain before shutdown")
	}
	a.gemini.Close()
	a.closeStores()
}

func (a *app) closeStores() {
	if a.ledgerDB != a.kb {
		a.ledgerDB.Close()
	}
	a.kb.Close()
}
