package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"francechallenges.com/sales-assistant/internal/api"
	"francechallenges.com/sales-assistant/internal/core"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	index, err := a.index(ctx)
	if err != nil {
		a.Close(ctx)
		return err
	}

	orchestrator := core.NewOrchestrator(
		core.NewSimilarityRouter(a.gemini, index, a.meter),
		core.NewRelevanceClassifier(a.completer, a.meter, cfg.ClassifierModel),
		core.NewKnowledgeBaseResponder(a.completer, a.meter, cfg.KnowledgeBaseModel),
		core.NewWebSearchResponder(a.completer, a.meter, cfg.WebSearchModel),
		cfg.ClassifierModel,
	)
	router := api.NewRouter(api.NewAPIHandler(orchestrator, a.ledgerDB))

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // web search completions can take a while
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", serverAddr).Int("passages", index.Len()).Msg("starting server, press Ctrl+C to quit")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	case err, ok := <-serveErr:
		if ok {
			a.Close(context.Background())
			return fmt.Errorf("could not listen on %s: %w", serverAddr, err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	a.Close(shutdownCtx)
	log.Info().Msg("server exited gracefully")
	return nil
}
