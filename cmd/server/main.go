package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ckirubhananth/Agent-Sangam/internal/api"
	"github.com/ckirubhananth/Agent-Sangam/internal/config"
	"github.com/ckirubhananth/Agent-Sangam/internal/entity"
	"github.com/ckirubhananth/Agent-Sangam/internal/history"
	"github.com/ckirubhananth/Agent-Sangam/internal/index"
	"github.com/ckirubhananth/Agent-Sangam/internal/llm"
	"github.com/ckirubhananth/Agent-Sangam/internal/pipeline"
	"github.com/ckirubhananth/Agent-Sangam/internal/retrieval"
	"github.com/ckirubhananth/Agent-Sangam/internal/segment"
	"github.com/ckirubhananth/Agent-Sangam/internal/service"
	"github.com/ckirubhananth/Agent-Sangam/internal/storage"
	"github.com/ckirubhananth/Agent-Sangam/internal/store"
	"github.com/ckirubhananth/Agent-Sangam/internal/summary"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Optional .env for local development.
	if err := godotenv.Load(); err == nil {
		log.Info("loaded .env")
	}

	cfg := config.Load()

	blobs, err := storage.NewDiskStore(cfg.UploadDir)
	if err != nil {
		log.Error("init upload storage", "error", err)
		os.Exit(1)
	}

	docs := store.New()
	tasks := pipeline.NewTaskStore()
	runner := pipeline.NewRunner(docs, tasks, pipeline.Deps{
		Extractor: pipeline.FileExtractor{},
		Segmenter: segment.NewSegmenter(cfg.SegmentSentences),
		Summary:   summary.NewSummarizer(cfg.SummarySentences),
		Indexer:   index.Builder{},
		Entities:  entity.NewScanner(),
	}, log, cfg.StageTimeout)

	histories := history.NewStore(cfg.HistoryTurns)
	engine := retrieval.NewEngine(retrieval.TermOverlap{}, cfg.ContextBudget)
	generator := llm.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)

	core := service.New(docs, tasks, runner, blobs, histories, engine, generator, log, service.Options{
		SnippetRadius: cfg.SnippetRadius,
	})

	srv := api.NewServer(core, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		runner.Wait()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting server", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
