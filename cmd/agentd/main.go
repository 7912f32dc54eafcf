// Command agentd serves the conversational agent pipeline: it receives
// inbound conversation events over HTTP, assembles per-agent context, runs
// the bounded tool loop against a completion provider, and hands replies to
// the outbound channel.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"golang.org/x/sync/errgroup"

	"github.com/fitdesk/agentd/pkg/catalog"
	"github.com/fitdesk/agentd/pkg/config"
	"github.com/fitdesk/agentd/pkg/databases"
	"github.com/fitdesk/agentd/pkg/delivery"
	"github.com/fitdesk/agentd/pkg/embedders"
	"github.com/fitdesk/agentd/pkg/knowledge"
	"github.com/fitdesk/agentd/pkg/llms"
	"github.com/fitdesk/agentd/pkg/logger"
	"github.com/fitdesk/agentd/pkg/orchestrator"
	"github.com/fitdesk/agentd/pkg/server"
	"github.com/fitdesk/agentd/pkg/store"
	"github.com/fitdesk/agentd/pkg/tools"
)

var version = "dev"

var cli struct {
	Config  string           `short:"c" default:"agentd.yaml" type:"path" help:"Path to the YAML config file."`
	Version kong.VersionFlag `help:"Print version and exit."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("agentd"),
		kong.Description("Conversational agent orchestrator."),
		kong.Vars{"version": version},
	)

	if err := run(); err != nil {
		slog.Error("Fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	config.LoadEnvFiles()

	cfg, err := config.LoadFromFile(cli.Config)
	if err != nil {
		return err
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	db, err := store.NewSQLStore(&cfg.Store)
	if err != nil {
		return err
	}
	defer db.Close()

	providers := llms.NewProviderRegistry()
	provider, err := providers.CreateFromConfig(llms.DefaultProviderName, &cfg.LLM)
	if err != nil {
		return err
	}
	defer provider.Close()
	slog.Info("Completion provider ready", "type", cfg.LLM.Type, "model", provider.GetModelName())

	retriever, cleanup, err := buildRetriever(&cfg.Retrieval)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	registry, err := tools.NewDefaultRegistry(db)
	if err != nil {
		return err
	}

	deliverer, err := delivery.NewFromConfig(&cfg.Delivery)
	if err != nil {
		return err
	}

	orch := orchestrator.New(db, db, providers, registry, deliverer, cfg.Orchestrator, orchestrator.Options{
		Retriever: retriever,
		Offerings: catalog.NewOfferingsProvider(db),
		Pricing:   catalog.NewPricingProvider(db),
		Schedule:  catalog.NewScheduleProvider(db),
	})

	srv := server.New(orch, retriever, &cfg.Server)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildRetriever wires the embedder and vector store when retrieval is
// configured. A missing embedder credential disables retrieval rather than
// failing startup; agents then answer from structured context alone.
func buildRetriever(cfg *config.RetrievalConfig) (*knowledge.Retriever, func(), error) {
	if cfg.Embedder.APIKey == "" {
		slog.Warn("No embedder credential configured, semantic retrieval disabled")
		return nil, nil, nil
	}

	embedder, err := embedders.NewFromConfig(&cfg.Embedder)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	vectorStore, err := databases.NewFromConfig(&cfg.VectorStore)
	if err != nil {
		embedder.Close()
		return nil, nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	cleanup := func() {
		embedder.Close()
		vectorStore.Close()
	}
	return knowledge.NewRetriever(embedder, vectorStore, cfg), cleanup, nil
}
