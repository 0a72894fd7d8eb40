package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/talent-assistant/agent/agents/orchestrator"
	"github.com/tanpawarit/talent-assistant/agent/agents/specialist"
	"github.com/tanpawarit/talent-assistant/agent/catalog"
	"github.com/tanpawarit/talent-assistant/agent/datastore"
	"github.com/tanpawarit/talent-assistant/agent/llm"
	promptx "github.com/tanpawarit/talent-assistant/agent/prompt"
	"github.com/tanpawarit/talent-assistant/agent/tool"
	"github.com/tanpawarit/talent-assistant/api"
	configx "github.com/tanpawarit/talent-assistant/pkg/config"
	_ "github.com/tanpawarit/talent-assistant/pkg/logger/autoload"
	postgresx "github.com/tanpawarit/talent-assistant/pkg/postgres"
	tracerx "github.com/tanpawarit/talent-assistant/pkg/tracer"
)

type AppConfig struct {
	// ConversationStore is one of none, upstash, redis.
	ConversationStore string `split_words:"true" default:"none"`
	// EventSinks lists where tool events go: qstash, nats.
	EventSinks        []string `split_words:"true"`
	QStashDestination string   `envconfig:"QSTASH_DESTINATION"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal().Err(err).Msg("talent assistant stopped")
	}
}

func run(ctx context.Context) error {
	appCfg := configx.MustNew[AppConfig]("APP")

	tracerCfg := configx.MustNew[tracerx.Config]("TRACER")
	shutdownTracer, err := tracerx.Setup(ctx, *tracerCfg)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	pgCfg := configx.MustNew[postgresx.Config]("DATABASE")
	db := postgresx.MustOpen(*pgCfg)
	defer db.Close()
	if err := postgresx.Ping(ctx, db); err != nil {
		return err
	}
	repo, err := datastore.NewPostgresRepository(db)
	if err != nil {
		return err
	}

	publisher, closeEvents, err := buildPublisher(*appCfg)
	if err != nil {
		return err
	}
	defer closeEvents()

	tools, err := tool.Build(repo, tool.WithEventPublisher(publisher))
	if err != nil {
		return fmt.Errorf("build tools: %w", err)
	}
	prompts, err := promptx.LoadPromptSet()
	if err != nil {
		return err
	}
	cat, err := catalog.New(prompts, tools)
	if err != nil {
		return fmt.Errorf("load agent catalog: %w", err)
	}

	llmCfg := configx.MustNew[llm.Config]("LLM")
	factory, err := llm.NewFactory(*llmCfg, tools.Schema)
	if err != nil {
		return err
	}
	agents, err := specialist.NewRegistry(ctx, cat, factory)
	if err != nil {
		return err
	}

	orchCfg := configx.MustNew[orchestrator.Config]("ORCHESTRATOR")
	orch, err := orchestrator.New(agents, tools, *orchCfg)
	if err != nil {
		return err
	}

	apiCfg := configx.MustNew[api.Config]("API")
	auth, err := buildAuthenticator(*apiCfg)
	if err != nil {
		return err
	}

	var opts []api.Option
	store, closeStore, err := buildConversationStore(ctx, *appCfg)
	if err != nil {
		return err
	}
	defer closeStore()
	if store != nil {
		opts = append(opts, api.WithConversationStore(store))
	}

	server, err := api.New(*apiCfg, cat, orch, auth, opts...)
	if err != nil {
		return err
	}

	log.Info().
		Str("llm_driver", llmCfg.Driver).
		Str("conversation_store", appCfg.ConversationStore).
		Strs("event_sinks", appCfg.EventSinks).
		Msg("talent assistant starting")

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
