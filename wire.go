package main

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
	"github.com/tanpawarit/talent-assistant/agent/events"
	"github.com/tanpawarit/talent-assistant/agent/state"
	"github.com/tanpawarit/talent-assistant/api"
	configx "github.com/tanpawarit/talent-assistant/pkg/config"
	natsx "github.com/tanpawarit/talent-assistant/pkg/natsx"
	qstashx "github.com/tanpawarit/talent-assistant/pkg/qstash"
)

func buildPublisher(appCfg AppConfig) (contractx.EventPublisher, func(), error) {
	var (
		sinks   events.Multi
		closers []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	for _, sink := range appCfg.EventSinks {
		switch strings.ToLower(strings.TrimSpace(sink)) {
		case "":
		case "qstash":
			qCfg := configx.MustNew[qstashx.Config]("QSTASH")
			client, err := qstashx.NewClient(*qCfg)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			pub, err := events.NewQStashPublisher(client, appCfg.QStashDestination)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			sinks = append(sinks, pub)
		case "nats":
			nCfg := configx.MustNew[natsx.Config]("NATS")
			client, err := natsx.Connect(*nCfg)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			closers = append(closers, client.Close)
			pub, err := events.NewNATSPublisher(client, nCfg.Subject)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			sinks = append(sinks, pub)
		default:
			closeAll()
			return nil, nil, fmt.Errorf("unknown event sink %q", sink)
		}
	}

	if len(sinks) == 0 {
		return events.Noop{}, closeAll, nil
	}
	return sinks, closeAll, nil
}

func buildConversationStore(ctx context.Context, appCfg AppConfig) (contractx.ConversationStore, func(), error) {
	noop := func() {}
	switch strings.ToLower(strings.TrimSpace(appCfg.ConversationStore)) {
	case "", "none":
		return nil, noop, nil
	case "upstash":
		cfg := configx.MustNew[state.UpstashRedisConfig]("UPSTASH_REDIS")
		store, err := state.NewUpstashRedisStore(*cfg)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case "redis":
		cfg := configx.MustNew[state.RedisConfig]("REDIS")
		store, err := state.NewRedisStore(ctx, *cfg)
		if err != nil {
			return nil, noop, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown conversation store %q", appCfg.ConversationStore)
	}
}

func buildAuthenticator(apiCfg api.Config) (api.Authenticator, error) {
	var chain api.ChainAuthenticator
	if len(apiCfg.StaticTokens) > 0 {
		chain = append(chain, api.NewStaticTokenAuthenticator(apiCfg.StaticTokens))
	}

	authCfg := configx.MustNew[api.AuthConfig]("SUPABASE")
	if strings.TrimSpace(authCfg.URL) != "" {
		supabase, err := api.NewSupabaseAuthenticator(*authCfg, nil)
		if err != nil {
			return nil, err
		}
		chain = append(chain, supabase)
	}

	if len(chain) == 0 {
		return nil, fmt.Errorf("no authenticator configured: set SUPABASE_URL or API_STATIC_TOKENS")
	}
	return chain, nil
}
