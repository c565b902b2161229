package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/newsdesk/internal/agent"
	"github.com/sells-group/newsdesk/internal/config"
	"github.com/sells-group/newsdesk/internal/pipeline"
	"github.com/sells-group/newsdesk/internal/sink"
	"github.com/sells-group/newsdesk/internal/store"
	anthropicpkg "github.com/sells-group/newsdesk/pkg/anthropic"
	"github.com/sells-group/newsdesk/pkg/feed"
	"github.com/sells-group/newsdesk/pkg/gemini"
	"github.com/sells-group/newsdesk/pkg/newsapi"
)

// pipelineEnv holds the store, stages and pipeline needed by the run and
// serve commands.
type pipelineEnv struct {
	Store    store.Store // may be nil
	Pipeline *pipeline.Pipeline
	closers  []func()
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	for i := len(pe.closers) - 1; i >= 0; i-- {
		pe.closers[i]()
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline wires the provider, text service, stages, sink and store
// from cfg. A missing store, provider or text service degrades the pipeline
// instead of failing it. Callers should defer env.Close().
func initPipeline(ctx context.Context, cfg *config.Config) (*pipelineEnv, error) {
	env := &pipelineEnv{}

	text, err := initTextService(ctx, cfg, env)
	if err != nil {
		env.Close()
		return nil, err
	}

	stageOpts := []agent.EnricherOption{
		agent.WithCallTimeout(time.Duration(cfg.Pipeline.StageTimeoutSecs) * time.Second),
		agent.WithConcurrency(cfg.Pipeline.BatchConcurrency),
	}
	ingester := agent.NewIngester(initProvider(cfg))
	ingester.SetSink(initSink(ctx, cfg, env))
	summarizer := agent.NewSummarizer(text, stageOpts...)
	factChecker := agent.NewFactChecker(text, agent.WithEnricherOptions(stageOpts...))

	env.Store = initStore(ctx, cfg)
	env.Pipeline = pipeline.New(ingester, summarizer, factChecker, env.Store)
	return env, nil
}

// initStore opens and migrates the configured store. When the database is
// unreachable at startup the store is kept and migrated once a run's Ping
// reaches it. Only an Open failure leaves the pipeline buffering in memory.
func initStore(ctx context.Context, cfg *config.Config) store.Store {
	if cfg.Store.DatabaseURL == "" {
		zap.L().Warn("store.database_url not set, articles are kept in memory")
		return nil
	}
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		zap.L().Warn("store unavailable, articles are kept in memory",
			zap.String("driver", cfg.Store.Driver),
			zap.Error(err),
		)
		return nil
	}
	if err := st.Migrate(ctx); err != nil {
		zap.L().Warn("store migration failed, retrying on next run", zap.Error(err))
		return store.NewDeferredMigration(st)
	}
	return st
}

// initProvider picks NewsAPI when a key is set, then RSS feeds, else none.
func initProvider(cfg *config.Config) agent.HeadlineProvider {
	switch {
	case cfg.NewsAPI.Key != "":
		zap.L().Info("headline provider: newsapi")
		return newsapi.NewClient(cfg.NewsAPI.Key,
			newsapi.WithBaseURL(cfg.NewsAPI.BaseURL),
			newsapi.WithRateLimit(cfg.NewsAPI.RatePerSec),
		)
	case len(cfg.Feed.URLs) > 0:
		zap.L().Info("headline provider: rss", zap.Int("feeds", len(cfg.Feed.URLs)))
		return feed.NewProvider(cfg.Feed.URLs)
	default:
		zap.L().Warn("NEWSDESK_NEWSAPI_KEY and feed.urls not set, using placeholder articles")
		return nil
	}
}

// initTextService builds the configured LLM backend. No key means no
// service, and the stages use their fallbacks.
func initTextService(ctx context.Context, cfg *config.Config, env *pipelineEnv) (agent.TextService, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		if cfg.Gemini.Key == "" {
			zap.L().Warn("NEWSDESK_GEMINI_KEY not set, enrichment uses fallbacks")
			return nil, nil
		}
		svc, err := gemini.NewTextService(ctx, cfg.Gemini.Key, cfg.Gemini.Model)
		if err != nil {
			return nil, eris.Wrap(err, "init gemini")
		}
		env.closers = append(env.closers, func() { _ = svc.Close() })
		return svc, nil
	case "anthropic", "":
		if cfg.Anthropic.Key == "" {
			zap.L().Warn("NEWSDESK_ANTHROPIC_KEY not set, enrichment uses fallbacks")
			return nil, nil
		}
		return anthropicpkg.NewTextService(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model), nil
	default:
		return nil, eris.Errorf("unsupported llm provider: %s", cfg.LLM.Provider)
	}
}

// initSink publishes loop batches to Redis when configured and always logs
// them.
func initSink(ctx context.Context, cfg *config.Config, env *pipelineEnv) agent.Sink {
	if cfg.Redis.Addr == "" {
		return sink.LogSink{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		zap.L().Warn("redis unavailable, loop batches are only logged",
			zap.String("addr", cfg.Redis.Addr),
			zap.Error(err),
		)
		_ = client.Close()
		return sink.LogSink{}
	}

	env.closers = append(env.closers, func() { _ = client.Close() })
	zap.L().Info("loop sink: redis", zap.String("channel", cfg.Redis.Channel))
	return sink.Multi{sink.LogSink{}, sink.NewRedisSink(client, cfg.Redis.Channel)}
}
