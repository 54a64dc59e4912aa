// File: internal/service/app.go
// Package service assembles the application components behind one explicit
// context object with init and teardown, replacing ambient global state.
package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/graphchat/text2cypher/api/schemas"
	"github.com/graphchat/text2cypher/internal/accounts"
	"github.com/graphchat/text2cypher/internal/chatbot"
	"github.com/graphchat/text2cypher/internal/config"
	"github.com/graphchat/text2cypher/internal/conversation"
	"github.com/graphchat/text2cypher/internal/graphdb"
	"github.com/graphchat/text2cypher/internal/llmclient"
	"github.com/graphchat/text2cypher/internal/pipeline"
)

// AppContext holds every long-lived component and owns their lifecycle.
// Components that failed to initialize in a survivable way are nil; the HTTP
// layer maps nil components onto 503 responses instead of refusing to boot.
type AppContext struct {
	Cfg    config.Interface
	Logger *zap.Logger

	DBPool        *pgxpool.Pool
	Conversations *conversation.Store
	Users         *accounts.Store
	Auth          *accounts.Authenticator

	Driver     neo4j.DriverWithContext
	Executor   *graphdb.Executor
	SchemaText string

	LLM      schemas.LLMClient
	Flow     *pipeline.Flow
	Chat     chatbot.Strategy
	Chatbot  *chatbot.Service
	Rewriter *chatbot.Rewriter
}

// Build performs the full dependency wiring. Postgres and LLM failures
// degrade the corresponding surfaces rather than aborting startup; only
// configuration that makes the process meaningless is fatal.
func Build(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*AppContext, error) {
	app := &AppContext{Cfg: cfg, Logger: logger}

	// 1. Graph store (optional). An unconfigured graph runs degraded.
	driver, err := graphdb.Connect(cfg.Neo4j())
	if err != nil {
		return nil, fmt.Errorf("failed to create graph driver: %w", err)
	}
	app.Driver = driver
	app.Executor = graphdb.NewExecutor(driver, cfg.Neo4j().Database, logger)
	if driver == nil {
		logger.Warn("Neo4j not configured; running with default schema and empty query results")
	}

	// 2. Schema snapshot, cached once at startup. Snapshot failure is
	// survivable: downstream stages still need non-empty schema text.
	schemaText, err := app.Executor.SchemaSnapshot(ctx)
	if err != nil {
		logger.Warn("Schema snapshot failed; using default schema", zap.Error(err))
		schemaText = graphdb.DefaultSchema
	}
	app.SchemaText = schemaText
	logger.Debug("Schema snapshot loaded", zap.Int("length", len(schemaText)))

	// 3. Relational stores (optional).
	if url := cfg.Database().URL; url != "" {
		pool, err := pgxpool.New(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to create database connection pool: %w", err)
		}
		app.DBPool = pool

		convoStore, err := conversation.New(ctx, pool, logger)
		if err != nil {
			logger.Warn("Conversation store unavailable; history disabled", zap.Error(err))
		} else {
			app.Conversations = convoStore
			app.Users = accounts.New(pool, logger)
			if err := app.Users.InitSchema(ctx); err != nil {
				return nil, err
			}
			if err := convoStore.InitSchema(ctx); err != nil {
				return nil, err
			}
			logger.Debug("Relational stores initialized.")
		}
	} else {
		logger.Warn("Database URL not configured; conversations and accounts disabled")
	}

	// 4. Token authenticator.
	auth, err := accounts.NewAuthenticator(cfg.JWT())
	if err != nil {
		return nil, err
	}
	app.Auth = auth

	// 5. Language model client and the surfaces built on it. Client
	// construction failure leaves the conversational endpoints unavailable
	// but lets the host boot (health, schema and graph stats still work).
	client, err := llmclient.NewClient(cfg.LLM(), logger)
	if err != nil {
		logger.Warn("LLM client not initialized; chat endpoints degraded", zap.Error(err))
		return app, nil
	}
	app.LLM = client

	extractor := pipeline.NewExtractor(client, logger)
	generator := pipeline.NewCypherGenerator(client, logger)
	app.Flow = pipeline.NewFlow(extractor, generator, logger)

	app.Chatbot = chatbot.NewService(client, app.Executor, cfg.Chatbot().SystemPromptFile, logger)
	app.Rewriter = chatbot.NewRewriter(client, logger)

	switch cfg.Chatbot().Strategy {
	case config.StrategyPipeline:
		app.Chat = chatbot.NewPipelineStrategy(app.Flow, app.Executor, app.Chatbot, schemaText, logger)
	case config.StrategyTemplates, "":
		app.Chat = app.Chatbot
	default:
		return nil, fmt.Errorf("unknown chatbot strategy %q (supported: %s, %s)",
			cfg.Chatbot().Strategy, config.StrategyTemplates, config.StrategyPipeline)
	}

	logger.Info("All application components initialized",
		zap.Bool("graph_connected", app.Executor.Connected()),
		zap.Bool("history_enabled", app.Conversations != nil),
		zap.String("chat_strategy", cfg.Chatbot().Strategy),
	)
	return app, nil
}

// Shutdown releases every held resource. Safe on a partially built context.
func (a *AppContext) Shutdown(ctx context.Context) {
	if a.LLM != nil {
		if err := a.LLM.Close(); err != nil {
			a.Logger.Warn("Failed to close LLM client", zap.Error(err))
		}
	}
	if a.Driver != nil {
		if err := a.Driver.Close(ctx); err != nil {
			a.Logger.Warn("Failed to close graph driver", zap.Error(err))
		}
	}
	if a.DBPool != nil {
		a.DBPool.Close()
	}
}
