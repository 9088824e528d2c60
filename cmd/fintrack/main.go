// Command fintrack runs the expense tracker API server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fintrack/internal/agent"
	"fintrack/internal/amqp"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	"fintrack/internal/llm"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/schema"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", log.FieldError, err)
		os.Exit(1)
	}
}

func run(logger *log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	repo, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	var publisher services.EventPublisher
	if cfg.EventsEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		publisher = client
	} else {
		logger.Info("amqp disabled, expense events will not be published")
	}

	budgets := services.NewBudgetService(repo, cfg.BudgetAccounts, cfg.CacheTTL, logger)
	expenses := services.NewExpenseService(repo, publisher, budgets.InvalidateMonth, logger)

	var assistant *agent.Graph
	if cfg.AssistantEnabled() {
		client, err := llm.NewGemini(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return err
		}
		meta, err := schema.Load()
		if err != nil {
			return err
		}
		schemaJSON, err := meta.PromptJSON()
		if err != nil {
			return err
		}
		assistant, err = agent.New(client, repo, schemaJSON, logger)
		if err != nil {
			return err
		}
		logger.Info("assistant enabled", log.FieldModel, cfg.GeminiModel)
	} else {
		logger.Info("assistant disabled, GEMINI_API_KEY not set")
	}

	limiter := ratelimit.New(cfg.RateLimitPerMinute)
	defer limiter.Close()

	server := apphttp.NewServer(apphttp.Options{
		Addr:         ":" + cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		CacheTTL:     cfg.CacheTTL,
	}, apphttp.Deps{
		Expenses:  expenses,
		Budgets:   budgets,
		Repo:      repo,
		Assistant: assistant,
		Limiter:   limiter,
		Logger:    logger,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(ctx)
}
