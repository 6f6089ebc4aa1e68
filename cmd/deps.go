package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hire-labor/internal/ai"
	"github.com/spigell/hire-labor/internal/ai/gemini"
	"github.com/spigell/hire-labor/internal/logger"
	"github.com/spigell/hire-labor/internal/registry"
	"github.com/spigell/hire-labor/internal/search"
	"github.com/spigell/hire-labor/internal/secrets"
	"github.com/spigell/hire-labor/internal/store"
)

const (
	geminiKeyEnv  = "GEMINI_API_KEY"
	storeTokenEnv = envPrefix + "_STORE_TOKEN"
)

// deps is everything a search command needs.
type deps struct {
	config       *Config
	logger       *zap.Logger
	cache        *registry.Cache
	orchestrator *search.Orchestrator
	closeStore   func()
}

func (d *deps) Close() {
	if d.closeStore != nil {
		d.closeStore()
	}
	_ = d.logger.Sync()
}

// bootstrap builds the logger, the store, the registry cache and the orchestrator.
// Any failure is fatal. logOutput keeps logs off stdout for commands that print results.
func bootstrap(ctx context.Context, logOutput string) *deps {
	log, err := newLogger(logOutput)
	if err != nil {
		fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	log.Info("starting the hire-labor", zap.String("version", version), zap.String("store", config.Store.Driver))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	log.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	st, closeStore, err := newStore(ctx, config.Store, log)
	if err != nil {
		log.Fatal("opening the registry store", zap.Error(err))
	}

	cache := registry.NewCache(st, log.Named("registry"))
	if err := cache.Load(ctx); err != nil {
		closeStore()
		log.Fatal("loading the registry", zap.Error(err))
	}

	classifier, err := newClassifier(ctx, config.AI, log)
	if err != nil {
		closeStore()
		log.Fatal("creating the classifier", zap.Error(err))
	}

	orchestrator := search.New(ctx, cache, classifier, log.Named("search"), search.Options{
		AvailableOnly: config.Search.AvailableOnly,
	})

	return &deps{
		config:       config,
		logger:       log,
		cache:        cache,
		orchestrator: orchestrator,
		closeStore:   closeStore,
	}
}

func newLogger(output string) (*zap.Logger, error) {
	return logger.New(logger.Options{
		JSON:   viper.GetBool("json"),
		Debug:  viper.GetBool("debug"),
		Output: output,
	})
}

func fatalf(format string, args ...any) {
	log.Fatalf(format, args...)
}

func newStore(ctx context.Context, cfg StoreConfig, log *zap.Logger) (registry.Store, func(), error) {
	noop := func() {}

	switch cfg.Driver {
	case driverDemo, "":
		return store.DemoStore{}, noop, nil
	case driverFile:
		return store.NewFile(cfg.Path), noop, nil
	case driverSQLite:
		s, err := store.OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		return s, func() { _ = s.Close() }, nil
	case driverPostgres:
		s, err := store.ConnectPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case driverHTTP:
		token, err := resolveStoreToken(cfg)
		if err != nil {
			return nil, noop, err
		}
		return store.NewHTTP(cfg.URL, token, log.Named("store")), noop, nil
	default:
		return nil, noop, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

// resolveStoreToken returns an empty token when none is configured; the endpoint may be public.
func resolveStoreToken(cfg StoreConfig) (string, error) {
	src := secrets.Source{
		Name: "store token",
		File: cfg.TokenFile,
		Env:  storeTokenEnv,
	}
	if !secrets.Configured(src) {
		return "", nil
	}
	return secrets.Load(src)
}

// newClassifier returns a nil classifier when AI is disabled or no key is
// configured. Every search then uses local matching.
func newClassifier(ctx context.Context, cfg AIConfig, log *zap.Logger) (ai.Classifier, error) {
	if !cfg.Enabled {
		log.Info("classifier disabled", zap.String("reason", "ai.enabled is false"))
		return nil, nil
	}

	src := secrets.Source{
		Name:  "gemini api key",
		File:  cfg.Gemini.APIKeyFile,
		Value: cfg.Gemini.APIKey,
		Env:   geminiKeyEnv,
	}
	if !secrets.Configured(src) {
		log.Warn("classifier disabled, every search uses local matching",
			zap.String("hint", "set ai.gemini.api-key-file or "+geminiKeyEnv),
		)
		return nil, nil
	}

	apiKey, err := secrets.Load(src)
	if err != nil {
		return nil, err
	}

	model := strings.TrimSpace(cfg.Gemini.Model)
	generator, err := gemini.NewGenerator(ctx, apiKey, model, log)
	if err != nil {
		return nil, err
	}

	return gemini.NewClassifier(generator, logger.WithCommonFields(log, "gemini", generator.Model()), gemini.Options{
		Timeout:      cfg.Gemini.Timeout,
		Rate:         cfg.Gemini.Rate,
		Burst:        cfg.Gemini.Burst,
		MaxLogLength: cfg.Gemini.MaxLogLength,
	}), nil
}
