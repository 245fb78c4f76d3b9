package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/docuchat/gateway/internal/ai"
	"github.com/docuchat/gateway/internal/chat"
	"github.com/docuchat/gateway/internal/config"
	"github.com/docuchat/gateway/internal/extract"
	"github.com/docuchat/gateway/internal/files"
	"github.com/docuchat/gateway/internal/httpapi"
	"github.com/docuchat/gateway/internal/logging"
	"github.com/docuchat/gateway/internal/store/rabbitmq"
	"github.com/docuchat/gateway/internal/store/redisstore"
	"github.com/docuchat/gateway/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New("server")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Redis: conversation history.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store := redisstore.New(rdb, cfg.HistoryTTL, log)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := store.Ping(ctx)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable")
		}
	}
	defer store.Close()

	// SQLite: file registry and extraction jobs.
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("cannot create database directory")
		}
	}
	gdb, err := gorm.Open(gormsqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("cannot open database")
	}
	if err := gdb.AutoMigrate(&files.File{}, &files.ExtractionJob{}); err != nil {
		log.Fatal().Err(err).Msg("automigrate failed")
	}

	// Completion provider, routed by name.
	reg := ai.NewRegistry()
	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, m), nil
	})
	reg.Register("openrouter", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OpenRouterModel
		}
		return ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, m, cfg.OpenRouterSiteURL, cfg.OpenRouterAppName), nil
	})
	provider, err := reg.Get(context.Background(), cfg.AIProvider, "")
	if err != nil {
		log.Fatal().Err(err).Msg("provider setup failed")
	}

	chatSvc := chat.NewService(chat.NewCompleter(store, provider), store, log)
	socket := ws.NewHandler(chatSvc, cfg.AllowedOrigin, log)

	// RabbitMQ backs the async upload path only; the server still runs
	// without it and the sync path stays available.
	var pub files.Publisher
	if rp, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue); err != nil {
		log.Warn().Err(err).Msg("rabbitmq unavailable, async uploads disabled")
	} else {
		pub = rp
		defer rp.Close()
	}

	extractor := extract.New(extract.NewOCRClient(cfg.OCRServiceURL))
	filesSvc := files.NewService(files.NewRepo(gdb), extractor, pub, log)

	router := httpapi.NewRouter(filesSvc, socket, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("port", cfg.Port).Str("provider", cfg.AIProvider).Msg("gateway listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown incomplete")
	}
}
