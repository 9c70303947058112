package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"ewintr.nl/ytsum/config"
	"ewintr.nl/ytsum/feed"
	"ewintr.nl/ytsum/fetcher"
	"ewintr.nl/ytsum/handler"
	"ewintr.nl/ytsum/pipeline"
	"ewintr.nl/ytsum/storage"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(getParam("CONFIG_FILE", "config.yaml"))
	if err != nil {
		logger.Error("unable to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var repo storage.VideoRepository
	switch cfg.Storage.Driver {
	case "postgres":
		postgres, err := storage.NewPostgres(storage.PostgresInfo{
			Host:     cfg.Storage.Postgres.Host,
			Port:     cfg.Storage.Postgres.Port,
			User:     cfg.Storage.Postgres.User,
			Password: cfg.Storage.Postgres.Password,
			Database: cfg.Storage.Postgres.Database,
		})
		if err != nil {
			logger.Error("unable to connect to postgres", slog.String("error", err.Error()))
			os.Exit(1)
		}
		repo = postgres
	case "sqlite":
		sqlite, err := storage.NewSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			logger.Error("unable to open sqlite database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		repo = sqlite
	default:
		repo = storage.NewMemory()
	}
	store := storage.NewRecordStore(repo, logger)

	artifacts, err := storage.NewArtifactStore(cfg.Storage.SummaryDir)
	if err != nil {
		logger.Error("unable to create summary directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var metadata fetcher.MetadataFetcher
	if cfg.Youtube.APIKey != "" {
		ytClient, err := youtube.NewService(ctx, option.WithAPIKey(cfg.Youtube.APIKey))
		if err != nil {
			logger.Error("unable to create youtube service", slog.String("error", err.Error()))
			os.Exit(1)
		}
		metadata = fetcher.NewYoutube(ytClient)
	}

	var index storage.SummaryIndex
	if cfg.Weaviate.Host != "" {
		weaviate, err := storage.NewWeaviate(cfg.Weaviate.Host, cfg.Weaviate.APIKey, cfg.Summary.OpenAIAPIKey)
		if err != nil {
			logger.Error("unable to connect to weaviate", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if cfg.Weaviate.ResetSchema {
			if err := weaviate.ResetSchema(); err != nil {
				logger.Error("unable to reset weaviate schema", slog.String("error", err.Error()))
				os.Exit(1)
			}
		}
		index = weaviate
	}

	retry := pipeline.DefaultRetryPolicy
	retry.MaxRetries = cfg.Summary.MaxRetries
	p := pipeline.New(pipeline.Config{
		Store:              store,
		Transcripts:        fetcher.NewInnerTube(time.Minute),
		Summaries:          fetcher.NewOpenAI(cfg.Summary.OpenAIAPIKey, cfg.Summary.Model, cfg.Summary.InputBudget),
		Metadata:           metadata,
		Artifacts:          artifacts,
		Index:              index,
		PreferredLanguages: cfg.Transcript.PreferredLanguages,
		OutputLanguage:     cfg.Summary.OutputLanguage,
		Retry:              retry,
		CallTimeout:        cfg.Summary.Timeout(),
		Logger:             logger,
	})
	go logEvents(p, logger)

	if cfg.Miniflux.Endpoint != "" {
		mflx := feed.NewMiniflux(feed.MinifluxInfo{
			Endpoint: cfg.Miniflux.Endpoint,
			ApiKey:   cfg.Miniflux.APIKey,
		})
		go feed.NewWatcher(mflx, p, cfg.Miniflux.Interval(), logger).Run(ctx)
	}

	go http.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.Port), handler.NewServer(p, logger))
	logger.Info("http server started", slog.Int("port", cfg.Server.Port))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt)
	<-done

	logger.Info("service stopped")
}

func getParam(param, def string) string {
	if val, ok := os.LookupEnv(param); ok {
		return val
	}

	return def
}

func logEvents(p *pipeline.Pipeline, logger *slog.Logger) {
	for event := range p.Events() {
		attrs := []any{
			slog.String("event", event.ID.String()),
			slog.String("video", string(event.VideoID)),
		}
		switch {
		case event.Removed:
			attrs = append(attrs, slog.Bool("removed", true))
		default:
			attrs = append(attrs, slog.String("status", string(event.Status)))
		}
		if event.Error != "" {
			attrs = append(attrs, slog.String("error", event.Error))
		}
		logger.Info("video event", attrs...)
	}
}
