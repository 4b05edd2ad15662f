package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/filingchat/internal/ai"
	"github.com/xxxsen/filingchat/internal/config"
	"github.com/xxxsen/filingchat/internal/embedcache"
	"github.com/xxxsen/filingchat/internal/fetch"
	"github.com/xxxsen/filingchat/internal/handler"
	"github.com/xxxsen/filingchat/internal/ingest"
	"github.com/xxxsen/filingchat/internal/job"
	"github.com/xxxsen/filingchat/internal/middleware"
	"github.com/xxxsen/filingchat/internal/rag"
	"github.com/xxxsen/filingchat/internal/schedule"
	"github.com/xxxsen/filingchat/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "filingchat",
		Short: "filingchat server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run filingchat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.Int("max_filings", cfg.RAG.MaxFilings),
	)

	aiProvider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	generator := ai.NewGenerator(aiProvider, cfg.AI.ChatModel)
	embedder := ai.NewEmbedder(aiProvider, cfg.AI.EmbedModel)
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.AI.EmbedCacheSize, time.Hour)
	batchEmbedder := ai.NewBatchEmbedder(embedder)

	fetcher := fetch.NewEDGARFetcher(
		cfg.Fetch.UserAgent,
		time.Duration(cfg.Fetch.TimeoutSec)*time.Second,
		cfg.Fetch.RequestsPerSec,
	)

	vectors := rag.NewVectorIndex()
	keywords := rag.NewKeywordIndex()
	store, err := rag.NewStore(cfg.RAG.MaxFilings, vectors, keywords)
	if err != nil {
		return fmt.Errorf("init filing store: %w", err)
	}
	chunker := rag.NewChunker(rag.ChunkerConfig{
		MaxTokens:     cfg.RAG.ChunkMaxTokens,
		HardMaxTokens: cfg.RAG.ChunkHardMaxTokens,
		OverlapTokens: cfg.RAG.ChunkOverlapTokens,
	})

	orch := ingest.NewOrchestrator(fetcher, batchEmbedder, chunker, store, vectors, keywords, ingest.Config{
		ExhibitMaxCount: cfg.Fetch.ExhibitMaxCount,
		ExhibitTimeout:  time.Duration(cfg.Fetch.ExhibitTimeoutSec) * time.Second,
	})
	retriever := rag.NewHybridRetriever(store, vectors, keywords, batchEmbedder, rag.RetrieverConfig{
		TopK:           cfg.RAG.TopK,
		SemanticWeight: cfg.RAG.SemanticWeight,
		KeywordWeight:  cfg.RAG.KeywordWeight,
	})

	chatService := service.NewChatService(orch, retriever, generator, store, service.ChatConfig{
		MaxHistory:      cfg.RAG.MaxHistory,
		MinWordOverlap:  cfg.RAG.MinWordOverlap,
		GenerateTimeout: time.Duration(cfg.AI.ChatTimeoutSec) * time.Second,
	})
	filingService := service.NewFilingService(fetcher, store, orch)

	deps := handler.RouterDeps{
		Chat:          handler.NewChatHandler(chatService),
		Filings:       handler.NewFilingHandler(filingService),
		OpenRateLimit: time.Duration(cfg.Fetch.OpenRateLimitSec) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewIndexStatsJob(store, cfg.RAG.MaxFilings), "0 * * * *"); err != nil {
		return fmt.Errorf("schedule index stats: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
