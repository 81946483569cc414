package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jinford/repodoc/internal/analyzer"
	"github.com/jinford/repodoc/internal/generator"
	"github.com/jinford/repodoc/internal/gitrepo"
	"github.com/jinford/repodoc/internal/job"
	"github.com/jinford/repodoc/internal/llm"
	"github.com/jinford/repodoc/internal/platform/config"
	"github.com/jinford/repodoc/internal/platform/logger"
)

// AppContext はコマンド実行に必要な共通コンテキストを保持する
type AppContext struct {
	Config       *config.Config
	Logger       *slog.Logger
	Orchestrator *job.Orchestrator
}

// NewAppContext は設定を読み込み、ワークフローの依存関係を組み立てて AppContext を作成する。
// outputDir が空でない場合は設定の出力ディレクトリを上書きする。
func NewAppContext(envFile, outputDir string) (*AppContext, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}

	appLogger := logger.New(logger.Config{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
	})

	client, err := llm.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	if err != nil {
		return nil, err
	}

	fetcher := gitrepo.NewFetcher(
		cfg.Git.CloneDir,
		int64(cfg.Git.MaxRepoSizeMB)*1024*1024,
		time.Duration(cfg.Git.CloneTimeoutSeconds)*time.Second,
		appLogger,
	)

	caps := analyzer.Caps{
		MaxParsedFiles:   cfg.Analyze.MaxParsedFiles,
		FunctionsPerFile: cfg.Analyze.MaxFunctionsFile,
		ClassesPerFile:   cfg.Analyze.MaxClassesFile,
	}

	orchestrator := job.NewOrchestrator(
		job.NewRegistry(),
		job.NewArtifactStore(cfg.OutputDir),
		fetcher,
		analyzer.NewAnalyzer(caps, client, appLogger),
		generator.NewGenerator(client, appLogger),
		appLogger,
	)

	return &AppContext{
		Config:       cfg,
		Logger:       appLogger,
		Orchestrator: orchestrator,
	}, nil
}
