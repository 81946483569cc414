package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// OpenAI設定（README生成・リポジトリ解析の強化に使用）
	OpenAI OpenAIConfig

	// Git設定
	Git GitConfig

	// 解析設定
	Analyze AnalyzeConfig

	// README出力ディレクトリ（ジョブIDごとにサブディレクトリを作成）
	OutputDir string

	// ログ設定
	LogLevel  string
	LogFormat string
}

// OpenAIConfig はOpenAI API設定
type OpenAIConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// GitConfig はGit操作設定
type GitConfig struct {
	CloneDir            string
	MaxRepoSizeMB       int
	CloneTimeoutSeconds int
}

// AnalyzeConfig はリポジトリ解析の上限設定
type AnalyzeConfig struct {
	MaxParsedFiles   int // 構造解析するファイル数の上限
	MaxFunctionsFile int // 1ファイルから収集する関数数の上限
	MaxClassesFile   int // 1ファイルから収集するクラス数の上限
}

// Load は環境変数または.envファイルから設定を読み込みます
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		OpenAI: OpenAIConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Model:       getEnv("OPENAI_LLM_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 8000),
		},
		Git: GitConfig{
			CloneDir:            getEnv("CLONE_DIR", os.TempDir()+"/repodoc"),
			MaxRepoSizeMB:       getEnvAsInt("MAX_REPO_SIZE_MB", 500),
			CloneTimeoutSeconds: getEnvAsInt("CLONE_TIMEOUT_SECONDS", 300),
		},
		Analyze: AnalyzeConfig{
			MaxParsedFiles:   getEnvAsInt("MAX_PARSED_FILES", 50),
			MaxFunctionsFile: getEnvAsInt("MAX_FUNCTIONS_PER_FILE", 5),
			MaxClassesFile:   getEnvAsInt("MAX_CLASSES_PER_FILE", 3),
		},
		OutputDir: getEnv("OUTPUT_DIR", "./outputs"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	return cfg, nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsFloat は環境変数を浮動小数点数として取得します
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}
