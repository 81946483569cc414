// Package analyzer はマテリアライズ済みリポジトリの構造解析を統括する。
// 言語検出・ファイル走査・構造パーサの適用・フレームワーク検出を行い、
// 1ジョブ分の解析レコードを構築する。
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/jinford/repodoc/internal/detect"
	"github.com/jinford/repodoc/internal/gitrepo"
	"github.com/jinford/repodoc/internal/parser"
)

// TextGenerator は外部のテキスト生成コラボレータを表す
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

// Caps は解析コストの上限を表す
type Caps struct {
	MaxParsedFiles   int
	FunctionsPerFile int
	ClassesPerFile   int
}

// DefaultCaps はデフォルトの解析上限
func DefaultCaps() Caps {
	return Caps{
		MaxParsedFiles:   50,
		FunctionsPerFile: 5,
		ClassesPerFile:   3,
	}
}

// CodeAnalysis は構造抽出の集約結果を表す
type CodeAnalysis struct {
	Endpoints []parser.Route    `json:"endpoints"`
	Models    []parser.Model    `json:"models"`
	Functions []parser.Function `json:"functions"`
	Classes   []parser.Class    `json:"classes"`
}

// PackageJSON は package.json から抽出したメタデータ
type PackageJSON struct {
	Name         string   `json:"name,omitempty"`
	Version      string   `json:"version,omitempty"`
	Description  string   `json:"description,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// Metadata はプロジェクトの付随情報を表す
type Metadata struct {
	PythonDependencies []string     `json:"pythonDependencies,omitempty"`
	PackageJSON        *PackageJSON `json:"packageJson,omitempty"`
	HasReadme          bool         `json:"hasReadme"`
	ReadmeLength       int          `json:"existingReadmeLength,omitempty"`
	HasLicense         bool         `json:"hasLicense"`
}

// Analysis は1リポジトリ分の解析レコードを表す
type Analysis struct {
	Repository  *gitrepo.Snapshot `json:"repositoryInfo"`
	Languages   []string          `json:"languages"`
	FileCounts  map[string]int    `json:"filesByLanguage"`
	TotalFiles  int               `json:"totalFiles"`
	TotalLines  int               `json:"totalLines"`
	Code        CodeAnalysis      `json:"codeAnalysis"`
	Metadata    Metadata          `json:"metadata"`
	Frameworks  []string          `json:"frameworks"`
	ProjectType string            `json:"projectType"`
	Enhanced    map[string]any    `json:"enhancedAnalysis"`
}

// Analyzer はリポジトリ解析を実行する
type Analyzer struct {
	detector *detect.Detector
	caps     Caps
	llm      TextGenerator // nil の場合は enrichment をスキップ
	logger   *slog.Logger
}

// NewAnalyzer は Analyzer を作成する。llm は nil でもよい。
func NewAnalyzer(caps Caps, llm TextGenerator, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		detector: detect.NewDetector(),
		caps:     caps,
		llm:      llm,
		logger:   logger,
	}
}

// Analyze はスナップショットを解析して解析レコードを構築する。
// 個々のファイルの解析失敗は記録して続行し、走査全体を中断しない。
func (a *Analyzer) Analyze(ctx context.Context, snapshot *gitrepo.Snapshot) (*Analysis, error) {
	detected, err := a.detector.Detect(snapshot.Path)
	if err != nil {
		return nil, fmt.Errorf("language detection failed: %w", err)
	}

	a.logger.Info("detected languages", "languages", detected.Languages)

	analysis := &Analysis{
		Repository: snapshot,
		Languages:  detected.Languages,
		FileCounts: detected.FileCounts,
		Code: CodeAnalysis{
			Endpoints: []parser.Route{},
			Models:    []parser.Model{},
			Functions: []parser.Function{},
			Classes:   []parser.Class{},
		},
		Enhanced: map[string]any{},
	}

	files, err := a.listSourceFiles(snapshot.Path)
	if err != nil {
		return nil, fmt.Errorf("file scan failed: %w", err)
	}

	a.countFiles(analysis, files, detected)
	a.extractStructure(analysis, snapshot.Path, files, detected)
	a.collectMetadata(analysis, snapshot.Path)
	analysis.Frameworks = a.detectFrameworks(snapshot.Path)
	analysis.ProjectType = a.determineProjectType(analysis, detected)

	if a.llm != nil {
		analysis.Enhanced = a.EnrichWithLLM(ctx, analysis)
	}

	return analysis, nil
}

// listSourceFiles は .git と .gitignore 対象を除いた相対パス一覧を
// 決定的な順序（辞書順の走査順）で返す
func (a *Analyzer) listSourceFiles(root string) ([]string, error) {
	var matcher *ignore.GitIgnore
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		matcher = gi
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if entry.Name() == ".git" {
				return filepath.SkipDir
			}
			if matcher != nil && rel != "." && matcher.MatchesPath(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// countFiles は検出済み言語のファイル数・行数を集計する
func (a *Analyzer) countFiles(analysis *Analysis, files []string, detected *detect.Result) {
	for _, rel := range files {
		lang := languageByExtension(rel)
		if lang == "" || !detected.Has(lang) {
			continue
		}

		analysis.TotalFiles++

		data, err := os.ReadFile(filepath.Join(analysis.Repository.Path, rel))
		if err != nil {
			continue
		}
		analysis.TotalLines += countLines(data)
	}
}

// extractStructure は第一級方言のファイルに構造パーサを適用する。
// ファイル数と1ファイルあたりの宣言数は上限で打ち切る。
func (a *Analyzer) extractStructure(analysis *Analysis, root string, files []string, detected *detect.Result) {
	parsed := 0

	for _, rel := range files {
		if parsed >= a.caps.MaxParsedFiles {
			break
		}

		lang := languageByExtension(rel)
		if lang == "" || !detected.Has(lang) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			a.logger.Warn("failed to read source file", "file", rel, "error", err)
			continue
		}

		p, ok := parser.ForLanguage(lang, data)
		if !ok {
			// 構造解析に未対応の言語はファイル数等のメタデータのみで扱う
			continue
		}
		parsed++

		summary := parser.Summarize(rel, countLines(data), p)
		if len(summary.Routes) == 0 && len(summary.Models) == 0 &&
			len(summary.Functions) == 0 && len(summary.Classes) == 0 && len(summary.Imports) == 0 {
			// 構文エラー等で空サマリとなったファイルは収集対象を持たない
			a.logger.Debug("empty structural summary", "file", rel)
		}

		analysis.Code.Endpoints = append(analysis.Code.Endpoints, summary.Routes...)
		analysis.Code.Models = append(analysis.Code.Models, summary.Models...)
		analysis.Code.Functions = append(analysis.Code.Functions, capFunctions(summary.Functions, a.caps.FunctionsPerFile)...)
		analysis.Code.Classes = append(analysis.Code.Classes, capClasses(summary.Classes, a.caps.ClassesPerFile)...)
	}
}

// collectMetadata はマニフェストファイル類からメタデータを抽出する
func (a *Analyzer) collectMetadata(analysis *Analysis, root string) {
	meta := Metadata{}

	if content, err := os.ReadFile(filepath.Join(root, "requirements.txt")); err == nil {
		for _, line := range strings.Split(string(content), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			meta.PythonDependencies = append(meta.PythonDependencies, line)
		}
	}

	if content, err := os.ReadFile(filepath.Join(root, "package.json")); err == nil {
		var pkg struct {
			Name         string            `json:"name"`
			Version      string            `json:"version"`
			Description  string            `json:"description"`
			Dependencies map[string]string `json:"dependencies"`
		}
		if err := json.Unmarshal(content, &pkg); err == nil {
			deps := make([]string, 0, len(pkg.Dependencies))
			for dep := range pkg.Dependencies {
				deps = append(deps, dep)
			}
			meta.PackageJSON = &PackageJSON{
				Name:         pkg.Name,
				Version:      pkg.Version,
				Description:  pkg.Description,
				Dependencies: deps,
			}
		}
	}

	for _, name := range []string{"README.md", "README.rst", "README.txt", "README"} {
		if content, err := os.ReadFile(filepath.Join(root, name)); err == nil {
			meta.HasReadme = true
			meta.ReadmeLength = len(content)
			break
		}
	}

	for _, name := range []string{"LICENSE", "LICENSE.txt", "LICENSE.md"} {
		if _, err := os.Stat(filepath.Join(root, name)); err == nil {
			meta.HasLicense = true
			break
		}
	}

	analysis.Metadata = meta
}

// frameworkVocabulary はマニフェストファイルごとのキーワード → フレームワーク名の語彙表
var frameworkVocabulary = []struct {
	manifest string
	keyword  string
	name     string
}{
	{"requirements.txt", "fastapi", "FastAPI"},
	{"requirements.txt", "flask", "Flask"},
	{"requirements.txt", "django", "Django"},
	{"requirements.txt", "streamlit", "Streamlit"},
	{"requirements.txt", "sqlalchemy", "SQLAlchemy"},
	{"package.json", "react", "React"},
	{"package.json", "vue", "Vue.js"},
	{"package.json", "express", "Express.js"},
	{"package.json", "next", "Next.js"},
	{"go.mod", "gin-gonic/gin", "Gin"},
	{"go.mod", "labstack/echo", "Echo"},
	{"go.mod", "gorilla/mux", "Gorilla Mux"},
}

// detectFrameworks はマニフェストの内容に対する大文字小文字を区別しない
// 部分一致でフレームワークを検出する。複数一致した場合はすべて報告する。
func (a *Analyzer) detectFrameworks(root string) []string {
	contents := map[string]string{}
	frameworks := []string{}

	for _, entry := range frameworkVocabulary {
		content, ok := contents[entry.manifest]
		if !ok {
			data, err := os.ReadFile(filepath.Join(root, entry.manifest))
			if err != nil {
				contents[entry.manifest] = ""
				continue
			}
			content = strings.ToLower(string(data))
			contents[entry.manifest] = content
		}
		if content == "" {
			continue
		}

		if strings.Contains(content, strings.ToLower(entry.keyword)) {
			frameworks = append(frameworks, entry.name)
		}
	}

	return frameworks
}

// determineProjectType はプロジェクト種別を決定規則に従って推定する。
// 規則は順序付きで評価される:
//  1. ルート宣言があれば REST API
//  2. 第一級方言（Python）が検出されクラス宣言があれば Library/Package
//  3. Webスクリプト方言が検出されていれば Scripting Application
//  4. それ以外は Generic Project
func (a *Analyzer) determineProjectType(analysis *Analysis, detected *detect.Result) string {
	if len(analysis.Code.Endpoints) > 0 {
		return "REST API"
	}
	if detected.Has("Python") && len(analysis.Code.Classes) > 0 {
		return "Library/Package"
	}
	if detected.Has("JavaScript") || detected.Has("TypeScript") {
		return "Scripting Application"
	}
	return "Generic Project"
}

// capFunctions はスライスを上限件数で打ち切る
func capFunctions(functions []parser.Function, limit int) []parser.Function {
	if limit > 0 && len(functions) > limit {
		return functions[:limit]
	}
	return functions
}

// capClasses はスライスを上限件数で打ち切る
func capClasses(classes []parser.Class, limit int) []parser.Class {
	if limit > 0 && len(classes) > limit {
		return classes[:limit]
	}
	return classes
}

// languageByExtension は拡張子からソース言語を判定する。
// 検出器と同じ分類器を使い、両者の集計がずれないようにする。
func languageByExtension(path string) string {
	lang, _ := enry.GetLanguageByExtension(path)
	return lang
}

// countLines はテキストの行数を数える
func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	lines := strings.Count(string(data), "\n")
	if data[len(data)-1] != '\n' {
		lines++
	}
	return lines
}
