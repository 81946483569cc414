package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/jinford/repodoc/internal/analyzer"
	"github.com/jinford/repodoc/internal/parser"
)

const (
	// generateTemperature はREADME生成のサンプリング温度
	generateTemperature = 0.7

	// generateMaxTokens はREADME生成の最大出力トークン数
	generateMaxTokens = 8000
)

// TextGenerator は外部のテキスト生成コラボレータを表す
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

// Statistics は生成された文書の統計情報
type Statistics struct {
	LineCount int `json:"lineCount"`
	WordCount int `json:"wordCount"`
	CharCount int `json:"charCount"`
}

// Result はREADME生成の結果を表す
type Result struct {
	Content          string     `json:"content"`
	Diagrams         []Diagram  `json:"diagrams"`
	Statistics       Statistics `json:"statistics"`
	SectionsIncluded []string   `json:"sectionsIncluded"`
}

// Generator は解析レコードからREADME文書を合成する
type Generator struct {
	llm      TextGenerator
	encoding *tiktoken.Tiktoken
	logger   *slog.Logger
}

// NewGenerator は Generator を作成する
func NewGenerator(llm TextGenerator, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		llm:      llm,
		encoding: newEncoding(),
		logger:   logger,
	}
}

// Generate はREADME本文・図・統計を生成する
func (g *Generator) Generate(ctx context.Context, analysis *analyzer.Analysis, opts *Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generation options: %w", err)
	}

	prompt := g.buildPrompt(analysis, opts)
	g.logger.Debug("built readme prompt", "tokens", g.countTokens(prompt))

	content, err := g.llm.GenerateText(ctx, prompt, generateTemperature, generateMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("readme generation failed: %w", err)
	}

	diagrams := g.buildDiagrams(analysis, opts)
	final := combineContentAndDiagrams(content, diagrams)

	sections := make([]string, 0, len(opts.Sections))
	for _, section := range opts.Sections {
		sections = append(sections, string(section))
	}

	result := &Result{
		Content:          final,
		Diagrams:         diagrams,
		Statistics:       calculateStatistics(final),
		SectionsIncluded: sections,
	}

	g.logger.Info("readme generated", "lines", result.Statistics.LineCount, "diagrams", len(diagrams))
	return result, nil
}

// buildDiagrams は選択されたセクションに応じてMermaid図を生成する
func (g *Generator) buildDiagrams(analysis *analyzer.Analysis, opts *Options) []Diagram {
	diagrams := []Diagram{}
	endpoints := analysis.Code.Endpoints
	models := analysis.Code.Models
	classes := analysis.Code.Classes

	if opts.HasSection(SectionUsageExamples) || opts.HasSection(SectionAPIDocumentation) {
		steps := workflowSteps(analysis.ProjectType, endpoints)
		diagrams = append(diagrams, Diagram{
			Type:  "flowchart",
			Title: "Application Workflow",
			Code:  flowchart(steps, "Application Workflow"),
		})
	}

	if opts.HasSection(SectionAPIDocumentation) && len(endpoints) > 0 {
		diagrams = append(diagrams, Diagram{
			Type:  "sequence",
			Title: "API Request Flow",
			Code:  sequenceDiagram(endpoints, "API Request Flow"),
		})
	}

	if opts.HasSection(SectionArchitecture) {
		diagrams = append(diagrams, Diagram{
			Type:  "architecture",
			Title: "System Architecture",
			Code:  architectureDiagram(analysis.Frameworks, "System Architecture"),
		})
	}

	if opts.HasSection(SectionAPIDocumentation) && len(models) > 0 {
		diagrams = append(diagrams, Diagram{
			Type:  "er",
			Title: "Data Models",
			Code:  erDiagram(models),
		})
	}

	if len(classes) >= 2 {
		diagrams = append(diagrams, Diagram{
			Type:  "class",
			Title: "Class Structure",
			Code:  classDiagram(classes),
		})
	}

	return diagrams
}

// workflowSteps はプロジェクト種別に応じた処理フローを返す
func workflowSteps(projectType string, endpoints []parser.Route) []string {
	if strings.Contains(strings.ToUpper(projectType), "API") && len(endpoints) > 0 {
		return []string{
			"Client sends HTTP request",
			"API validates request",
			"Process business logic",
			"Query/Update database",
			"Return response to client",
		}
	}
	return []string{
		"Initialize application",
		"Load configuration",
		"Process input data",
		"Execute main logic",
		"Generate output",
	}
}

// diagramAnchors は図の種別ごとの挿入先セクション見出し
var diagramAnchors = map[string][]string{
	"flowchart":    {"## Usage Examples", "## Usage"},
	"sequence":     {"## API Documentation", "## API"},
	"er":           {"## API Documentation", "## API"},
	"architecture": {"## Architecture"},
	"class":        {"## Architecture", "## Code Structure"},
}

// combineContentAndDiagrams は本文の対応セクション直下に図を挿入する。
// 対応する見出しが見つからない図は末尾に追記する。
func combineContentAndDiagrams(content string, diagrams []Diagram) string {
	combined := content

	for _, diagram := range diagrams {
		block := wrapDiagram(diagram.Code, diagram.Title)

		inserted := false
		for _, anchor := range diagramAnchors[diagram.Type] {
			if idx := strings.Index(combined, anchor); idx >= 0 {
				combined = strings.Replace(combined, anchor, anchor+"\n\n"+block, 1)
				inserted = true
				break
			}
		}
		if !inserted {
			combined += "\n\n" + block
		}
	}

	return combined
}

// calculateStatistics は文書の統計情報を算出する
func calculateStatistics(content string) Statistics {
	return Statistics{
		LineCount: len(strings.Split(content, "\n")),
		WordCount: len(strings.Fields(content)),
		CharCount: len(content),
	}
}
