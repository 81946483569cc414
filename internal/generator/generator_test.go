package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/repodoc/internal/analyzer"
	"github.com/jinford/repodoc/internal/gitrepo"
	"github.com/jinford/repodoc/internal/parser"
)

// stubLLM はテスト用の TextGenerator 実装
type stubLLM struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubLLM) GenerateText(_ context.Context, prompt string, _ float64, _ int) (string, error) {
	s.lastPrompt = prompt
	return s.response, s.err
}

func sampleAnalysis() *analyzer.Analysis {
	return &analyzer.Analysis{
		Repository: &gitrepo.Snapshot{
			Name: "demo",
			URL:  "https://github.com/user/demo",
		},
		Languages:   []string{"Python"},
		Frameworks:  []string{"FastAPI", "SQLAlchemy"},
		ProjectType: "REST API",
		TotalFiles:  12,
		TotalLines:  800,
		Code: analyzer.CodeAnalysis{
			Endpoints: []parser.Route{
				{Method: "GET", Path: "/users", FunctionName: "list_users", Line: 10, Doc: "List users."},
				{Method: "POST", Path: "/users", FunctionName: "create_user", Line: 20},
			},
			Models: []parser.Model{
				{Name: "User", Fields: []parser.Field{
					{Name: "id", Type: "int"},
					{Name: "name", Type: "str"},
				}},
			},
		},
		Enhanced: map[string]any{"purpose": "user management API"},
	}
}

func TestGenerator_Generate(t *testing.T) {
	llm := &stubLLM{response: "# demo\n\n## Overview\n\ntext\n\n## API Documentation\n\ndocs\n"}
	g := NewGenerator(llm, nil)

	opts := &Options{
		Length:          LengthMedium,
		Style:           StyleTechnical,
		Sections:        []Section{SectionOverview, SectionAPIDocumentation},
		IncludeExamples: true,
	}

	result, err := g.Generate(context.Background(), sampleAnalysis(), opts)
	require.NoError(t, err)

	// プロンプトにはプロジェクト情報・エンドポイント・指針が含まれる
	assert.Contains(t, llm.lastPrompt, "Project name: demo")
	assert.Contains(t, llm.lastPrompt, "GET /users")
	assert.Contains(t, llm.lastPrompt, "GENERATE ONLY THESE SECTIONS IN THIS ORDER")
	assert.Contains(t, llm.lastPrompt, "## API Documentation")
	assert.Contains(t, llm.lastPrompt, "purpose: user management API")

	// シーケンス図とER図はAPIセクションの直下に挿入される
	assert.Contains(t, result.Content, "```mermaid")
	assert.Contains(t, result.Content, "sequenceDiagram")
	assert.Contains(t, result.Content, "erDiagram")

	assert.Equal(t, []string{"overview", "api_documentation"}, result.SectionsIncluded)
	assert.Equal(t, len(result.Content), result.Statistics.CharCount)
	assert.Greater(t, result.Statistics.WordCount, 0)
}

func TestGenerator_Generate_LLMFailure(t *testing.T) {
	llm := &stubLLM{err: errors.New("api down")}
	g := NewGenerator(llm, nil)

	_, err := g.Generate(context.Background(), sampleAnalysis(), &Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "readme generation failed")
}

func TestGenerator_Generate_DefaultsApplied(t *testing.T) {
	llm := &stubLLM{response: "# demo\n"}
	g := NewGenerator(llm, nil)

	result, err := g.Generate(context.Background(), sampleAnalysis(), &Options{})
	require.NoError(t, err)

	// 長さ・スタイル・セクションの省略値が補完される
	assert.Contains(t, llm.lastPrompt, "Target: 300-600 lines")
	assert.Contains(t, result.SectionsIncluded, "overview")
}

func TestOptions_Validate(t *testing.T) {
	t.Run("unknown length rejected", func(t *testing.T) {
		opts := &Options{Length: "gigantic"}
		assert.Error(t, opts.Validate())
	})

	t.Run("unknown style rejected", func(t *testing.T) {
		opts := &Options{Style: "casual"}
		assert.Error(t, opts.Validate())
	})

	t.Run("empty sections get defaults", func(t *testing.T) {
		opts := &Options{}
		require.NoError(t, opts.Validate())
		assert.Equal(t, DefaultSections(), opts.Sections)
	})
}

func TestSequenceDiagram(t *testing.T) {
	endpoints := []parser.Route{
		{Method: "GET", Path: "/users"},
		{Method: "POST", Path: "/users"},
	}

	code := sequenceDiagram(endpoints, "API Request Flow")

	assert.Contains(t, code, "Client->>+API: GET /users")
	assert.Contains(t, code, "API->>+Database: Query Data")
	assert.Contains(t, code, "Client->>+API: POST /users")
	assert.Contains(t, code, "API->>+Database: Store/Update Data")
}

func TestERDiagram(t *testing.T) {
	models := []parser.Model{
		{Name: "User", Fields: []parser.Field{
			{Name: "id", Type: "int"},
			{Name: "nickname"},
		}},
	}

	code := erDiagram(models)

	assert.Contains(t, code, "erDiagram")
	assert.Contains(t, code, "User {")
	assert.Contains(t, code, "int id")
	// 型注釈のないフィールドは string として扱う
	assert.Contains(t, code, "string nickname")
}

func TestFlowchart(t *testing.T) {
	code := flowchart([]string{"Load", "Process"}, "Flow")

	assert.Contains(t, code, "Start([Flow])")
	assert.Contains(t, code, "Step1[Load]")
	assert.Contains(t, code, "Step1 --> Step2")
	assert.Contains(t, code, "Step2 --> End([Complete])")
}

func TestCombineContentAndDiagrams_AppendsWhenNoAnchor(t *testing.T) {
	diagrams := []Diagram{{Type: "sequence", Title: "API Request Flow", Code: "sequenceDiagram\n"}}

	combined := combineContentAndDiagrams("# no api section here\n", diagrams)

	assert.True(t, strings.HasSuffix(strings.TrimSpace(combined), "```"))
	assert.Contains(t, combined, "### API Request Flow")
}

func TestCalculateStatistics(t *testing.T) {
	stats := calculateStatistics("one two\nthree\n")

	assert.Equal(t, 3, stats.LineCount)
	assert.Equal(t, 3, stats.WordCount)
	assert.Equal(t, 14, stats.CharCount)
}
