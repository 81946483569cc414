package generator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/jinford/repodoc/internal/analyzer"
)

const (
	// promptEncoding はトークン数の計測に使うエンコーディング
	promptEncoding = "cl100k_base"

	// maxPromptTokens はプロンプト全体のトークン予算
	maxPromptTokens = 6000

	// maxPromptEndpoints はプロンプトに列挙するエンドポイント数の上限
	maxPromptEndpoints = 20
)

// buildPrompt は解析レコードとオプションからREADME生成プロンプトを構築する。
// 可変長ブロック（エンドポイント一覧）はトークン予算内に収まるよう切り詰める。
func (g *Generator) buildPrompt(analysis *analyzer.Analysis, opts *Options) string {
	header := g.promptHeader(analysis, opts)
	guidelines := strings.Join([]string{
		styleGuidelines(opts.Style),
		lengthGuidelines(opts.Length),
		sectionGuidelines(opts.Sections),
	}, "\n")

	endpointBlock := endpointsSummary(analysis)
	structureBlock := codeStructure(analysis)

	budget := maxPromptTokens - g.countTokens(header) - g.countTokens(guidelines)
	for budget > 0 && g.countTokens(endpointBlock+structureBlock) > budget {
		endpointBlock = truncateLines(endpointBlock, 0.8)
		structureBlock = truncateLines(structureBlock, 0.8)
	}

	return strings.Join([]string{header, endpointBlock, structureBlock, guidelines}, "\n\n")
}

// promptHeader はプロジェクトの基本情報ブロックを構築する
func (g *Generator) promptHeader(analysis *analyzer.Analysis, opts *Options) string {
	var b strings.Builder

	b.WriteString("Generate a complete README.md in Markdown for the repository described below.\n\n")
	fmt.Fprintf(&b, "Project name: %s\n", analysis.Repository.Name)
	fmt.Fprintf(&b, "Repository URL: %s\n", analysis.Repository.URL)
	fmt.Fprintf(&b, "Languages: %s\n", strings.Join(analysis.Languages, ", "))
	fmt.Fprintf(&b, "Frameworks: %s\n", strings.Join(analysis.Frameworks, ", "))
	fmt.Fprintf(&b, "Project type: %s\n", analysis.ProjectType)
	fmt.Fprintf(&b, "Total files: %d, total lines: %d\n", analysis.TotalFiles, analysis.TotalLines)

	includeExamples := "No"
	if opts.IncludeExamples {
		includeExamples = "Yes"
	}
	fmt.Fprintf(&b, "Include code examples: %s\n", includeExamples)

	if opts.CustomInstructions != "" {
		fmt.Fprintf(&b, "\nAdditional instructions from the user:\n%s\n", opts.CustomInstructions)
	}

	if len(analysis.Enhanced) > 0 {
		b.WriteString("\nAnalyst notes:\n")
		keys := make([]string, 0, len(analysis.Enhanced))
		for key := range analysis.Enhanced {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(&b, "- %s: %v\n", key, analysis.Enhanced[key])
		}
	}

	return b.String()
}

// endpointsSummary はエンドポイント一覧ブロックを構築する
func endpointsSummary(analysis *analyzer.Analysis) string {
	endpoints := analysis.Code.Endpoints
	if len(endpoints) == 0 {
		return "No API endpoints detected."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Total API Endpoints: %d**\n\n", len(endpoints))

	byMethod := map[string]int{}
	for _, endpoint := range endpoints {
		byMethod[endpoint.Method]++
	}
	methods := make([]string, 0, len(byMethod))
	for method := range byMethod {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	b.WriteString("By HTTP method:\n")
	for _, method := range methods {
		fmt.Fprintf(&b, "- %s: %d\n", method, byMethod[method])
	}
	b.WriteString("\n")

	for i, endpoint := range endpoints {
		if i >= maxPromptEndpoints {
			fmt.Fprintf(&b, "\n... and %d more endpoints\n", len(endpoints)-maxPromptEndpoints)
			break
		}

		fmt.Fprintf(&b, "%d. **%s %s**\n", i+1, endpoint.Method, endpoint.Path)
		fmt.Fprintf(&b, "   - Function: `%s` (line %d)\n", endpoint.FunctionName, endpoint.Line)
		if endpoint.Doc != "" {
			fmt.Fprintf(&b, "   - Description: %s\n", strings.SplitN(endpoint.Doc, "\n", 2)[0])
		}
	}

	return b.String()
}

// codeStructure はコード構造の概要ブロックを構築する
func codeStructure(analysis *analyzer.Analysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "- Data Models: %d\n", len(analysis.Code.Models))
	fmt.Fprintf(&b, "- Classes: %d\n", len(analysis.Code.Classes))
	fmt.Fprintf(&b, "- Functions: %d\n", len(analysis.Code.Functions))

	if len(analysis.Code.Models) > 0 {
		b.WriteString("\nKey Data Models:\n")
		for i, model := range analysis.Code.Models {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "  - %s\n", model.Name)
		}
	}

	return b.String()
}

// styleGuidelines はスタイルごとの執筆指針を返す
func styleGuidelines(style Style) string {
	switch style {
	case StyleBeginnerFriendly:
		return `Style guidelines:
- Use clear, simple language
- Explain technical concepts when they appear
- Provide step-by-step instructions
- Add helpful notes and tips`
	case StyleComprehensive:
		return `Style guidelines:
- Provide maximum detail and coverage
- Include both high-level overview and detailed specifics
- Cover all use cases and scenarios
- Document edge cases and limitations`
	default:
		return `Style guidelines:
- Use precise technical terminology
- Assume reader has development experience
- Focus on implementation details and technical accuracy
- Include detailed API specifications`
	}
}

// lengthGuidelines は長さごとの分量指針を返す
func lengthGuidelines(length Length) string {
	switch length {
	case LengthShort:
		return `Length guidelines:
- Target: 100-300 lines
- Focus on essentials only
- Minimal examples`
	case LengthDetailed:
		return `Length guidelines:
- Target: 600-1000+ lines
- Comprehensive coverage of all aspects
- Multiple examples per section
- Include advanced usage patterns`
	default:
		return `Length guidelines:
- Target: 300-600 lines
- Balanced coverage of all sections
- Include key examples`
	}
}

// sectionHeadings はセクションタグと見出しの対応表
var sectionHeadings = map[Section]string{
	SectionOverview:         "Overview",
	SectionFeatures:         "Features",
	SectionInstallation:     "Installation",
	SectionConfiguration:    "Configuration",
	SectionAPIDocumentation: "API Documentation",
	SectionUsageExamples:    "Usage Examples",
	SectionArchitecture:     "Architecture",
	SectionContributing:     "Contributing",
	SectionLicense:          "License",
	SectionTroubleshooting:  "Troubleshooting",
	SectionFAQ:              "FAQ",
}

// sectionGuidelines は選択されたセクションのみを順序どおりに生成させる指針を返す
func sectionGuidelines(sections []Section) string {
	var b strings.Builder

	b.WriteString("**GENERATE ONLY THESE SECTIONS IN THIS ORDER:**\n")
	for i, section := range sections {
		heading, ok := sectionHeadings[section]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%d. ## %s\n", i+1, heading)
	}
	b.WriteString("\n**DO NOT include any sections not listed above.**")

	return b.String()
}

// countTokens はテキストのトークン数を計測する。
// エンコーディングが利用できない環境では文字数からの概算に縮退する。
func (g *Generator) countTokens(text string) int {
	if g.encoding != nil {
		return len(g.encoding.Encode(text, nil, nil))
	}
	return len(text) / 4
}

// truncateLines はブロックの行数を指定比率まで切り詰める
func truncateLines(block string, ratio float64) string {
	lines := strings.Split(block, "\n")
	keep := int(float64(len(lines)) * ratio)
	if keep >= len(lines) {
		keep = len(lines) - 1
	}
	if keep < 1 {
		return ""
	}
	return strings.Join(lines[:keep], "\n")
}

// newEncoding はトークンカウント用のエンコーディングを初期化する
func newEncoding() *tiktoken.Tiktoken {
	enc, err := tiktoken.GetEncoding(promptEncoding)
	if err != nil {
		return nil
	}
	return enc
}
