package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// enrichTemperature は解析用プロンプトのサンプリング温度
	enrichTemperature = 0.3

	// enrichMaxTokens は解析レスポンスの最大トークン数
	enrichMaxTokens = 2000

	// enrichMaxEndpoints はプロンプトに載せるエンドポイント数の上限
	enrichMaxEndpoints = 20
)

// EnrichWithLLM は外部コラボレータによる解析の強化を試みる。
// 応答はJSONとしてベストエフォートで解釈し、呼び出し失敗・解釈失敗は
// いずれも空のオブジェクトに縮退する。エラーは返さない。
func (a *Analyzer) EnrichWithLLM(ctx context.Context, analysis *Analysis) map[string]any {
	prompt := a.buildEnrichmentPrompt(analysis)

	response, err := a.llm.GenerateText(ctx, prompt, enrichTemperature, enrichMaxTokens)
	if err != nil {
		a.logger.Warn("enrichment call failed", "error", err)
		return map[string]any{}
	}

	enhanced, err := extractJSONObject(response)
	if err != nil {
		a.logger.Warn("failed to parse enrichment response", "error", err)
		return map[string]any{}
	}

	return enhanced
}

// buildEnrichmentPrompt は解析サマリから強化用プロンプトを構築する
func (a *Analyzer) buildEnrichmentPrompt(analysis *Analysis) string {
	var b strings.Builder

	b.WriteString("You are a software architecture analyst. Analyze the repository summary below\n")
	b.WriteString("and respond with a single JSON object containing the keys:\n")
	b.WriteString(`"purpose", "key_features" (array), "architecture_notes", "target_audience".` + "\n\n")

	fmt.Fprintf(&b, "Repository: %s (%s)\n", analysis.Repository.Name, analysis.Repository.URL)
	fmt.Fprintf(&b, "Languages: %s\n", strings.Join(analysis.Languages, ", "))
	fmt.Fprintf(&b, "Frameworks: %s\n", strings.Join(analysis.Frameworks, ", "))
	fmt.Fprintf(&b, "Project type: %s\n", analysis.ProjectType)
	fmt.Fprintf(&b, "Files: %d, Lines: %d\n", analysis.TotalFiles, analysis.TotalLines)

	if len(analysis.Code.Endpoints) > 0 {
		b.WriteString("\nEndpoints:\n")
		for i, route := range analysis.Code.Endpoints {
			if i >= enrichMaxEndpoints {
				fmt.Fprintf(&b, "... and %d more\n", len(analysis.Code.Endpoints)-enrichMaxEndpoints)
				break
			}
			fmt.Fprintf(&b, "- %s %s (%s)\n", route.Method, route.Path, route.FunctionName)
		}
	}

	if len(analysis.Code.Models) > 0 {
		b.WriteString("\nData models:\n")
		for _, model := range analysis.Code.Models {
			fmt.Fprintf(&b, "- %s (%d fields)\n", model.Name, len(model.Fields))
		}
	}

	return b.String()
}

// extractJSONObject は応答テキストから最初の '{' と最後の '}' の間を
// JSONオブジェクトとして解釈する
func extractJSONObject(response string) (map[string]any, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(response[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode enrichment JSON: %w", err)
	}

	return parsed, nil
}
