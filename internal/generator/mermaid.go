package generator

import (
	"fmt"
	"strings"

	"github.com/jinford/repodoc/internal/parser"
)

const (
	maxSequenceEndpoints = 10
	maxERModels          = 5
	maxERFields          = 10
	maxClassDiagram      = 5
)

// Diagram は生成されたMermaid図を表す
type Diagram struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Code  string `json:"code"`
}

// sequenceDiagram はAPIエンドポイントのシーケンス図を生成する
func sequenceDiagram(endpoints []parser.Route, title string) string {
	var b strings.Builder

	b.WriteString("sequenceDiagram\n")
	fmt.Fprintf(&b, "    title %s\n", title)
	b.WriteString("    participant Client\n")
	b.WriteString("    participant API\n")
	b.WriteString("    participant Database\n\n")

	for i, endpoint := range endpoints {
		if i >= maxSequenceEndpoints {
			break
		}

		fmt.Fprintf(&b, "    Client->>+API: %s %s\n", endpoint.Method, endpoint.Path)
		if endpoint.Doc != "" {
			note := strings.SplitN(endpoint.Doc, "\n", 2)[0]
			fmt.Fprintf(&b, "    Note right of API: %s\n", note)
		}

		switch {
		case strings.Contains(endpoint.Method, "POST"),
			strings.Contains(endpoint.Method, "PUT"),
			strings.Contains(endpoint.Method, "DELETE"),
			strings.Contains(endpoint.Method, "PATCH"):
			b.WriteString("    API->>+Database: Store/Update Data\n")
			b.WriteString("    Database-->>-API: Confirmation\n")
		case strings.Contains(endpoint.Method, "GET"):
			b.WriteString("    API->>+Database: Query Data\n")
			b.WriteString("    Database-->>-API: Return Data\n")
		}

		b.WriteString("    API-->>-Client: Response\n\n")
	}

	return b.String()
}

// erDiagram はデータモデルのER図を生成する
func erDiagram(models []parser.Model) string {
	var b strings.Builder
	b.WriteString("erDiagram\n")

	for i, model := range models {
		if i >= maxERModels {
			break
		}

		fmt.Fprintf(&b, "    %s {\n", model.Name)
		for j, field := range model.Fields {
			if j >= maxERFields {
				break
			}
			fieldType := field.Type
			if fieldType == "" {
				fieldType = "string"
			}
			fmt.Fprintf(&b, "        %s %s\n", fieldType, field.Name)
		}
		b.WriteString("    }\n\n")
	}

	return b.String()
}

// architectureDiagram はフレームワーク構成から概略図を生成する
func architectureDiagram(frameworks []string, title string) string {
	var b strings.Builder
	joined := strings.ToLower(strings.Join(frameworks, " "))

	b.WriteString("graph TB\n")
	fmt.Fprintf(&b, "    title[%s]\n\n", title)

	b.WriteString("    Client[Client Application]\n")
	b.WriteString("    API[API Server]\n")
	b.WriteString("    Client -->|HTTP Requests| API\n\n")

	if strings.Contains(joined, "sqlalchemy") || strings.Contains(joined, "database") {
		b.WriteString("    DB[(Database)]\n")
		b.WriteString("    API -->|Queries| DB\n\n")
	}

	return b.String()
}

// classDiagram はクラス構造図を生成する
func classDiagram(classes []parser.Class) string {
	var b strings.Builder
	b.WriteString("classDiagram\n")

	for i, cls := range classes {
		if i >= maxClassDiagram {
			break
		}

		fmt.Fprintf(&b, "    class %s {\n", cls.Name)
		for j, field := range cls.Fields {
			if j >= 5 {
				break
			}
			fieldType := field.Type
			if fieldType == "" {
				fieldType = "any"
			}
			fmt.Fprintf(&b, "        +%s %s\n", fieldType, field.Name)
		}
		for j, method := range cls.Methods {
			if j >= 5 {
				break
			}
			fmt.Fprintf(&b, "        +%s()\n", method.Name)
		}
		b.WriteString("    }\n\n")
	}

	return b.String()
}

// flowchart は処理ステップのフローチャートを生成する
func flowchart(steps []string, title string) string {
	var b strings.Builder

	b.WriteString("flowchart TD\n")
	fmt.Fprintf(&b, "    Start([%s])\n", title)

	for i, step := range steps {
		id := fmt.Sprintf("Step%d", i+1)
		fmt.Fprintf(&b, "    %s[%s]\n", id, step)
		if i == 0 {
			fmt.Fprintf(&b, "    Start --> %s\n", id)
		} else {
			fmt.Fprintf(&b, "    Step%d --> %s\n", i, id)
		}
	}

	if len(steps) > 0 {
		fmt.Fprintf(&b, "    Step%d --> End([Complete])\n", len(steps))
	}

	return b.String()
}

// wrapDiagram はMermaidコードをMarkdownコードブロックに包む
func wrapDiagram(code, title string) string {
	return fmt.Sprintf("### %s\n\n```mermaid\n%s```\n", title, code)
}
