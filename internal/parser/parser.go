// Package parser はソースファイルの構造解析を提供する。
// 方言（言語）ごとの実装は Parser インターフェースを満たし、
// 構文エラーのあるファイルに対してはすべての抽出メソッドが空列を返す。
package parser

// Param は関数・メソッドの引数情報を表す
type Param struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Route は抽出されたAPIエンドポイント情報を表す
type Route struct {
	Method       string  `json:"method"`
	Path         string  `json:"path"`
	FunctionName string  `json:"functionName"`
	Params       []Param `json:"parameters"`
	Doc          string  `json:"docstring,omitempty"`
	Line         int     `json:"lineNumber"`
}

// Field はデータモデルのフィールド情報を表す
type Field struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Default string `json:"default,omitempty"`
}

// Model は抽出されたデータモデル定義を表す
type Model struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
	Doc    string  `json:"docstring,omitempty"`
	Line   int     `json:"lineNumber"`
}

// Function はモジュールスコープの関数定義を表す
type Function struct {
	Name       string  `json:"name"`
	Params     []Param `json:"parameters"`
	ReturnType string  `json:"returnType,omitempty"`
	Doc        string  `json:"docstring,omitempty"`
	Line       int     `json:"lineNumber"`
	Async      bool    `json:"isAsync"`
}

// Method はクラスに属するメソッド定義を表す
type Method struct {
	Name   string  `json:"name"`
	Params []Param `json:"parameters"`
	Doc    string  `json:"docstring,omitempty"`
	Line   int     `json:"lineNumber"`
}

// Class はトップレベルのクラス定義を表す
type Class struct {
	Name    string   `json:"name"`
	Bases   []string `json:"bases"`
	Methods []Method `json:"methods"`
	Fields  []Field  `json:"attributes"`
	Doc     string   `json:"docstring,omitempty"`
	Line    int      `json:"lineNumber"`
}

// Parser は1ファイル分の構造抽出操作を定義する。
// 各操作は独立しており、方言が対応しない操作は空列を返す。
type Parser interface {
	Routes() []Route
	Models() []Model
	Functions() []Function
	Classes() []Class
	Imports() []string
}

// FileSummary は1ファイル分の構造サマリを表す
type FileSummary struct {
	Path      string     `json:"filePath"`
	LineCount int        `json:"lineCount"`
	Routes    []Route    `json:"endpoints"`
	Models    []Model    `json:"models"`
	Functions []Function `json:"functions"`
	Classes   []Class    `json:"classes"`
	Imports   []string   `json:"imports"`
}

// Summarize はパーサの全抽出操作を実行してサマリを構築する
func Summarize(path string, lineCount int, p Parser) *FileSummary {
	return &FileSummary{
		Path:      path,
		LineCount: lineCount,
		Routes:    p.Routes(),
		Models:    p.Models(),
		Functions: p.Functions(),
		Classes:   p.Classes(),
		Imports:   p.Imports(),
	}
}

// ForLanguage は言語名に対応するパーサを返す。
// 構造解析に対応しない言語の場合は ok=false を返し、
// 呼び出し側はファイル数等のメタデータのみで解析を継続する。
func ForLanguage(language string, source []byte) (Parser, bool) {
	switch language {
	case "Python":
		return NewPythonParser(source), true
	default:
		return nil, false
	}
}
