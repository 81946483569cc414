package parser

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// httpVerbs はデコレータの属性名として認識するHTTPメソッドの語彙
var httpVerbs = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"PATCH":   true,
	"OPTIONS": true,
	"HEAD":    true,
}

// PythonParser は tree-sitter を用いた Python ソースの構造パーサ
type PythonParser struct {
	source []byte
	root   *sitter.Node // 構文エラー時は nil
}

// NewPythonParser はソースを解析して PythonParser を作成する。
// 構文エラーを含むファイルはツリーを保持せず、以降の抽出はすべて空列を返す。
func NewPythonParser(source []byte) *PythonParser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())

	tree := p.Parse(nil, source)

	pp := &PythonParser{source: source}
	if tree != nil && !tree.RootNode().HasError() {
		pp.root = tree.RootNode()
	}
	return pp
}

// Routes はデコレータ付き関数からAPIエンドポイント定義を抽出する
func (p *PythonParser) Routes() []Route {
	if p.root == nil {
		return []Route{}
	}

	routes := []Route{}
	p.walk(p.root, func(n *sitter.Node) bool {
		if n.Type() != "decorated_definition" {
			return true
		}

		def := n.ChildByFieldName("definition")
		if def == nil || def.Type() != "function_definition" {
			return true
		}

		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() != "decorator" {
				continue
			}
			if r, ok := p.parseRouteDecorator(child, def); ok {
				routes = append(routes, r)
			}
		}
		return true
	})

	return routes
}

// parseRouteDecorator はデコレータからエンドポイント情報を抽出する。
// 認識規則:
//   - @app.get("/path") のように属性名がHTTPメソッド名のとき
//   - @app.route("/path", methods=["GET"]) のように汎用ルートマーカーのとき
//
// パスが文字列リテラルでない場合（動的パス）は抽出しない。
func (p *PythonParser) parseRouteDecorator(dec *sitter.Node, fn *sitter.Node) (Route, bool) {
	call := p.decoratorExpression(dec)
	if call == nil || call.Type() != "call" {
		return Route{}, false
	}

	target := call.ChildByFieldName("function")
	if target == nil || target.Type() != "attribute" {
		return Route{}, false
	}

	attr := target.ChildByFieldName("attribute")
	if attr == nil {
		return Route{}, false
	}
	name := attr.Content(p.source)

	args := call.ChildByFieldName("arguments")

	var method string
	switch {
	case httpVerbs[strings.ToUpper(name)]:
		method = strings.ToUpper(name)

	case name == "route":
		methods := p.routeMethodsKeyword(args)
		if len(methods) == 0 {
			methods = []string{"GET"}
		}
		method = strings.Join(methods, ", ")

	default:
		return Route{}, false
	}

	path, ok := p.firstStringArgument(args)
	if !ok {
		return Route{}, false
	}

	return Route{
		Method:       method,
		Path:         path,
		FunctionName: p.definitionName(fn),
		Params:       p.functionParams(fn),
		Doc:          p.docstring(fn),
		Line:         int(fn.StartPoint().Row) + 1,
	}, true
}

// decoratorExpression は "@" に続く式ノードを返す
func (p *PythonParser) decoratorExpression(dec *sitter.Node) *sitter.Node {
	if dec.NamedChildCount() == 0 {
		return nil
	}
	return dec.NamedChild(0)
}

// firstStringArgument は引数リストの最初の位置引数が文字列リテラルならその値を返す
func (p *PythonParser) firstStringArgument(args *sitter.Node) (string, bool) {
	if args == nil {
		return "", false
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() == "keyword_argument" {
			continue
		}
		// 最初の位置引数のみを見る
		if arg.Type() == "string" && p.isLiteralString(arg) {
			return p.stringLiteral(arg), true
		}
		return "", false
	}
	return "", false
}

// isLiteralString は f-string でない純粋な文字列リテラルかどうかを返す。
// f-string は実行時にしか値が確定しないため、補間の有無にかかわらず
// リテラルとして扱わない。
func (p *PythonParser) isLiteralString(str *sitter.Node) bool {
	for i := 0; i < int(str.NamedChildCount()); i++ {
		if str.NamedChild(i).Type() == "interpolation" {
			return false
		}
	}
	if first := str.Child(0); first != nil {
		return !strings.Contains(strings.ToLower(first.Content(p.source)), "f")
	}
	return true
}

// routeMethodsKeyword は methods=["GET", ...] キーワード引数の値を抽出する
func (p *PythonParser) routeMethodsKeyword(args *sitter.Node) []string {
	if args == nil {
		return nil
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() != "keyword_argument" {
			continue
		}
		name := arg.ChildByFieldName("name")
		value := arg.ChildByFieldName("value")
		if name == nil || value == nil || name.Content(p.source) != "methods" {
			continue
		}
		if value.Type() != "list" {
			return nil
		}

		var methods []string
		for j := 0; j < int(value.NamedChildCount()); j++ {
			elt := value.NamedChild(j)
			if elt.Type() == "string" {
				methods = append(methods, p.stringLiteral(elt))
			}
		}
		return methods
	}
	return nil
}

// Models は既知のモデル基底クラスを継承するクラス定義を抽出する
func (p *PythonParser) Models() []Model {
	if p.root == nil {
		return []Model{}
	}

	models := []Model{}
	p.walk(p.root, func(n *sitter.Node) bool {
		if n.Type() != "class_definition" {
			return true
		}

		if !p.hasModelBase(n) {
			return true
		}

		models = append(models, Model{
			Name:   p.definitionName(n),
			Fields: p.classFields(n),
			Doc:    p.docstring(n),
			Line:   int(n.StartPoint().Row) + 1,
		})
		return true
	})

	return models
}

// hasModelBase は基底クラスリストに BaseModel / SQLModel が含まれるかを判定する
func (p *PythonParser) hasModelBase(cls *sitter.Node) bool {
	bases := cls.ChildByFieldName("superclasses")
	if bases == nil {
		return false
	}
	for i := 0; i < int(bases.NamedChildCount()); i++ {
		base := bases.NamedChild(i)
		if base.Type() != "identifier" {
			continue
		}
		switch base.Content(p.source) {
		case "BaseModel", "SQLModel":
			return true
		}
	}
	return false
}

// classFields はクラス本体直下の型注釈付き属性定義を抽出する
func (p *PythonParser) classFields(cls *sitter.Node) []Field {
	fields := []Field{}

	body := cls.ChildByFieldName("body")
	if body == nil {
		return fields
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
			continue
		}

		assign := stmt.NamedChild(0)
		if assign.Type() != "assignment" {
			continue
		}

		typ := assign.ChildByFieldName("type")
		if typ == nil {
			// 型注釈のない代入は属性宣言として扱わない
			continue
		}

		left := assign.ChildByFieldName("left")
		if left == nil || left.Type() != "identifier" {
			continue
		}

		field := Field{
			Name: left.Content(p.source),
			Type: typ.Content(p.source),
		}
		if right := assign.ChildByFieldName("right"); right != nil {
			field.Default = right.Content(p.source)
		}
		fields = append(fields, field)
	}

	return fields
}

// Functions はモジュールスコープの関数定義を抽出する。
// クラス配下のメソッドは所属クラス側に計上され、ここには含まれない。
// クラスへの所属判定は1回のトップダウン走査で包含スコープを追跡して行う。
func (p *PythonParser) Functions() []Function {
	if p.root == nil {
		return []Function{}
	}

	functions := []Function{}
	p.collectFunctions(p.root, false, &functions)
	return functions
}

// collectFunctions は inClass の状態を引き継ぎながらツリーを走査する
func (p *PythonParser) collectFunctions(n *sitter.Node, inClass bool, out *[]Function) {
	switch n.Type() {
	case "class_definition":
		inClass = true
	case "function_definition":
		if !inClass {
			*out = append(*out, Function{
				Name:       p.definitionName(n),
				Params:     p.functionParams(n),
				ReturnType: p.returnType(n),
				Doc:        p.docstring(n),
				Line:       int(n.StartPoint().Row) + 1,
				Async:      p.isAsync(n),
			})
		}
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		p.collectFunctions(n.NamedChild(i), inClass, out)
	}
}

// Classes はトップレベルのクラス定義を抽出する
func (p *PythonParser) Classes() []Class {
	if p.root == nil {
		return []Class{}
	}

	classes := []Class{}
	for i := 0; i < int(p.root.NamedChildCount()); i++ {
		n := p.root.NamedChild(i)
		if n.Type() == "decorated_definition" {
			if def := n.ChildByFieldName("definition"); def != nil {
				n = def
			}
		}
		if n.Type() != "class_definition" {
			continue
		}

		classes = append(classes, Class{
			Name:    p.definitionName(n),
			Bases:   p.baseNames(n),
			Methods: p.classMethods(n),
			Fields:  p.classFields(n),
			Doc:     p.docstring(n),
			Line:    int(n.StartPoint().Row) + 1,
		})
	}

	return classes
}

// baseNames は基底クラスリストのテキスト表現を返す
func (p *PythonParser) baseNames(cls *sitter.Node) []string {
	bases := []string{}
	supers := cls.ChildByFieldName("superclasses")
	if supers == nil {
		return bases
	}
	for i := 0; i < int(supers.NamedChildCount()); i++ {
		base := supers.NamedChild(i)
		if base.Type() == "keyword_argument" {
			// metaclass=... などは基底クラスではない
			continue
		}
		bases = append(bases, base.Content(p.source))
	}
	return bases
}

// classMethods はクラス本体直下のメソッド定義を抽出する
func (p *PythonParser) classMethods(cls *sitter.Node) []Method {
	methods := []Method{}

	body := cls.ChildByFieldName("body")
	if body == nil {
		return methods
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() == "decorated_definition" {
			if def := stmt.ChildByFieldName("definition"); def != nil {
				stmt = def
			}
		}
		if stmt.Type() != "function_definition" {
			continue
		}

		methods = append(methods, Method{
			Name:   p.definitionName(stmt),
			Params: p.functionParams(stmt),
			Doc:    p.docstring(stmt),
			Line:   int(stmt.StartPoint().Row) + 1,
		})
	}

	return methods
}

// Imports は import 対象のモジュール名を重複なしで返す。
// 結果は決定的になるようソートされる。
func (p *PythonParser) Imports() []string {
	if p.root == nil {
		return []string{}
	}

	seen := map[string]bool{}
	p.walk(p.root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "import_statement":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				child := n.NamedChild(i)
				switch child.Type() {
				case "dotted_name":
					seen[child.Content(p.source)] = true
				case "aliased_import":
					if name := child.ChildByFieldName("name"); name != nil {
						seen[name.Content(p.source)] = true
					}
				}
			}
		case "import_from_statement":
			if mod := n.ChildByFieldName("module_name"); mod != nil {
				name := mod.Content(p.source)
				if name != "" {
					seen[name] = true
				}
			}
		}
		return true
	})

	imports := make([]string, 0, len(seen))
	for name := range seen {
		imports = append(imports, name)
	}
	sort.Strings(imports)
	return imports
}

// definitionName は function/class 定義の名前を返す
func (p *PythonParser) definitionName(def *sitter.Node) string {
	if name := def.ChildByFieldName("name"); name != nil {
		return name.Content(p.source)
	}
	return ""
}

// functionParams は引数宣言（名前と型注釈テキスト）を抽出する
func (p *PythonParser) functionParams(fn *sitter.Node) []Param {
	params := []Param{}

	list := fn.ChildByFieldName("parameters")
	if list == nil {
		return params
	}

	for i := 0; i < int(list.NamedChildCount()); i++ {
		node := list.NamedChild(i)
		switch node.Type() {
		case "identifier":
			params = append(params, Param{Name: node.Content(p.source)})
		case "typed_parameter":
			param := Param{}
			if node.NamedChildCount() > 0 {
				param.Name = node.NamedChild(0).Content(p.source)
			}
			if typ := node.ChildByFieldName("type"); typ != nil {
				param.Type = typ.Content(p.source)
			}
			params = append(params, param)
		case "default_parameter", "typed_default_parameter":
			param := Param{}
			if name := node.ChildByFieldName("name"); name != nil {
				param.Name = name.Content(p.source)
			}
			if typ := node.ChildByFieldName("type"); typ != nil {
				param.Type = typ.Content(p.source)
			}
			params = append(params, param)
		}
	}

	return params
}

// returnType は戻り値の型注釈テキストを返す
func (p *PythonParser) returnType(fn *sitter.Node) string {
	if ret := fn.ChildByFieldName("return_type"); ret != nil {
		return ret.Content(p.source)
	}
	return ""
}

// isAsync は async def かどうかを判定する
func (p *PythonParser) isAsync(fn *sitter.Node) bool {
	for i := 0; i < int(fn.ChildCount()); i++ {
		child := fn.Child(i)
		if child.Type() == "async" {
			return true
		}
		if child.Type() == "def" {
			break
		}
	}
	return false
}

// docstring は定義本体の先頭にある文字列リテラルを返す
func (p *PythonParser) docstring(def *sitter.Node) string {
	body := def.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}

	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}

	str := first.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}

	return strings.TrimSpace(p.stringLiteral(str))
}

// stringLiteral は文字列ノードから引用符とプレフィックスを除いた値を返す
func (p *PythonParser) stringLiteral(str *sitter.Node) string {
	s := str.Content(p.source)

	// r"..." / b"..." などのプレフィックスを取り除く
	for len(s) > 0 && s[0] != '"' && s[0] != '\'' {
		s = s[1:]
	}

	for _, q := range []string{`"""`, "'''", `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}

// walk はツリーを名前付きノード単位で深さ優先に走査する
func (p *PythonParser) walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if !visit(n) {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		p.walk(n.NamedChild(i), visit)
	}
}
