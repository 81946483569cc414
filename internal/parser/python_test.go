package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPythonParser_Routes_FastAPIStyle(t *testing.T) {
	source := []byte(`
from fastapi import FastAPI

app = FastAPI()


@app.get("/users")
def list_users(limit: int = 10):
    """List all users."""
    return []
`)

	p := NewPythonParser(source)
	routes := p.Routes()

	require.Len(t, routes, 1)
	assert.Equal(t, "GET", routes[0].Method)
	assert.Equal(t, "/users", routes[0].Path)
	assert.Equal(t, "list_users", routes[0].FunctionName)
	assert.Equal(t, "List all users.", routes[0].Doc)
	require.Len(t, routes[0].Params, 1)
	assert.Equal(t, "limit", routes[0].Params[0].Name)
	assert.Equal(t, "int", routes[0].Params[0].Type)
}

func TestPythonParser_Routes_GenericRouteMarker(t *testing.T) {
	t.Run("explicit methods argument", func(t *testing.T) {
		source := []byte(`
@app.route("/items", methods=["POST", "PUT"])
def upsert_item(item):
    pass
`)
		p := NewPythonParser(source)
		routes := p.Routes()

		require.Len(t, routes, 1)
		assert.Equal(t, "POST, PUT", routes[0].Method)
		assert.Equal(t, "/items", routes[0].Path)
		assert.Equal(t, "upsert_item", routes[0].FunctionName)
		assert.Equal(t, 2, routes[0].Line)
	})

	t.Run("methods argument omitted defaults to GET", func(t *testing.T) {
		source := []byte(`
@app.route("/ping")
def ping():
    pass
`)
		p := NewPythonParser(source)
		routes := p.Routes()

		require.Len(t, routes, 1)
		assert.Equal(t, "GET", routes[0].Method)
	})
}

func TestPythonParser_Routes_DynamicPathSkipped(t *testing.T) {
	source := []byte(`
PREFIX = "/api"


@app.get(PREFIX + "/users")
def list_users():
    pass


@app.get("/ok")
def ok():
    pass
`)

	p := NewPythonParser(source)
	routes := p.Routes()

	// 動的に組み立てられたパスは解決せず、リテラルのみ抽出する
	require.Len(t, routes, 1)
	assert.Equal(t, "/ok", routes[0].Path)
}

func TestPythonParser_Routes_FStringPathSkipped(t *testing.T) {
	source := []byte(`
version = "v1"


@app.get(f"/{version}/users")
def list_users():
    pass


@app.get(f"/static")
def static_prefix():
    pass


@app.get("/plain")
def plain():
    pass
`)

	p := NewPythonParser(source)
	routes := p.Routes()

	// f-string は補間の有無にかかわらず実行時にしか確定しないため
	// リテラルとして扱わない
	require.Len(t, routes, 1)
	assert.Equal(t, "/plain", routes[0].Path)
}

func TestPythonParser_Routes_NonVerbDecoratorIgnored(t *testing.T) {
	source := []byte(`
@functools.lru_cache("unused")
def cached():
    pass


@property
def value(self):
    pass
`)

	p := NewPythonParser(source)
	assert.Empty(t, p.Routes())
}

func TestPythonParser_Routes_Idempotent(t *testing.T) {
	source := []byte(`
@app.get("/a")
def a():
    pass


@app.post("/b")
def b():
    pass
`)

	first := NewPythonParser(source).Routes()
	second := NewPythonParser(source).Routes()

	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, "/a", first[0].Path)
	assert.Equal(t, "/b", first[1].Path)
}

func TestPythonParser_Models(t *testing.T) {
	source := []byte(`
from pydantic import BaseModel


class User(BaseModel):
    """A registered user."""

    id: int
    name: str
    email: str = "unknown@example.com"


class Helper:
    value: int
`)

	p := NewPythonParser(source)
	models := p.Models()

	require.Len(t, models, 1)
	model := models[0]
	assert.Equal(t, "User", model.Name)
	assert.Equal(t, "A registered user.", model.Doc)
	require.Len(t, model.Fields, 3)
	assert.Equal(t, Field{Name: "id", Type: "int"}, model.Fields[0])
	assert.Equal(t, Field{Name: "name", Type: "str"}, model.Fields[1])
	assert.Equal(t, "email", model.Fields[2].Name)
	assert.Equal(t, `"unknown@example.com"`, model.Fields[2].Default)
}

func TestPythonParser_SyntaxError_AllExtractionsEmpty(t *testing.T) {
	source := []byte(`
def broken(:
    pass

class User(BaseModel)
    id: int
`)

	p := NewPythonParser(source)

	assert.Empty(t, p.Routes())
	assert.Empty(t, p.Models())
	assert.Empty(t, p.Functions())
	assert.Empty(t, p.Classes())
	assert.Empty(t, p.Imports())
}

func TestPythonParser_Functions_ExcludesMethods(t *testing.T) {
	source := []byte(`
def free_function(x: int) -> str:
    """Top level."""
    return str(x)


async def async_free():
    pass


class Service:
    def method(self):
        def nested_in_method():
            pass
        return None

    class Inner:
        def deeply_nested(self):
            pass
`)

	p := NewPythonParser(source)
	functions := p.Functions()

	names := make([]string, 0, len(functions))
	for _, fn := range functions {
		names = append(names, fn.Name)
	}

	// クラス配下のメソッドは（入れ子の深さによらず）自由関数に含まれない
	assert.Equal(t, []string{"free_function", "async_free"}, names)
	assert.Equal(t, "str", functions[0].ReturnType)
	assert.False(t, functions[0].Async)
	assert.True(t, functions[1].Async)
}

func TestPythonParser_Classes(t *testing.T) {
	source := []byte(`
class Repository(Base, Generic[T]):
    """Persists things."""

    table: str = "items"

    def save(self, item):
        pass

    def load(self, key: str):
        pass
`)

	p := NewPythonParser(source)
	classes := p.Classes()

	require.Len(t, classes, 1)
	cls := classes[0]
	assert.Equal(t, "Repository", cls.Name)
	assert.Equal(t, []string{"Base", "Generic[T]"}, cls.Bases)
	assert.Equal(t, "Persists things.", cls.Doc)
	require.Len(t, cls.Methods, 2)
	assert.Equal(t, "save", cls.Methods[0].Name)
	assert.Equal(t, "load", cls.Methods[1].Name)
	require.Len(t, cls.Fields, 1)
	assert.Equal(t, "table", cls.Fields[0].Name)
}

func TestPythonParser_Imports(t *testing.T) {
	source := []byte(`
import os
import os
import json as j
from pathlib import Path
from app.services import git_service
`)

	p := NewPythonParser(source)
	imports := p.Imports()

	assert.Equal(t, []string{"app.services", "json", "os", "pathlib"}, imports)
}

func TestForLanguage(t *testing.T) {
	p, ok := ForLanguage("Python", []byte("x = 1\n"))
	require.True(t, ok)
	assert.NotNil(t, p)

	_, ok = ForLanguage("COBOL", nil)
	assert.False(t, ok)
}
