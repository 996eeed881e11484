package deploy

import (
	"strings"
	"testing"
)

func TestRender_WrapsCode(t *testing.T) {
	code := "function App() { return React.createElement('h1', null, 'marker-123'); }"

	html, err := Render(code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(html, code) {
		t.Error("rendered page does not contain the user code")
	}
	if !strings.Contains(html, "chatWithAI") {
		t.Error("rendered page does not define chatWithAI")
	}
	if !strings.Contains(html, "'/chat'") {
		t.Error("chatWithAI must call the relative /chat endpoint")
	}
	if !strings.Contains(html, "react-dom") {
		t.Error("rendered page does not load the React runtime")
	}
	if !strings.Contains(html, "text/babel") {
		t.Error("user code must run under Babel")
	}
}

func TestRender_StripsModuleSyntax(t *testing.T) {
	code := "import React from 'react';\nimport { useState } from 'react';\n\nexport default function App() { return null; }"

	html, err := Render(code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(html, "import React") {
		t.Error("import lines must be stripped")
	}
	if strings.Contains(html, "export default") {
		t.Error("default export must be unwrapped")
	}
	if !strings.Contains(html, "function App() { return null; }") {
		t.Error("component body must survive the rewrite")
	}
}

func TestNotFoundPage(t *testing.T) {
	page := NotFoundPage("aB3dE5fG7h")

	if !strings.Contains(page, "aB3dE5fG7h") {
		t.Error("page must show the requested id")
	}
	if !strings.Contains(page, "<!DOCTYPE html>") {
		t.Error("page must be a full HTML document")
	}
}

func TestNotFoundPage_EscapesID(t *testing.T) {
	page := NotFoundPage(`<script>alert(1)</script>`)

	if strings.Contains(page, "<script>alert(1)</script>") {
		t.Error("id must be HTML-escaped")
	}
	if !strings.Contains(page, "&lt;script&gt;") {
		t.Error("escaped id must still be shown")
	}
}
