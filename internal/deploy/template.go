package deploy

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	texttemplate "text/template"
)

// The deployed document is self-contained: it loads the React runtime and
// Babel from a CDN, defines chatWithAI as an in-page helper that calls back
// to this relay's own /chat endpoint (relative URL, so the upstream
// credential never reaches the page), and mounts the user code as the root
// component.
var pageTemplate = texttemplate.Must(texttemplate.New("deployed").Parse(`<!DOCTYPE html>
<html lang="ko">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <script src="https://unpkg.com/react@18/umd/react.production.min.js"></script>
  <script src="https://unpkg.com/react-dom@18/umd/react-dom.production.min.js"></script>
  <script src="https://unpkg.com/@babel/standalone/babel.min.js"></script>
  <script src="https://cdn.tailwindcss.com"></script>
</head>
<body>
  <div id="root"></div>
  <script>
    async function chatWithAI(message, options) {
      options = options || {};
      const res = await fetch('/chat', {
        method: 'POST',
        headers: { 'Content-Type': 'application/json' },
        body: JSON.stringify(Object.assign({ message: message }, options))
      });
      const data = await res.json();
      if (!res.ok) {
        throw new Error(data.message || data.error || 'AI request failed');
      }
      return data;
    }
  </script>
  <script type="text/babel" data-presets="env,react">
{{.Code}}

    const __root = ReactDOM.createRoot(document.getElementById('root'));
    __root.render(React.createElement(App));
  </script>
</body>
</html>
`))

var (
	importLine    = regexp.MustCompile(`(?m)^\s*import\s+.*$`)
	exportDefault = regexp.MustCompile(`export\s+default\s+function\s+App`)
)

// Render wraps user-authored component code in the fixed page document.
// Generated code arrives in module form ("import ... from 'react'",
// "export default function App"); the page runs it as a plain Babel script,
// so import lines are stripped (React, ReactDOM and chatWithAI are already
// globals) and the default export is unwrapped.
func Render(code string) (string, error) {
	cleaned := importLine.ReplaceAllString(code, "")
	cleaned = exportDefault.ReplaceAllString(cleaned, "function App")
	cleaned = strings.TrimSpace(cleaned)

	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Title string
		Code  string
	}{
		Title: "AI App",
		Code:  cleaned,
	})
	if err != nil {
		return "", fmt.Errorf("render deployment page: %w", err)
	}

	return buf.String(), nil
}

// NotFoundPage is served for dead or mistyped deployment links so a user
// clicking one sees a styled message instead of a raw error. The requested
// ID is shown for support lookups.
func NotFoundPage(id string) string {
	escaped := template.HTMLEscapeString(id)
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="ko">
<head>
  <meta charset="utf-8">
  <title>App Not Found</title>
  <script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-gray-900 text-white flex items-center justify-center min-h-screen">
  <div class="text-center">
    <h1 class="text-4xl font-bold mb-4">앱을 찾을 수 없습니다</h1>
    <p class="text-gray-400 mb-2">프로젝트 ID: %s</p>
    <p class="text-sm text-gray-500">링크가 만료되었거나 잘못 입력되었을 수 있습니다.</p>
  </div>
</body>
</html>
`, escaped)
}
