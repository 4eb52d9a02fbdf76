package publish

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		emoji.Emoji,
	),
	goldmark.WithRendererOptions(
		// Raw HTML in task text or comments is dropped, not passed through.
		html.WithHardWraps(),
	),
)

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; color: #222; }
h2 { border-bottom: 1px solid #ddd; padding-bottom: .25rem; }
h3 { margin-bottom: .25rem; }
ul { padding-left: 1.25rem; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// RenderHTML converts exported markdown into a standalone HTML page.
func RenderHTML(title, md string) (string, error) {
	var body bytes.Buffer
	if err := markdownRenderer.Convert([]byte(md), &body); err != nil {
		return "", err
	}
	var out bytes.Buffer
	err := pageTemplate.Execute(&out, struct {
		Title string
		// goldmark output is trusted only because raw HTML is disabled above.
		Body template.HTML
	}{Title: title, Body: template.HTML(body.String())})
	if err != nil {
		return "", err
	}
	return out.String(), nil
}
