package web

import (
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in user text is escaped; goldmark drops it unless WithUnsafe is
// set.
var md = goldmark.New(
	goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

func renderMarkdown(content string) template.HTML {
	var buf strings.Builder
	if err := md.Convert([]byte(content), &buf); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(content) + "</p>")
	}
	return template.HTML(buf.String())
}
