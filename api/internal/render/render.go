// Package render turns a solution (Markdown with $…$ / $$…$$ math) into HTML.
// Math spans are emitted as MathJax-delimited elements and typeset by the page.
package render

import (
	"bytes"
	"html"
	"html/template"
	"log"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		math{},
	),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// Render never fails; on a converter error the escaped source is shown as-is.
func Render(source string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		log.Printf("render: %v", err)
		return template.HTML("<pre>" + html.EscapeString(source) + "</pre>")
	}
	return template.HTML(buf.String())
}
