package web

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"orgtree/internal/docs"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
)

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		emoji.Emoji,
	),
	goldmark.WithRendererOptions(
		// Raw HTML passthrough stays off (no html.WithUnsafe()).
		html.WithHardWraps(),
	),
)

func renderMarkdownHTML(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return template.HTML("")
	}
	var b bytes.Buffer
	if err := markdownRenderer.Convert([]byte(src), &b); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	return template.HTML(b.String())
}

var docsPage = template.Must(template.New("docs").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}} · orgtree</title></head>
<body>
<nav>{{range .Topics}}<a href="/docs/{{.Name}}">{{.Title}}</a> {{end}}</nav>
<main>{{.Body}}</main>
</body></html>
`))

type docsTopicVM struct {
	Name  string
	Title string
}

type docsVM struct {
	Title  string
	Topics []docsTopicVM
	Body   template.HTML
}

func docsTopics() []docsTopicVM {
	var out []docsTopicVM
	for _, t := range docs.Topics() {
		out = append(out, docsTopicVM{Name: t, Title: docs.Title(t)})
	}
	return out
}

func (s *Server) handleDocsIndex(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	b.WriteString("# orgtree\n\n")
	for _, t := range docsTopics() {
		b.WriteString("- [" + t.Title + "](/docs/" + t.Name + ")\n")
	}
	s.renderDocs(w, docsVM{Title: "orgtree", Topics: docsTopics(), Body: renderMarkdownHTML(b.String())})
}

func (s *Server) handleDocsTopic(w http.ResponseWriter, r *http.Request) {
	topic := r.PathValue("topic")
	body, ok := docs.Get(topic)
	if !ok {
		http.Error(w, "unknown topic", http.StatusNotFound)
		return
	}
	s.renderDocs(w, docsVM{Title: docs.Title(topic), Topics: docsTopics(), Body: renderMarkdownHTML(body)})
}

func (s *Server) renderDocs(w http.ResponseWriter, vm docsVM) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := docsPage.Execute(w, vm); err != nil {
		s.log.Warn("render docs", zap.Error(err))
	}
}
