package ui

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"edaworkspace/domain/study"
	"edaworkspace/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"go.uber.org/zap"
)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"markdown": renderMarkdown,
		"icon":     variableIcon,
		"pct": func(f float64) string {
			return fmt.Sprintf("%.1f%%", f*100)
		},
		"svg": func(s string) template.HTML {
			// thumbnails are produced by internal/chart, never user input
			return template.HTML(s)
		},
		"add":   func(a, b int) int { return a + b },
		"upper": strings.ToUpper,
	}
}

// renderMarkdown turns study descriptions into HTML; raw HTML in the source is dropped
func renderMarkdown(source string) template.HTML {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.SkipHTML | mdhtml.HrefTargetBlank,
	})
	return template.HTML(markdown.ToHTML([]byte(source), p, renderer))
}

// variableIcon names the glyph shown next to a field in the variable tree
func variableIcon(t study.VariableType) string {
	switch t {
	case study.TypeNumber, study.TypeInteger:
		return "#"
	case study.TypeDate:
		return "◷"
	case study.TypeLongitude:
		return "⊕"
	case study.TypeCategory:
		return "▸"
	case study.TypeString:
		return "Aa"
	}
	return "•"
}

// renderTemplate executes a template into a buffer first so a failure never sends half a page
func (s *Server) renderTemplate(c *gin.Context, status int, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		s.logger.Error("template error", zap.String("template", templateName), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Template rendering failed"})
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// respondError maps an error to its HTTP status and a JSON body
func (s *Server) respondError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": errors.GetCode(err)})
}

// renderErrorPage shows the error panel in place of a page that could not be built
func (s *Server) renderErrorPage(c *gin.Context, title string, err error) {
	status := errors.HTTPStatus(err)
	s.logger.Warn("page unavailable", zap.String("path", c.Request.URL.Path), zap.Error(err))
	s.renderTemplate(c, status, "error.html", gin.H{
		"Title":   title,
		"Message": err.Error(),
	})
}
