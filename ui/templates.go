package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
		"add": func(a, b int) int { return a + b },
		// spec marshals a chart spec for a data attribute.
		"spec": func(v interface{}) string {
			raw, err := json.Marshal(v)
			if err != nil {
				log.Printf("[Templates] marshal spec: %v", err)
				return "{}"
			}
			return string(raw)
		},
		"selected": func(a, b string) bool { return a == b },
	}
}

// renderTemplate executes a template with the given data
func (s *Server) renderTemplate(c *gin.Context, status int, templateName string, data interface{}) {
	// Render to a buffer first so a template error never leaves a half-written page.
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		log.Printf("Template error for %s: %v", templateName, err)
		log.Printf("Template data type: %T", data)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Template rendering failed", "details": err.Error()})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Writer.WriteHeader(status)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		log.Printf("Error writing template response: %v", err)
	}
}

// isHTMX reports whether the request came from an htmx swap.
func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}
