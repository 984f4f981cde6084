package ui

import (
	"bytes"
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"attritionboard/domain/dataset"
	"attritionboard/internal/errors"
	"attritionboard/internal/pipeline"
	"attritionboard/internal/report"
)

// pageData is what the dashboard templates render.
type pageData struct {
	*pipeline.ChartData
	Error string
	Code  string
}

func (s *Server) compute(c *gin.Context) (*pipeline.ChartData, error) {
	var sel dataset.Selection
	if err := c.ShouldBindQuery(&sel); err != nil {
		return nil, errors.InvalidInput(err.Error())
	}
	ds, err := s.provider.Dataset(c.Request.Context())
	if err != nil {
		return nil, err
	}
	return s.pipeline.Compute(c.Request.Context(), ds, sel)
}

func (s *Server) handleIndex(c *gin.Context) {
	data, err := s.compute(c)
	if err != nil {
		log.Printf("[Dashboard] %v", err)
		s.renderTemplate(c, errors.HTTPStatus(err), "index.html", pageData{
			ChartData: &pipeline.ChartData{Title: s.pipeline.Profile().Title},
			Error:     err.Error(),
			Code:      errors.GetCode(err),
		})
		return
	}
	s.renderTemplate(c, http.StatusOK, "index.html", pageData{ChartData: data})
}

func (s *Server) handleFragmentCharts(c *gin.Context) {
	data, err := s.compute(c)
	if err != nil {
		s.renderTemplate(c, errors.HTTPStatus(err), "error.html", pageData{Error: err.Error(), Code: errors.GetCode(err)})
		return
	}
	if !isHTMX(c) {
		log.Printf("[Dashboard] fragment requested outside htmx")
	}
	s.renderTemplate(c, http.StatusOK, "charts.html", pageData{ChartData: data})
}

func (s *Server) handleReport(c *gin.Context) {
	data, err := s.compute(c)
	if err != nil {
		c.JSON(errors.HTTPStatus(err), gin.H{"error": err.Error(), "code": errors.GetCode(err)})
		return
	}
	s.renderTemplate(c, http.StatusOK, "report.html", gin.H{
		"Title": data.Title,
		"Body":  template.HTML(report.HTML(report.Markdown(data))),
	})
}

// handleChartPNG renders one of the bar or donut charts server-side.
func (s *Server) handleChartPNG(c *gin.Context) {
	name, ok := strings.CutSuffix(c.Param("file"), ".png")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "charts are served as .png", "code": errors.CodeNotFound})
		return
	}
	data, err := s.compute(c)
	if err != nil {
		c.JSON(errors.HTTPStatus(err), gin.H{"error": err.Error(), "code": errors.GetCode(err)})
		return
	}

	var buf bytes.Buffer
	if err := s.pipeline.RenderPNG(&buf, name, data); err != nil {
		c.JSON(errors.HTTPStatus(err), gin.H{"error": err.Error(), "code": errors.GetCode(err)})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) handleDatasetStatus(c *gin.Context) {
	st := s.provider.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":      st.State,
		"source":      st.Source,
		"rows":        st.Rows,
		"hash":        st.Hash,
		"error":       st.Error,
		"lastUpdated": st.UpdatedAt.Format("2006-01-02 15:04:05"),
	})
}
