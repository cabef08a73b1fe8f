package ui

import (
	"fmt"
	"net/http"

	"edaworkspace/domain/core"
	"edaworkspace/domain/filter"
	"edaworkspace/internal/chart"
	"edaworkspace/internal/errors"
	"edaworkspace/internal/fieldtree"
	"edaworkspace/internal/workspace"
	"edaworkspace/ui/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errMetadataUnavailable is shown when a study's metadata could not be loaded
var errMetadataUnavailable = errors.ExternalServiceError("subsetting", fmt.Errorf("%w: study metadata could not be loaded", core.ErrServiceUnavailable))

// workspaceFor returns the workspace loaded for the :studyId path parameter
func (s *Server) workspaceFor(c *gin.Context) (*workspace.Workspace, error) {
	ws, ok := middleware.CurrentWorkspace(c)
	if !ok {
		return nil, errors.InvalidInput("no study in request path")
	}
	return ws, nil
}

// handleIndex lists the studies
func (s *Server) handleIndex(c *gin.Context) {
	studies, err := s.container.Catalog.Studies(c.Request.Context())
	if err != nil {
		s.renderErrorPage(c, "Studies unavailable", err)
		return
	}
	s.renderTemplate(c, http.StatusOK, "index.html", gin.H{
		"Title":   "Studies",
		"Studies": studies,
	})
}

// handleWorkspace is the landing page of a study: record, description, variable tree and
// saved analyses
func (s *Server) handleWorkspace(c *gin.Context) {
	ws, err := s.workspaceFor(c)
	if err != nil {
		s.renderErrorPage(c, "Invalid study", err)
		return
	}
	heading := newHeading(ws, s.container.Catalog.Records.AttributeNames())
	if !ws.Available() {
		s.renderTemplate(c, errors.HTTPStatus(errMetadataUnavailable), "workspace.html", gin.H{
			"Title":       heading.Title,
			"Heading":     heading,
			"Unavailable": true,
		})
		return
	}

	query := c.Query("q")
	tree := fieldtree.Prune(ws.FieldTree(fieldtree.Options{}), query)

	data := gin.H{
		"Title":       heading.Title,
		"Heading":     heading,
		"Description": ws.Record.Attribute("summary"),
		"Query":       query,
		"Tree":        treeItems(ws, tree.Children, "", query != ""),
		"StartLink":   ws.MakeVariableLink("", ""),
	}
	analyses, err := ws.Analyses.List(c.Request.Context(), ws.StudyID)
	if err != nil {
		s.logger.Warn("failed to list analyses", zap.String("study_id", ws.StudyID.String()), zap.Error(err))
		data["AnalysesError"] = err.Error()
	} else {
		data["Analyses"] = analyses
	}
	s.renderTemplate(c, http.StatusOK, "workspace.html", data)
}

// handleVariableLink completes a partial variable reference and redirects to its page
func (s *Server) handleVariableLink(c *gin.Context) {
	ws, err := s.workspaceFor(c)
	if err != nil {
		s.renderErrorPage(c, "Invalid study", err)
		return
	}
	if !ws.Available() {
		c.Redirect(http.StatusFound, ws.StudyPath())
		return
	}
	c.Redirect(http.StatusFound, ws.MakeVariableLink(c.Param("entityId"), ""))
}

// handleVariable shows one variable with its distribution under the active filters
func (s *Server) handleVariable(c *gin.Context) {
	ws, err := s.workspaceFor(c)
	if err != nil {
		s.renderErrorPage(c, "Invalid study", err)
		return
	}
	if !ws.Available() {
		s.renderErrorPage(c, "Study unavailable", errMetadataUnavailable)
		return
	}
	entityID, variableID := c.Param("entityId"), c.Param("variableId")
	entity, variable, err := ws.Variable(entityID, variableID)
	if err != nil {
		s.renderErrorPage(c, "Variable not found", errors.Wrap(err, "variable not found"))
		return
	}

	filters, analysisName, err := s.pageFilters(c, ws)
	if err != nil {
		s.renderErrorPage(c, "Analysis not found", err)
		return
	}

	heading := newHeading(ws, s.container.Catalog.Records.AttributeNames())
	data := gin.H{
		"Title":    variable.DisplayName + " · " + heading.Title,
		"Heading":  heading,
		"Entity":   entity,
		"Variable": variable,
		"Filters":  filters,
		"Analysis": analysisName,
		"Tree":     treeItems(ws, ws.FieldTree(fieldtree.Options{}).Children, fieldtree.VariableTerm(entityID, variableID), false),
	}
	if !variable.IsCategory() {
		result, err := s.container.Distributions.Fetch(c.Request.Context(), ws, entityID, variableID, filters)
		if err != nil {
			data["DistributionError"] = err.Error()
		} else {
			data["Distribution"] = result
			data["Bars"] = distributionBars(result)
		}
	}
	s.renderTemplate(c, http.StatusOK, "variable.html", data)
}

// handleAnalysis renders every chart of a saved analysis; a failing chart shows its error
// in place of the chart
func (s *Server) handleAnalysis(c *gin.Context) {
	ws, err := s.workspaceFor(c)
	if err != nil {
		s.renderErrorPage(c, "Invalid study", err)
		return
	}
	if !ws.Available() {
		s.renderErrorPage(c, "Study unavailable", errMetadataUnavailable)
		return
	}
	a, err := ws.Analyses.Get(c.Request.Context(), core.AnalysisID(c.Param("analysisId")))
	if err != nil {
		s.renderErrorPage(c, "Analysis not found", err)
		return
	}

	type chartView struct {
		Name  string
		SVG   string
		Error string
	}
	var charts []chartView
	for _, r := range s.container.Charts.RunAll(c.Request.Context(), ws, a) {
		v := chartView{Name: r.Visualization.DisplayName}
		if v.Name == "" {
			v.Name = string(r.Visualization.Type)
		}
		if r.Err != nil {
			v.Error = r.Err.Error()
		} else {
			v.SVG = string(chart.SVG(r.Data, chart.PageOptions))
		}
		charts = append(charts, v)
	}

	heading := newHeading(ws, s.container.Catalog.Records.AttributeNames())
	s.renderTemplate(c, http.StatusOK, "analysis.html", gin.H{
		"Title":    a.Name + " · " + heading.Title,
		"Heading":  heading,
		"Analysis": a,
		"Charts":   charts,
	})
}

// pageFilters reads the filters of the ?analysis= query parameter, if any
func (s *Server) pageFilters(c *gin.Context, ws *workspace.Workspace) (filter.Set, string, error) {
	id := c.Query("analysis")
	if id == "" {
		return filter.Set{}, "", nil
	}
	a, err := ws.Analyses.Get(c.Request.Context(), core.AnalysisID(id))
	if err != nil {
		return nil, "", err
	}
	if a.StudyID != ws.StudyID {
		return nil, "", errors.NotFound("analysis")
	}
	return a.Filters, a.Name, nil
}
