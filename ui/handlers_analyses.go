package ui

import (
	"encoding/json"
	"net/http"

	"edaworkspace/domain/analysis"
	"edaworkspace/domain/core"
	"edaworkspace/domain/filter"
	vis "edaworkspace/domain/visualization"
	"edaworkspace/internal/chart"
	"edaworkspace/internal/errors"
	"edaworkspace/internal/visualization"
	"edaworkspace/internal/workspace"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type analysisRequest struct {
	Name        string     `json:"displayName"`
	Description string     `json:"description"`
	Filters     filter.Set `json:"filters"`
}

type visualizationRequest struct {
	ID          string          `json:"visualizationId"`
	Type        string          `json:"type"`
	DisplayName string          `json:"displayName"`
	Config      json.RawMessage `json:"configuration"`
}

type chartResult struct {
	Visualization vis.Visualization        `json:"visualization"`
	Data          *visualization.ChartData `json:"data,omitempty"`
	Error         string                   `json:"error,omitempty"`
	Code          string                   `json:"code,omitempty"`
}

func (s *Server) handleListAnalyses(c *gin.Context) {
	ws, err := s.workspaceFor(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	summaries, err := s.container.Analyses.List(c.Request.Context(), ws.StudyID)
	if err != nil {
		s.respondError(c, errors.Wrap(err, "failed to list analyses"))
		return
	}
	if summaries == nil {
		summaries = []analysis.Summary{}
	}
	c.JSON(http.StatusOK, gin.H{"analyses": summaries})
}

func (s *Server) handleCreateAnalysis(c *gin.Context) {
	ws, ok := s.availableWorkspace(c)
	if !ok {
		return
	}
	var req analysisRequest
	if !s.bindFilters(c, ws, &req, func() filter.Set { return req.Filters }) {
		return
	}
	a := analysis.New(ws.StudyID, req.Name)
	a.Description = req.Description
	a.Filters = req.Filters.OrEmpty()
	if err := s.container.Analyses.Create(c.Request.Context(), a); err != nil {
		s.respondError(c, errors.Wrap(err, "failed to create analysis"))
		return
	}
	s.logger.Info("analysis created", zap.String("analysis_id", a.ID.String()), zap.String("study_id", ws.StudyID.String()))
	c.JSON(http.StatusCreated, a)
}

// loadAnalysis reads the :analysisId analysis and the workspace of its study
func (s *Server) loadAnalysis(c *gin.Context) (*analysis.Analysis, *workspace.Workspace, bool) {
	id, err := core.ParseAnalysisID(c.Param("analysisId"))
	if err != nil {
		s.respondError(c, errors.InvalidInput(err.Error()))
		return nil, nil, false
	}
	a, err := s.container.Analyses.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, errors.Wrap(err, "failed to load analysis"))
		return nil, nil, false
	}
	ws := s.container.Workspace(c.Request.Context(), a.StudyID)
	if !ws.Available() {
		s.respondError(c, errMetadataUnavailable)
		return nil, nil, false
	}
	return a, ws, true
}

func (s *Server) handleGetAnalysis(c *gin.Context) {
	id, err := core.ParseAnalysisID(c.Param("analysisId"))
	if err != nil {
		s.respondError(c, errors.InvalidInput(err.Error()))
		return
	}
	a, err := s.container.Analyses.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, errors.Wrap(err, "failed to load analysis"))
		return
	}
	c.JSON(http.StatusOK, a)
}

// handleUpdateAnalysis replaces the name, description and filters; charts are edited
// through the visualization routes
func (s *Server) handleUpdateAnalysis(c *gin.Context) {
	a, ws, ok := s.loadAnalysis(c)
	if !ok {
		return
	}
	req := analysisRequest{Name: a.Name, Description: a.Description, Filters: a.Filters}
	if !s.bindFilters(c, ws, &req, func() filter.Set { return req.Filters }) {
		return
	}
	if req.Name != "" {
		a.Name = req.Name
	}
	a.Description = req.Description
	a.Filters = req.Filters.OrEmpty()
	a.Touch()
	if err := s.container.Analyses.Update(c.Request.Context(), a); err != nil {
		s.respondError(c, errors.Wrap(err, "failed to update analysis"))
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) handleDeleteAnalysis(c *gin.Context) {
	id, err := core.ParseAnalysisID(c.Param("analysisId"))
	if err != nil {
		s.respondError(c, errors.InvalidInput(err.Error()))
		return
	}
	if err := s.container.Analyses.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, errors.Wrap(err, "failed to delete analysis"))
		return
	}
	s.logger.Info("analysis deleted", zap.String("analysis_id", id.String()))
	c.Status(http.StatusNoContent)
}

// handleAnalysisCharts computes every chart of an analysis; failures are reported per chart
func (s *Server) handleAnalysisCharts(c *gin.Context) {
	a, ws, ok := s.loadAnalysis(c)
	if !ok {
		return
	}
	results := s.container.Charts.RunAll(c.Request.Context(), ws, a)
	out := make([]chartResult, 0, len(results))
	for _, r := range results {
		cr := chartResult{Visualization: r.Visualization, Data: r.Data}
		if r.Err != nil {
			cr.Error = r.Err.Error()
			cr.Code = errors.GetCode(r.Err)
		}
		out = append(out, cr)
	}
	c.JSON(http.StatusOK, gin.H{"charts": out})
}

// handlePutVisualization adds or replaces a chart. The configuration must validate; the
// thumbnail is left empty when the chart cannot be computed right now.
func (s *Server) handlePutVisualization(c *gin.Context) {
	a, ws, ok := s.loadAnalysis(c)
	if !ok {
		return
	}
	var req visualizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidInput("invalid request body: "+err.Error()))
		return
	}
	t, err := vis.ParseType(req.Type)
	if err != nil {
		s.respondError(c, errors.Wrap(err, "unknown chart type "+req.Type))
		return
	}
	plugin, err := visualization.ForType(t)
	if err != nil {
		s.respondError(c, err)
		return
	}
	cfg, err := visualization.ParseConfig(req.Config)
	if err != nil {
		s.respondError(c, errors.Wrap(err, "invalid configuration"))
		return
	}
	if err := plugin.Validate(ws, cfg); err != nil {
		s.respondError(c, errors.Wrapf(err, "invalid %s configuration", t))
		return
	}

	v := vis.Visualization{ID: req.ID, Type: t, DisplayName: req.DisplayName, Config: cfg.Raw()}
	if data, err := s.container.Charts.Run(c.Request.Context(), ws, t, a.Filters, cfg); err != nil {
		s.logger.Warn("thumbnail skipped", zap.String("analysis_id", a.ID.String()), zap.Error(err))
	} else {
		v.Thumbnail = chart.Thumbnail(data)
	}
	v = a.PutVisualization(v)
	if err := s.container.Analyses.Update(c.Request.Context(), a); err != nil {
		s.respondError(c, errors.Wrap(err, "failed to save visualization"))
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) handleDeleteVisualization(c *gin.Context) {
	id, err := core.ParseAnalysisID(c.Param("analysisId"))
	if err != nil {
		s.respondError(c, errors.InvalidInput(err.Error()))
		return
	}
	a, err := s.container.Analyses.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, errors.Wrap(err, "failed to load analysis"))
		return
	}
	if err := a.RemoveVisualization(c.Param("visualizationId")); err != nil {
		s.respondError(c, errors.Wrap(err, "failed to delete visualization"))
		return
	}
	if err := s.container.Analyses.Update(c.Request.Context(), a); err != nil {
		s.respondError(c, errors.Wrap(err, "failed to save analysis"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleVisualizationSVG(c *gin.Context) {
	a, ws, ok := s.loadAnalysis(c)
	if !ok {
		return
	}
	v, err := a.Visualization(c.Param("visualizationId"))
	if err != nil {
		s.respondError(c, errors.Wrap(err, "visualization not found"))
		return
	}
	data, err := s.container.Charts.RunVisualization(c.Request.Context(), ws, a.Filters, *v)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", chart.SVG(data, chart.PageOptions))
}
