package ui

import (
	"bytes"
	"net/http"

	"edaworkspace/domain/core"
	"edaworkspace/domain/filter"
	"edaworkspace/domain/study"
	vis "edaworkspace/domain/visualization"
	"edaworkspace/internal/chart"
	"edaworkspace/internal/errors"
	"edaworkspace/internal/export"
	"edaworkspace/internal/fieldtree"
	"edaworkspace/internal/visualization"
	"edaworkspace/internal/workspace"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type filtersRequest struct {
	Filters filter.Set `json:"filters"`
}

type exportRequest struct {
	Variables []string   `json:"variables"`
	Filters   filter.Set `json:"filters"`
}

type chartRequest struct {
	Filters filter.Set           `json:"filters"`
	Config  visualization.Config `json:"config"`
}

// availableWorkspace answers 502 when the study's metadata could not be loaded
func (s *Server) availableWorkspace(c *gin.Context) (*workspace.Workspace, bool) {
	ws, err := s.workspaceFor(c)
	if err != nil {
		s.respondError(c, err)
		return nil, false
	}
	if !ws.Available() {
		s.respondError(c, errMetadataUnavailable)
		return nil, false
	}
	return ws, true
}

// bindFilters decodes an optional JSON body carrying filters and checks them against the study
func (s *Server) bindFilters(c *gin.Context, ws *workspace.Workspace, body interface{}, filters func() filter.Set) bool {
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(body); err != nil {
			s.respondError(c, errors.InvalidInput("invalid request body: "+err.Error()))
			return false
		}
	}
	if err := filters().Validate(ws.Metadata); err != nil {
		s.respondError(c, errors.Wrap(err, "invalid filters"))
		return false
	}
	return true
}

func (s *Server) handleListStudies(c *gin.Context) {
	studies, err := s.container.Catalog.Studies(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	if studies == nil {
		studies = []study.StudyOverview{}
	}
	c.JSON(http.StatusOK, gin.H{"studies": studies})
}

func (s *Server) handleMetadata(c *gin.Context) {
	ws, ok := s.availableWorkspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"study": ws.Metadata, "record": ws.Record, "recordStub": ws.Record.Stub})
}

// handleFieldTree returns the variable tree, pruned by ?q= and optionally limited to
// numeric variables with ?constraint=numeric
func (s *Server) handleFieldTree(c *gin.Context) {
	ws, ok := s.availableWorkspace(c)
	if !ok {
		return
	}
	var opts fieldtree.Options
	switch c.Query("constraint") {
	case "":
	case "numeric":
		opts.Constraint = &fieldtree.Constraint{Types: []study.VariableType{study.TypeNumber, study.TypeInteger}}
	case "categorical":
		opts.Constraint = &fieldtree.Constraint{Shapes: []study.DataShape{study.ShapeCategorical, study.ShapeOrdinal, study.ShapeBinary}}
	default:
		s.respondError(c, errors.InvalidInput("unknown constraint "+c.Query("constraint")))
		return
	}
	tree := fieldtree.Prune(ws.FieldTree(opts), c.Query("q"))
	c.JSON(http.StatusOK, gin.H{"tree": tree, "leaves": fieldtree.Leaves(tree)})
}

// handleRefresh forgets the memoized metadata of a study so the next request refetches it
func (s *Server) handleRefresh(c *gin.Context) {
	studyID, err := core.ParseStudyID(c.Param("studyId"))
	if err != nil {
		s.respondError(c, errors.InvalidInput(err.Error()))
		return
	}
	s.container.Catalog.Metadata.Invalidate(studyID)
	s.logger.Info("study metadata invalidated", zap.String("study_id", studyID.String()))
	c.Status(http.StatusNoContent)
}

func (s *Server) handleCount(c *gin.Context) {
	ws, ok := s.availableWorkspace(c)
	if !ok {
		return
	}
	var req filtersRequest
	if !s.bindFilters(c, ws, &req, func() filter.Set { return req.Filters }) {
		return
	}
	entityID := c.Param("entityId")
	if _, err := ws.Entity(entityID); err != nil {
		s.respondError(c, errors.Wrap(err, "unknown entity"))
		return
	}
	count, err := ws.Subsetting.EntityCount(c.Request.Context(), ws.StudyID, entityID, req.Filters)
	if err != nil {
		s.respondError(c, errors.Wrap(err, "failed to count records"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (s *Server) handleDistribution(c *gin.Context) {
	ws, ok := s.availableWorkspace(c)
	if !ok {
		return
	}
	var req filtersRequest
	if !s.bindFilters(c, ws, &req, func() filter.Set { return req.Filters }) {
		return
	}
	result, err := s.container.Distributions.Fetch(c.Request.Context(), ws, c.Param("entityId"), c.Param("variableId"), req.Filters)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"background": result.Background,
		"foreground": result.Foreground,
		"subsetSize": result.SubsetSize(),
		"totalSize":  result.TotalSize(),
		"coverage":   result.Coverage(),
	})
}

func (s *Server) handleExport(c *gin.Context) {
	ws, ok := s.availableWorkspace(c)
	if !ok {
		return
	}
	var req exportRequest
	if !s.bindFilters(c, ws, &req, func() filter.Set { return req.Filters }) {
		return
	}
	entity, err := ws.Entity(c.Param("entityId"))
	if err != nil {
		s.respondError(c, errors.Wrap(err, "unknown entity"))
		return
	}

	var buf bytes.Buffer
	if err := export.Workbook(c.Request.Context(), ws, entity.ID, req.Variables, req.Filters, &buf); err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.Filename(ws.StudyID.String(), entity)+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (s *Server) handleChartDefaults(c *gin.Context) {
	ws, ok := s.availableWorkspace(c)
	if !ok {
		return
	}
	plugin, ok := s.plugin(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": plugin.Defaults(ws)})
}

func (s *Server) handleChart(c *gin.Context) {
	data, ok := s.runChart(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, data)
}

func (s *Server) handleChartSVG(c *gin.Context) {
	data, ok := s.runChart(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", chart.SVG(data, chart.PageOptions))
}

func (s *Server) runChart(c *gin.Context) (*visualization.ChartData, bool) {
	ws, ok := s.availableWorkspace(c)
	if !ok {
		return nil, false
	}
	plugin, ok := s.plugin(c)
	if !ok {
		return nil, false
	}
	var req chartRequest
	if !s.bindFilters(c, ws, &req, func() filter.Set { return req.Filters }) {
		return nil, false
	}
	data, err := s.container.Charts.Run(c.Request.Context(), ws, plugin.Type(), req.Filters, req.Config)
	if err != nil {
		s.respondError(c, err)
		return nil, false
	}
	return data, true
}

func (s *Server) plugin(c *gin.Context) (visualization.Plugin, bool) {
	t, err := vis.ParseType(c.Param("type"))
	if err != nil {
		s.respondError(c, errors.Wrap(err, "unknown chart type "+c.Param("type")))
		return nil, false
	}
	p, err := visualization.ForType(t)
	if err != nil {
		s.respondError(c, err)
		return nil, false
	}
	return p, true
}
