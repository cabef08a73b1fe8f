package ui

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"edaworkspace/internal/container"
	"edaworkspace/internal/logging"
	"edaworkspace/ui/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html static/*
var embeddedFiles embed.FS

// Server is the workspace web front end
type Server struct {
	router    *gin.Engine
	container *container.Container
	templates *template.Template
	logger    *zap.Logger
}

// NewServer parses the embedded templates and registers every route
func NewServer(c *container.Container) (*Server, error) {
	if c == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}
	if c.Config.Server.GinMode != "" {
		gin.SetMode(c.Config.Server.GinMode)
	}

	templates, err := template.New("").Funcs(funcMap()).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		router:    gin.New(),
		container: c,
		templates: templates,
		logger:    logging.Named(c.Logger, "ui"),
	}
	if err := s.setupMiddleware(); err != nil {
		return nil, err
	}
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() error {
	s.router.Use(gin.Recovery())
	s.router.Use(logging.GinMiddleware(s.container.Logger))

	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to create static filesystem: %w", err)
	}
	s.router.StaticFS("/static", http.FS(staticFS))
	return nil
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	loadWorkspace := middleware.LoadWorkspace(s.container.Workspace)

	// Pages
	s.router.GET("/", s.handleIndex)
	pages := s.router.Group("/workspace/:studyId", loadWorkspace)
	pages.GET("", s.handleWorkspace)
	pages.GET("/variables", s.handleVariableLink)
	pages.GET("/variables/:entityId", s.handleVariableLink)
	pages.GET("/variables/:entityId/:variableId", s.handleVariable)
	pages.GET("/analyses/:analysisId", s.handleAnalysis)

	api := s.router.Group("/api")
	api.GET("/studies", s.handleListStudies)

	// Refresh drops the memoized metadata, so it must run before any workspace is loaded
	api.POST("/studies/:studyId/refresh", s.handleRefresh)

	study := api.Group("/studies/:studyId", loadWorkspace)
	study.GET("/metadata", s.handleMetadata)
	study.GET("/field-tree", s.handleFieldTree)
	study.POST("/entities/:entityId/count", s.handleCount)
	study.POST("/entities/:entityId/variables/:variableId/distribution", s.handleDistribution)
	study.POST("/entities/:entityId/tabular.xlsx", s.handleExport)

	// Charts
	study.GET("/visualizations/:type/defaults", s.handleChartDefaults)
	study.POST("/visualizations/:type", s.handleChart)
	study.POST("/visualizations/:type/chart.svg", s.handleChartSVG)

	// Analyses
	study.GET("/analyses", s.handleListAnalyses)
	study.POST("/analyses", s.handleCreateAnalysis)
	api.GET("/analyses/:analysisId", s.handleGetAnalysis)
	api.PUT("/analyses/:analysisId", s.handleUpdateAnalysis)
	api.DELETE("/analyses/:analysisId", s.handleDeleteAnalysis)
	api.GET("/analyses/:analysisId/charts", s.handleAnalysisCharts)
	api.POST("/analyses/:analysisId/visualizations", s.handlePutVisualization)
	api.DELETE("/analyses/:analysisId/visualizations/:visualizationId", s.handleDeleteVisualization)
	api.GET("/analyses/:analysisId/visualizations/:visualizationId/chart.svg", s.handleVisualizationSVG)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the web server
func (s *Server) Start(addr string) error {
	s.logger.Info("starting EDA workspace", zap.String("addr", addr))
	return s.router.Run(addr)
}
