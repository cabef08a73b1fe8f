package testkit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"edaworkspace/domain/analysis"
	"edaworkspace/domain/core"
	"edaworkspace/domain/filter"
	"edaworkspace/domain/study"
	"edaworkspace/domain/subsetting"
	"edaworkspace/domain/visualization"
	"edaworkspace/internal/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Service mount points of the stub backend
const (
	SubsettingPrefix = "/subsetting"
	DataPrefix       = "/data"
	UserPrefix       = "/user"
	RecordPrefix     = "/host"
)

// Server serves the demo study on the subsetting, data, user and record service APIs
type Server struct {
	router  chi.Router
	dataset *Dataset
	record  study.StudyRecord

	mu       sync.Mutex
	analyses map[string]map[core.AnalysisID]analysis.Analysis
	failures map[string]int
	hits     map[string]int
}

// NewServer builds a stub backend over a generated demo dataset
func NewServer(config DemoConfig, withLogging bool) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		dataset: NewDemoGenerator(config).Generate(),
		record: study.StudyRecord{
			ID:          DemoStudyID,
			DisplayName: config.DisplayName,
			Attributes:  config.RecordAttributes,
		},
		analyses: map[string]map[core.AnalysisID]analysis.Analysis{},
		failures: map[string]int{},
		hits:     map[string]int{},
	}

	if withLogging {
		s.router.Use(middleware.Logger)
	}
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.track)

	s.router.Route(SubsettingPrefix, func(r chi.Router) {
		r.Get("/studies", s.handleListStudies)
		r.Get("/studies/{studyID}", s.handleStudy)
		r.Post("/studies/{studyID}/entities/{entityID}/count", s.handleCount)
		r.Post("/studies/{studyID}/entities/{entityID}/distribution", s.handleDistribution)
		r.Post("/studies/{studyID}/entities/{entityID}/tabular", s.handleTabular)
	})
	s.router.Route(DataPrefix, func(r chi.Router) {
		r.Get("/apps", s.handleApps)
		r.Post("/apps/{app}/visualizations/{type}", s.handleVisualization)
	})
	s.router.Route(UserPrefix, func(r chi.Router) {
		r.Get("/users/{userID}/analyses", s.handleListAnalyses)
		r.Post("/users/{userID}/analyses", s.handleCreateAnalysis)
		r.Get("/users/{userID}/analyses/{analysisID}", s.handleGetAnalysis)
		r.Put("/users/{userID}/analyses/{analysisID}", s.handleUpdateAnalysis)
		r.Delete("/users/{userID}/analyses/{analysisID}", s.handleDeleteAnalysis)
	})
	s.router.Route(RecordPrefix, func(r chi.Router) {
		r.Get("/records/{studyID}", s.handleRecord)
	})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Dataset exposes the generated rows for assertions
func (s *Server) Dataset() *Dataset {
	return s.dataset
}

// Fail makes every request under a path prefix answer with status; status 0 clears it
func (s *Server) Fail(prefix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, prefix)
		return
	}
	s.failures[prefix] = status
}

// Hits returns how many requests reached a path
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		status := 0
		for prefix, code := range s.failures {
			if strings.HasPrefix(r.URL.Path, prefix) {
				status = code
			}
		}
		s.mu.Unlock()

		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleListStudies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"studies": []study.StudyOverview{{ID: DemoStudyID, DatasetID: "DS_demo01_ds", DisplayName: s.record.DisplayName}},
	})
}

func (s *Server) handleStudy(w http.ResponseWriter, r *http.Request) {
	if !s.knownStudy(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"study": s.dataset.Metadata})
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	if !s.knownStudy(w, r) {
		return
	}
	var req subsetting.CountRequest
	if !decode(w, r, &req) {
		return
	}
	entityID := chi.URLParam(r, "entityID")
	if _, err := s.dataset.Metadata.Entity(entityID); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if !s.validFilters(w, req.Filters) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": len(s.dataset.Subset(entityID, req.Filters))})
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	if !s.knownStudy(w, r) {
		return
	}
	var req subsetting.DistributionRequest
	if !decode(w, r, &req) || !s.validFilters(w, req.Filters) {
		return
	}
	resp, err := s.dataset.Distribution(chi.URLParam(r, "entityID"), req)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTabular(w http.ResponseWriter, r *http.Request) {
	if !s.knownStudy(w, r) {
		return
	}
	var req subsetting.TabularRequest
	if !decode(w, r, &req) || !s.validFilters(w, req.Filters) {
		return
	}
	data, err := s.dataset.Tabular(chi.URLParam(r, "entityID"), req)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.Header().Set("Content-Type", "text/tab-separated-values")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, strings.Join(data.Header, "\t"))
	for _, row := range data.Rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
}

func (s *Server) handleApps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"apps": []visualization.AppOverview{
		{
			Name:        "pass",
			DisplayName: "Pass-Through",
			Visualizations: []visualization.AppVisualization{
				{Name: string(visualization.TypeBarplot), DisplayName: "Bar plot"},
				{Name: string(visualization.TypeHistogram), DisplayName: "Histogram"},
			},
		},
		{
			Name:        "xyrelationships",
			DisplayName: "X-Y Relationships",
			Visualizations: []visualization.AppVisualization{
				{Name: string(visualization.TypeScatterplot), DisplayName: "Scatter plot"},
			},
		},
	}})
}

func (s *Server) handleVisualization(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudyID string      `json:"studyId"`
		Filters filter.Set  `json:"filters"`
		Config  ChartConfig `json:"config"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.StudyID != DemoStudyID {
		writeError(w, http.StatusNotFound, core.ErrStudyNotFound)
		return
	}
	vt, err := visualization.ParseType(chi.URLParam(r, "type"))
	if err != nil || vt.App() != chi.URLParam(r, "app") {
		writeError(w, http.StatusNotFound, core.ErrUnknownVisualization)
		return
	}

	var payload any
	switch vt {
	case visualization.TypeBarplot:
		payload, err = s.dataset.Barplot(req.Filters, req.Config)
	case visualization.TypeHistogram:
		payload, err = s.dataset.Histogram(req.Filters, req.Config)
	case visualization.TypeScatterplot:
		payload, err = s.dataset.Scatterplot(req.Filters, req.Config)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{string(vt): payload})
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "studyID") != DemoStudyID {
		writeError(w, http.StatusNotFound, core.ErrStudyNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.record)
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []analysis.Summary{}
	for _, a := range s.analyses[chi.URLParam(r, "userID")] {
		out = append(out, a.Summarize())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var a analysis.Analysis
	if !decode(w, r, &a) {
		return
	}
	if a.ID == "" {
		a.ID = core.NewAnalysisID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user := chi.URLParam(r, "userID")
	if s.analyses[user] == nil {
		s.analyses[user] = map[core.AnalysisID]analysis.Analysis{}
	}
	s.analyses[user][a.ID] = a
	writeJSON(w, http.StatusOK, map[string]string{"analysisId": a.ID.String()})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.analyses[chi.URLParam(r, "userID")][core.AnalysisID(chi.URLParam(r, "analysisID"))]
	if !ok {
		writeError(w, http.StatusNotFound, core.ErrAnalysisNotFound)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleUpdateAnalysis(w http.ResponseWriter, r *http.Request) {
	var a analysis.Analysis
	if !decode(w, r, &a) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user := chi.URLParam(r, "userID")
	id := core.AnalysisID(chi.URLParam(r, "analysisID"))
	if _, ok := s.analyses[user][id]; !ok {
		writeError(w, http.StatusNotFound, core.ErrAnalysisNotFound)
		return
	}
	a.ID = id
	s.analyses[user][id] = a
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := chi.URLParam(r, "userID")
	id := core.AnalysisID(chi.URLParam(r, "analysisID"))
	if _, ok := s.analyses[user][id]; !ok {
		writeError(w, http.StatusNotFound, core.ErrAnalysisNotFound)
		return
	}
	delete(s.analyses[user], id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) knownStudy(w http.ResponseWriter, r *http.Request) bool {
	if chi.URLParam(r, "studyID") != DemoStudyID {
		writeError(w, http.StatusNotFound, core.ErrStudyNotFound)
		return false
	}
	return true
}

func (s *Server) validFilters(w http.ResponseWriter, filters filter.Set) bool {
	if err := filters.Validate(s.dataset.Metadata); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, core.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return false
	}
	return true
}

func decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// TestConfig points every service at a stub backend listening on baseURL and keeps
// analyses in an in-memory SQLite database
func TestConfig(baseURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", GinMode: "test"},
		Services: config.ServicesConfig{
			SubsettingURL: baseURL + SubsettingPrefix,
			DataURL:       baseURL + DataPrefix,
			UserURL:       baseURL + UserPrefix,
			RecordURL:     baseURL + RecordPrefix,
			Timeout:       5 * time.Second,
		},
		Store:   config.StoreConfig{Driver: config.StoreSQLite, DatabaseURL: ":memory:"},
		User:    config.UserConfig{ID: "tester"},
		Records: config.RecordsConfig{Attributes: []string{"summary", "project_id", "study_design", "country"}},
		Logging: config.LoggingConfig{Level: "ERROR"},
	}
}
