package ui

import (
	"net/http"
	"sort"
	"sync"

	"epifig/adapters/excel"
	"epifig/domain/posterior"
	"epifig/internal"
	"epifig/internal/analysis/figures"

	"github.com/gin-gonic/gin"
)

// Dependencies are injected into the server at construction
type Dependencies struct {
	Builder   *figures.Builder
	Observed  *excel.Observations
	Traces    map[string]*posterior.Trace // keyed by scenario name
	Precision int
	Logger    *internal.Logger
}

// Server serves figure data over HTTP
type Server struct {
	router    *gin.Engine
	builder   *figures.Builder
	observed  *excel.Observations
	traces    map[string]*posterior.Trace
	precision int
	logger    *internal.Logger

	// Timeseries caching, traces are immutable once loaded
	seriesCache map[string]*figures.Timeseries
	cacheMutex  sync.RWMutex
}

// NewServer creates a new web server instance with its routes registered
func NewServer(deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:      gin.New(),
		builder:     deps.Builder,
		observed:    deps.Observed,
		traces:      deps.Traces,
		precision:   deps.Precision,
		logger:      logger.With("Server"),
		seriesCache: make(map[string]*figures.Timeseries),
	}
	if s.traces == nil {
		s.traces = make(map[string]*posterior.Trace)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/scenarios", s.handleScenarios)
		api.GET("/scenarios/:name/timeseries", s.handleTimeseries)
		api.GET("/scenarios/:name/distributions", s.handleDistributions)
		api.GET("/report", s.handleReport)

		// Stateless helpers for ad-hoc draws
		api.POST("/summarize", s.handleSummarize)
		api.POST("/label", s.handleLabel)
	}
}

// Handler exposes the router, e.g. for httptest
func (s *Server) Handler() http.Handler { return s.router }

// Start starts the web server
func (s *Server) Start(addr string) error {
	s.logger.Info("listening on http://%s (%d scenarios)", addr, len(s.traces))
	return s.router.Run(addr)
}

func (s *Server) scenarioNames() []string {
	names := make([]string, 0, len(s.traces))
	for name := range s.traces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// timeseries returns the cached timeseries of a scenario, building it on first use.
func (s *Server) timeseries(name string, trace *posterior.Trace) (*figures.Timeseries, error) {
	s.cacheMutex.RLock()
	ts, ok := s.seriesCache[name]
	s.cacheMutex.RUnlock()
	if ok {
		return ts, nil
	}

	ts, err := s.builder.Timeseries(name, trace, s.observed.Cumulative)
	if err != nil {
		return nil, err
	}

	s.cacheMutex.Lock()
	s.seriesCache[name] = ts
	s.cacheMutex.Unlock()
	return ts, nil
}
