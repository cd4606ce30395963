package ui

import (
	"net/http"

	"epifig/adapters/stats/interval"
	"epifig/adapters/stats/label"
	"epifig/domain/core"
	"epifig/domain/posterior"
	apperrors "epifig/internal/errors"
	"epifig/internal/report"

	"github.com/gin-gonic/gin"
)

// summarizeRequest is the body of POST /api/summarize
type summarizeRequest struct {
	Draws    [][]float64 `json:"draws" binding:"required"`
	Coverage float64     `json:"coverage"` // 0 means 0.95
	Method   string      `json:"method"`
}

// labelRequest is the body of POST /api/label
type labelRequest struct {
	Values    []float64 `json:"values" binding:"required"`
	Precision *int      `json:"precision"` // nil means the server default
	Method    string    `json:"method"`
}

// scenarioInfo describes one loaded trace
type scenarioInfo struct {
	Name      string   `json:"name"`
	TraceHash string   `json:"trace_hash"`
	Variables []string `json:"variables"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"scenarios": len(s.traces),
	})
}

func (s *Server) handleScenarios(c *gin.Context) {
	out := make([]scenarioInfo, 0, len(s.traces))
	for _, name := range s.scenarioNames() {
		tr := s.traces[name]
		out = append(out, scenarioInfo{
			Name:      name,
			TraceHash: tr.Hash.Short(),
			Variables: tr.Names(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": out})
}

func (s *Server) handleTimeseries(c *gin.Context) {
	name, trace, ok := s.lookupScenario(c)
	if !ok {
		return
	}
	ts, err := s.timeseries(name, trace)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ts)
}

func (s *Server) handleDistributions(c *gin.Context) {
	name, trace, ok := s.lookupScenario(c)
	if !ok {
		return
	}
	panels, err := s.builder.Distributions(trace, s.builder.DefaultSpecs(trace))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scenario": name, "panels": panels})
}

func (s *Server) handleReport(c *gin.Context) {
	entries := make([]report.Entry, 0, len(s.traces))
	for _, name := range s.scenarioNames() {
		trace := s.traces[name]
		ts, err := s.timeseries(name, trace)
		if err != nil {
			s.writeError(c, err)
			return
		}
		panels, err := s.builder.Distributions(trace, s.builder.DefaultSpecs(trace))
		if err != nil {
			s.writeError(c, err)
			return
		}
		entries = append(entries, report.Entry{Timeseries: ts, Panels: panels, TraceHash: trace.Hash})
	}

	rep, err := report.Build(report.Input{
		Country:   s.observed.Country,
		Precision: s.precision,
		Entries:   entries,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	if c.Query("format") == "markdown" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(rep.Markdown()))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", rep.HTML())
}

func (s *Server) handleSummarize(c *gin.Context) {
	var req summarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, apperrors.WithCode(apperrors.CodeInvalidInput, err, "invalid request body"))
		return
	}
	method, err := interval.ParseMethod(req.Method)
	if err != nil {
		s.writeError(c, err)
		return
	}
	coverage := req.Coverage
	if coverage == 0 {
		coverage = label.LabelCoverage
	}

	m, err := posterior.NewSampleMatrix(req.Draws)
	if err != nil {
		s.writeError(c, err)
		return
	}
	intervals, err := interval.Summarize(m, coverage, interval.WithMethod(method))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coverage": coverage, "intervals": intervals})
}

func (s *Server) handleLabel(c *gin.Context) {
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, apperrors.WithCode(apperrors.CodeInvalidInput, err, "invalid request body"))
		return
	}
	method, err := interval.ParseMethod(req.Method)
	if err != nil {
		s.writeError(c, err)
		return
	}
	precision := s.precision
	if req.Precision != nil {
		precision = *req.Precision
	}

	text, err := label.FormatMedianCIWith(req.Values, precision, method)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"label": text})
}

func (s *Server) lookupScenario(c *gin.Context) (string, *posterior.Trace, bool) {
	key, err := core.ParseScenarioKey(c.Param("name"))
	if err != nil {
		s.writeError(c, err)
		return "", nil, false
	}
	name := key.String()
	trace, ok := s.traces[name]
	if !ok {
		s.writeError(c, apperrors.WithCode(apperrors.CodeNotFound, core.ErrScenarioNotFound, name))
		return "", nil, false
	}
	return name, trace, true
}

// writeError maps domain and application errors onto HTTP statuses
func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	code := apperrors.GetCode(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": code})
}

func statusFor(err error) int {
	switch {
	case core.IsNotFoundError(err), apperrors.GetCode(err) == apperrors.CodeNotFound:
		return http.StatusNotFound
	case core.IsInputError(err), apperrors.GetCode(err) == apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
