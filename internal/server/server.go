package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/agenthands/recordlink/internal/config"
	"github.com/agenthands/recordlink/internal/core"
	"github.com/agenthands/recordlink/internal/core/model"
	"github.com/agenthands/recordlink/internal/core/project"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	Service *core.Service
	logger  *slog.Logger
}

func NewServer(svc *core.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{Service: svc, logger: logger}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.Health)
	r.GET("/stats", s.Stats)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Service.Metrics.Registry(), promhttp.HandlerOpts{})))
	r.POST("/consolidate", s.Consolidate)
	r.POST("/clusters/project", s.ProjectClusters)
	r.POST("/match/:entity", s.Match)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status())
	}
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.Service.Metrics.Snapshot())
}

// JudgmentInput is one reviewed pair. Preferred is the zero-based index of
// the record to keep, or null.
type JudgmentInput struct {
	A          string  `json:"id_a"`
	B          string  `json:"id_b"`
	Preferred  *int    `json:"preferred"`
	Confidence float64 `json:"confidence"`
}

type ConsolidateRequest struct {
	Judgments []JudgmentInput `json:"judgments"`
}

func (s *Server) Consolidate(c *gin.Context) {
	var req ConsolidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	judgments := make([]model.Judgment, len(req.Judgments))
	for i, in := range req.Judgments {
		judgments[i] = model.Judgment{
			A:          in.A,
			B:          in.B,
			Preferred:  preferenceOf(in.Preferred),
			Confidence: in.Confidence,
		}
	}

	res, err := s.Service.Consolidate(c.Request.Context(), judgments)
	if err != nil {
		s.fail(c, "consolidate", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// preferenceOf maps an index onto a Preference. Out-of-range indices stay
// invalid so the engine rejects that row alone.
func preferenceOf(idx *int) model.Preference {
	if idx == nil {
		return model.NoPreference
	}
	p, err := model.PreferenceFromIndex(*idx)
	if err != nil {
		return model.Preference(-1)
	}
	return p
}

type RecordInput struct {
	ID     string             `json:"id"`
	Fields map[string]*string `json:"fields"`
}

func toRecords(in []RecordInput) []model.Record {
	out := make([]model.Record, len(in))
	for i, r := range in {
		out[i] = model.Record{ID: r.ID, Fields: r.Fields}
	}
	return out
}

type ProjectRequest struct {
	Records  []RecordInput   `json:"records"`
	Clusters []model.Cluster `json:"clusters"`
}

func (s *Server) ProjectClusters(c *gin.Context) {
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	rows, err := project.ApplyClusters(toRecords(req.Records), req.Clusters)
	if err != nil {
		s.fail(c, "project clusters", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": rows})
}

type MatchRequest struct {
	Records []RecordInput `json:"records"`
}

func (s *Server) Match(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	res, err := s.Service.MatchRecords(c.Request.Context(), c.Param("entity"), toRecords(req.Records))
	if err != nil {
		s.fail(c, "match", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) fail(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrUnknownRecord),
		errors.Is(err, model.ErrOverlappingClusters),
		errors.Is(err, model.ErrInvalidFieldSpec),
		errors.Is(err, model.ErrInsufficientTraining),
		errors.Is(err, config.ErrUnknownEntity):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "op", op, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
