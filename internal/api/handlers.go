package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mdq-screening-server/internal/domain"
)

// submitAssessmentRequest is the POST /assessments payload.
type submitAssessmentRequest struct {
	SubjectID    string            `json:"subject_id" binding:"required"`
	RecordedAt   *time.Time        `json:"recorded_at"`
	Answers      map[string]string `json:"answers" binding:"required"`
	CoOccurrence bool              `json:"co_occurrence"`
	Impact       string            `json:"functional_impact"`
}

func (req *submitAssessmentRequest) toRecord() *domain.AnswerRecord {
	answers := make(map[domain.QuestionID]string, len(req.Answers))
	for q, label := range req.Answers {
		answers[domain.QuestionID(q)] = label
	}

	record := &domain.AnswerRecord{
		SubjectID:    req.SubjectID,
		Answers:      answers,
		CoOccurrence: req.CoOccurrence,
		Impact:       domain.FunctionalImpact(req.Impact),
	}
	if req.RecordedAt != nil {
		record.RecordedAt = *req.RecordedAt
	}
	return record
}

func (s *Server) handleHealth(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK

	if err := s.service.Health(c.Request.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
		s.logger.WithError(err).Warn("Health check failed")
	}

	c.JSON(code, gin.H{
		"status":    status,
		"scheme":    s.service.Scheme().Kind.String(),
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleSubmitAssessment(c *gin.Context) {
	var req submitAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Impact != "" && !domain.FunctionalImpact(req.Impact).IsValid() {
		s.respondError(c, http.StatusBadRequest, errors.New("unknown functional_impact value"))
		return
	}

	record, err := s.service.SubmitAssessment(c.Request.Context(), req.toRecord())
	if err != nil {
		s.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (s *Server) handleGetAssessment(c *gin.Context) {
	record, err := s.service.GetAssessment(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) handleListAssessments(c *gin.Context) {
	records, err := s.service.ListAssessments(c.Request.Context(), c.Param("subject_id"))
	if err != nil {
		s.respondServiceError(c, err)
		return
	}
	if records == nil {
		records = []*domain.AnswerRecord{}
	}
	c.JSON(http.StatusOK, gin.H{
		"subject_id":  c.Param("subject_id"),
		"count":       len(records),
		"assessments": records,
	})
}

func (s *Server) handleAnalyzeSubject(c *gin.Context) {
	result, cached, err := s.service.AnalyzeSubject(c.Request.Context(), c.Param("subject_id"))
	if err != nil {
		s.respondServiceError(c, err)
		return
	}

	if cached {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListAnalyses(c *gin.Context) {
	results, err := s.service.ListAnalyses(c.Request.Context(), c.Param("subject_id"))
	if err != nil {
		s.respondServiceError(c, err)
		return
	}
	if results == nil {
		results = []*domain.AnalysisResult{}
	}
	c.JSON(http.StatusOK, gin.H{
		"subject_id": c.Param("subject_id"),
		"count":      len(results),
		"analyses":   results,
	})
}

func (s *Server) handleGetAnalysis(c *gin.Context) {
	result, err := s.service.GetAnalysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.CacheStats())
}

// respondServiceError maps domain errors to HTTP status codes.
func (s *Server) respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.respondError(c, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrInvalidSubjectID), errors.Is(err, domain.ErrInvalidAssessment):
		s.respondError(c, http.StatusBadRequest, err)
	default:
		s.logger.WithError(err).Error("Request failed")
		s.respondError(c, http.StatusInternalServerError, err)
	}
}

func (s *Server) respondError(c *gin.Context, code int, err error) {
	c.JSON(code, gin.H{
		"error":          err.Error(),
		"correlation_id": c.GetString("correlation_id"),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}
