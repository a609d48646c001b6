package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cardio-risk-engine/internal/cache"
	"github.com/cardio-risk-engine/internal/domain"
	"github.com/cardio-risk-engine/internal/history"
	"github.com/cardio-risk-engine/internal/risk"
)

// maxBatchSize bounds a single batch request.
const maxBatchSize = 100

// defaultHistoryLimit is the page size when the query omits one.
const defaultHistoryLimit = 20

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK

	dbStatus := "not_configured"
	if s.db != nil {
		if err := s.db.Health(c.Request.Context()); err != nil {
			dbStatus = "unreachable"
			status = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			dbStatus = "ok"
		}
	}

	cacheHealthy := s.cache.Healthy(c.Request.Context())
	if !cacheHealthy {
		status = "degraded"
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"version":   risk.EngineVersion,
		"components": gin.H{
			"database": dbStatus,
			"cache":    cacheHealthy,
		},
	})
}

// handleModelInfo publishes engine and constituent model metadata.
func (s *Server) handleModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Metadata())
}

// handleAssess runs one assessment. The engine output is deterministic;
// the envelope fields (assessment ID, timestamp) are assigned here.
func (s *Server) handleAssess(c *gin.Context) {
	var record domain.PatientRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrInvalidInput, "malformed patient record", err.Error(),
			c.GetString("correlation_id")))
		return
	}

	assessment, apiErr := s.assess(c, &record)
	if apiErr != nil {
		c.JSON(statusFor(apiErr.Code), apiErr)
		return
	}

	if userID := c.GetHeader("X-User-Id"); userID != "" {
		s.saveHistory(c, userID, assessment)
	}

	s.hub.Broadcast(assessment)
	c.JSON(http.StatusOK, assessment)
}

// batchRequest is the body of a batch assessment call.
type batchRequest struct {
	Patients []domain.PatientRecord `json:"patients" binding:"required"`
}

// batchItem is one positional result within a batch response. Exactly one
// of Assessment and Error is set.
type batchItem struct {
	Index      int                    `json:"index"`
	Assessment *domain.RiskAssessment `json:"assessment,omitempty"`
	Error      *domain.APIError       `json:"error,omitempty"`
}

// handleAssessBatch assesses up to maxBatchSize patients in one request.
// Item failures are positional; one bad record never fails the batch.
func (s *Server) handleAssessBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrInvalidInput, "malformed batch request", err.Error(),
			c.GetString("correlation_id")))
		return
	}
	if len(req.Patients) == 0 || len(req.Patients) > maxBatchSize {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrInvalidInput,
			"batch must contain between 1 and "+strconv.Itoa(maxBatchSize)+" patients", "",
			c.GetString("correlation_id")))
		return
	}

	userID := c.GetHeader("X-User-Id")
	items := make([]batchItem, len(req.Patients))
	for i := range req.Patients {
		assessment, apiErr := s.assess(c, &req.Patients[i])
		items[i] = batchItem{Index: i, Assessment: assessment, Error: apiErr}
		if apiErr == nil && userID != "" {
			s.saveHistory(c, userID, assessment)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(items),
		"results": items,
	})
}

// assess validates, serves from cache when possible, and runs the engine.
// Cached results get a fresh envelope: the ID and timestamp identify the
// request, not the computation.
func (s *Server) assess(c *gin.Context, record *domain.PatientRecord) (*domain.RiskAssessment, *domain.APIError) {
	correlationID := c.GetString("correlation_id")

	key, err := cache.Key(record)
	if err == nil {
		if cached, ok := s.cache.Get(c.Request.Context(), key); ok {
			result := *cached
			result.AssessmentID = uuid.New().String()
			result.CreatedAt = time.Now().UTC()
			return &result, nil
		}
	}

	assessment, err := s.engine.Assess(record)
	if err != nil {
		switch {
		case domain.IsValidationError(err):
			return nil, domain.NewAPIError(domain.ErrValidation,
				"patient record failed validation", err.Error(), correlationID)
		case domain.IsComputationError(err):
			s.log.WithError(err).Error("Engine computation fault")
			return nil, domain.NewAPIError(domain.ErrComputation,
				"internal computation error", "", correlationID)
		default:
			s.log.WithError(err).Error("Assessment failed")
			return nil, domain.NewAPIError(domain.ErrInternalServer,
				"assessment failed", "", correlationID)
		}
	}

	if key != "" {
		s.cache.Set(c.Request.Context(), key, assessment)
	}

	result := *assessment
	result.AssessmentID = uuid.New().String()
	result.CreatedAt = time.Now().UTC()
	return &result, nil
}

// saveHistory persists an assessment for a user, best-effort. Persistence
// failures are logged and never surface to the caller.
func (s *Server) saveHistory(c *gin.Context, userID string, assessment *domain.RiskAssessment) {
	if s.store == nil {
		return
	}

	record, err := history.NewRecord(userID, assessment)
	if err != nil {
		s.log.WithError(err).Warn("Failed to build history record")
		return
	}
	if err := s.store.Save(c.Request.Context(), record); err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id":       userID,
			"assessment_id": assessment.AssessmentID,
		}).WithError(err).Warn("Failed to persist assessment history")
	}
}

// historyItem is the per-assessment view returned by the history endpoint.
type historyItem struct {
	AssessmentID string    `json:"assessment_id"`
	RiskScore    float64   `json:"risk_score"`
	Category     string    `json:"category"`
	CreatedAt    time.Time `json:"created_at"`
}

// handleHistory returns a user's assessment history, newest first, plus a
// trend narrative comparing the two most recent scores.
func (s *Server) handleHistory(c *gin.Context) {
	correlationID := c.GetString("correlation_id")
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, domain.NewAPIError(
			domain.ErrDatabaseError, "assessment history is disabled", "", correlationID))
		return
	}

	userID := c.Param("user_id")
	limit := queryInt(c, "limit", defaultHistoryLimit)
	offset := queryInt(c, "offset", 0)
	if limit <= 0 || limit > 200 || offset < 0 {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrInvalidInput, "limit must be in [1,200] and offset non-negative", "", correlationID))
		return
	}

	records, err := s.store.ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		s.log.WithError(err).Error("History query failed")
		c.JSON(http.StatusServiceUnavailable, domain.NewAPIError(
			domain.ErrDatabaseError, "history store unavailable", "", correlationID))
		return
	}

	total, err := s.store.CountByUser(c.Request.Context(), userID)
	if err != nil {
		s.log.WithError(err).Error("History count failed")
		c.JSON(http.StatusServiceUnavailable, domain.NewAPIError(
			domain.ErrDatabaseError, "history store unavailable", "", correlationID))
		return
	}

	items := make([]historyItem, len(records))
	for i, r := range records {
		items[i] = historyItem{
			AssessmentID: r.AssessmentID,
			RiskScore:    r.RiskScore,
			Category:     r.Category,
			CreatedAt:    r.CreatedAt,
		}
	}

	response := gin.H{
		"user_id": userID,
		"total":   total,
		"count":   len(items),
		"results": items,
	}
	if len(records) >= 2 {
		// records are newest first; the trend reads oldest to newest.
		response["trend"] = risk.CompareAcrossCategories(records[1].RiskScore, records[0].RiskScore)
	}

	c.JSON(http.StatusOK, response)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}

// statusFor maps an error code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case domain.ErrInvalidInput, domain.ErrValidation:
		return http.StatusBadRequest
	case domain.ErrRateLimit:
		return http.StatusTooManyRequests
	case domain.ErrDatabaseError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
