package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursedeck/coursedeck-backend/internal/logger"
	"github.com/coursedeck/coursedeck-backend/internal/requestdata"
	"github.com/coursedeck/coursedeck-backend/internal/services"
)

type ProgressHandler struct {
	log             *logger.Logger
	progressService services.ProgressService
}

func NewProgressHandler(log *logger.Logger, progressService services.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		log:             log.With("handler", "ProgressHandler"),
		progressService: progressService,
	}
}

func (h *ProgressHandler) Record(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var measure services.ProgressMeasure
	if err := c.ShouldBindJSON(&measure); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	record, err := h.progressService.RecordProgress(c.Request.Context(), rd, itemID, measure)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": record})
}

type quizAttemptRequest struct {
	Score float64 `json:"score"`
}

func (h *ProgressHandler) RecordQuizAttempt(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req quizAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	attempt, err := h.progressService.RecordQuizAttempt(c.Request.Context(), rd, itemID, req.Score)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"attempt": attempt})
}

type completeItemRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// CompleteItem is the manual completion override for course managers.
func (h *ProgressHandler) CompleteItem(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req completeItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.progressService.CompleteItem(c.Request.Context(), rd, req.UserID, itemID); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "completed"})
}

func (h *ProgressHandler) CourseProgress(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	progress, err := h.progressService.CourseProgressFor(c.Request.Context(), nil, rd.UserID, courseID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": progress})
}

func (h *ProgressHandler) PlanProgress(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	progress, err := h.progressService.PlanProgressFor(c.Request.Context(), nil, rd.UserID, planID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": progress})
}
