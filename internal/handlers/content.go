package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursedeck/coursedeck-backend/internal/logger"
	"github.com/coursedeck/coursedeck-backend/internal/requestdata"
	"github.com/coursedeck/coursedeck-backend/internal/services"
)

type ContentHandler struct {
	log            *logger.Logger
	contentService services.ContentService
}

func NewContentHandler(log *logger.Logger, contentService services.ContentService) *ContentHandler {
	return &ContentHandler{
		log:            log.With("handler", "ContentHandler"),
		contentService: contentService,
	}
}

func (h *ContentHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var inputs []services.CreateContentItemInput
	if err := c.ShouldBindJSON(&inputs); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	items, err := h.contentService.CreateItems(c.Request.Context(), rd, courseID, inputs)
	if err != nil {
		h.log.Warn("Create content items failed", "error", err, "course_id", courseID)
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"items": items})
}

func (h *ContentHandler) ListForCourse(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	views, err := h.contentService.ListForCourse(c.Request.Context(), rd, courseID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"items": views})
}

type addPrerequisiteRequest struct {
	PrerequisiteID uuid.UUID `json:"prerequisite_id" binding:"required"`
}

func (h *ContentHandler) AddPrerequisite(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req addPrerequisiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.contentService.AddPrerequisite(c.Request.Context(), rd, itemID, req.PrerequisiteID); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"status": "added"})
}

// Body serves the playable/downloadable payload, behind both the access
// resolver and the prerequisite gate.
func (h *ContentHandler) Body(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	item, err := h.contentService.ResolveBody(c.Request.Context(), rd, itemID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"id":           item.ID,
		"type":         item.Type,
		"external_url": item.ExternalURL,
		"storage_key":  item.StorageKey,
	})
}
