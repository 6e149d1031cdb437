package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursedeck/coursedeck-backend/internal/logger"
	"github.com/coursedeck/coursedeck-backend/internal/requestdata"
	"github.com/coursedeck/coursedeck-backend/internal/services"
	"github.com/coursedeck/coursedeck-backend/internal/types"
)

type AccessHandler struct {
	log           *logger.Logger
	accessService services.AccessService
}

func NewAccessHandler(log *logger.Logger, accessService services.AccessService) *AccessHandler {
	return &AccessHandler{
		log:           log.With("handler", "AccessHandler"),
		accessService: accessService,
	}
}

func scopeRefFromQuery(c *gin.Context) (types.ScopeRef, bool) {
	kind := types.ScopeKind(c.Query("kind"))
	switch kind {
	case types.ScopeCourse, types.ScopeLearningPlan, types.ScopeContentItem:
	default:
		return types.ScopeRef{}, false
	}
	id, err := uuid.Parse(c.Query("id"))
	if err != nil {
		return types.ScopeRef{}, false
	}
	return types.ScopeRef{Kind: kind, ID: id}, true
}

// Check answers "can I touch this" without touching it. Useful for
// clients deciding what to render.
func (h *AccessHandler) Check(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	ref, ok := scopeRefFromQuery(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "bad_request", nil)
		return
	}

	var (
		decision types.AccessDecision
		err      error
	)
	if c.Query("manage") == "true" {
		decision, err = h.accessService.ResolveManage(c.Request.Context(), nil, rd, ref)
	} else {
		decision, err = h.accessService.Resolve(c.Request.Context(), nil, rd, ref)
	}
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, decision)
}
