package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/library-api/models"
	"github.com/upb/library-api/utils"
)

// AuditService defines the audit queries used by AuditHandler
type AuditService interface {
	List(ctx context.Context, filter models.AuditTrailFilter) ([]*models.AuditTrail, error)
	Get(ctx context.Context, id uuid.UUID) (*models.AuditTrail, error)
}

// AuditHandler serves the audit history
type AuditHandler struct {
	audit  AuditService
	logger *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(audit AuditService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		audit:  audit,
		logger: logger,
	}
}

// HandleList handles GET /api/v1/audit/trails.
// Optional filters: entity, primary_key, actor_id.
func (h *AuditHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParams(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := models.AuditTrailFilter{
		EntityName: q.Get("entity"),
		PrimaryKey: q.Get("primary_key"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	if v := q.Get("actor_id"); v != "" {
		actorID, err := utils.ParseUUID(v, "actor_id")
		if err != nil {
			_ = utils.WriteBadRequest(w, err.Error(), nil)
			return
		}
		filter.ActorID = &actorID
	}

	trails, err := h.audit.List(r.Context(), filter)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	responses := make([]AuditTrailResponse, len(trails))
	for i, t := range trails {
		responses[i] = trailToResponse(t)
	}
	_ = utils.WriteList(w, responses, page)
}

// HandleGet handles GET /api/v1/audit/trails/{id}
func (h *AuditHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	trail, err := h.audit.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, trailToResponse(trail))
}
