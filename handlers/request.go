package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/library-api/middleware"
	"github.com/upb/library-api/utils"
)

// decodeRequest decodes and validates the JSON body into dst. It writes the
// 400 response itself and reports whether the handler may continue.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	requestID := middleware.GetRequestIDFromContext(r.Context())

	if err := utils.DecodeJSON(r, dst); err != nil {
		logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return false
	}

	if err := utils.ValidateStruct(dst); err != nil {
		logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, logger)
		return false
	}
	return true
}

// pathID parses the {id} URL parameter
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"), "id")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return uuid.Nil, false
	}
	return id, true
}

// pageParams parses limit and offset query parameters
func pageParams(w http.ResponseWriter, r *http.Request) (utils.Page, bool) {
	page, err := utils.ParsePage(r)
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return utils.Page{}, false
	}
	return page, true
}
