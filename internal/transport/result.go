package transport

import (
	"errors"
	"net/http"
	"strconv"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Result is the envelope every catalog endpoint answers with
type Result struct {
	Success   bool                         `json:"success"`
	Data      any                          `json:"data,omitempty"`
	Message   string                       `json:"message,omitempty"`
	ErrorCode string                       `json:"error_code,omitempty"`
	Errors    []middleware.ValidationError `json:"errors,omitempty"`
}

// ImageURLs turns stored image paths into public URLs
type ImageURLs interface {
	URL(path string) string
}

var statusByCode = map[domain.ErrorCode]int{
	domain.CodeInvalidInput:       http.StatusBadRequest,
	domain.CodeDuplicateName:      http.StatusConflict,
	domain.CodeInvalidReference:   http.StatusUnprocessableEntity,
	domain.CodeInvalidImageFormat: http.StatusUnsupportedMediaType,
	domain.CodeNotFound:           http.StatusNotFound,
	domain.CodeConflict:           http.StatusConflict,
	domain.CodeStorageFailure:     http.StatusInternalServerError,
}

// StatusFor maps a catalog error code to its HTTP status
func StatusFor(code domain.ErrorCode) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func respondOK(w http.ResponseWriter, message string, data any) {
	middleware.RespondWithJSON(w, http.StatusOK, Result{Success: true, Message: message, Data: data})
}

func respondCreated(w http.ResponseWriter, message string, data any) {
	middleware.RespondWithJSON(w, http.StatusCreated, Result{Success: true, Message: message, Data: data})
}

// respondError writes the failed envelope for a service error
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	code := domain.CodeOf(err)
	status := StatusFor(code)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("code", string(code)), zap.Error(err))
	} else {
		logger.Debug("Request rejected", zap.String("code", string(code)), zap.Error(err))
	}

	middleware.RespondWithJSON(w, status, Result{
		Success:   false,
		Message:   errorMessage(err),
		ErrorCode: string(code),
		Errors:    middleware.FormatValidationErrors(err),
	})
}

func errorMessage(err error) string {
	var violations domain.Violations
	if errors.As(err, &violations) {
		if len(violations) == 1 {
			return violations[0].Message
		}
		return "validation failed"
	}
	var e *domain.Error
	if errors.As(err, &e) && e.Code != domain.CodeStorageFailure {
		return e.Message
	}
	return "internal server error"
}

func badRequest(w http.ResponseWriter, field, message string) {
	middleware.RespondWithJSON(w, http.StatusBadRequest, Result{
		Success:   false,
		Message:   message,
		ErrorCode: string(domain.CodeInvalidInput),
		Errors:    []middleware.ValidationError{{Field: field, Message: message}},
	})
}

// actorFrom returns the authenticated actor or answers 401
func actorFrom(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, middleware.CodeUnauthorized, "authentication required")
	}
	return actor, ok
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "id", "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func queryID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.URL.Query().Get(name))
	if err != nil {
		badRequest(w, name, name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an optional integer parameter, returning def when absent
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := middleware.DecodeJSON(r, v); err != nil {
		invalidBody(w, err)
		return false
	}
	return true
}

// decodeValid decodes the body and checks its validate tags, answering with
// the failing fields
func decodeValid(w http.ResponseWriter, r *http.Request, v any) bool {
	err := middleware.DecodeAndValidate(r, v)
	if err == nil {
		return true
	}
	if fields := middleware.FormatValidationErrors(err); fields != nil {
		middleware.RespondWithValidationErrors(w, fields)
	} else {
		invalidBody(w, err)
	}
	return false
}

// invalidBody answers a body that could not be read or parsed
func invalidBody(w http.ResponseWriter, err error) {
	if middleware.IsBodyTooLarge(err) {
		middleware.RespondWithError(w, http.StatusRequestEntityTooLarge, middleware.CodeTooLarge, "request body too large")
		return
	}
	badRequest(w, "body", "invalid request body")
}
