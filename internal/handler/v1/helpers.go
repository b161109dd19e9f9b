package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/apperr"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error     string      `json:"error"`
	Code      string      `json:"code,omitempty"`
	Conflicts []uuid.UUID `json:"conflicts,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, RequestID: requestID(c)})
}

// respondServiceError maps a tagged service error onto its HTTP status.
// Untagged errors are logged and reported as a bare 500.
func respondServiceError(c *gin.Context, log *zap.Logger, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		log.Error("unhandled service error",
			zap.Error(err),
			zap.String("path", c.FullPath()),
			zap.String("request_id", requestID(c)),
		)
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	c.AbortWithStatusJSON(statusFor(appErr.Kind), ErrorResponse{
		Error:     appErr.Message,
		Code:      string(appErr.Kind),
		Conflicts: appErr.Conflicts,
		RequestID: requestID(c),
	})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAccessDenied:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

func bindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		respondError(c, http.StatusBadRequest, "invalid query: "+err.Error())
		return false
	}
	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid "+param+": must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// callerFrom returns the identity the auth middleware stored. Routes that
// reach a handler without one are a wiring bug, so it answers 401.
func callerFrom(c *gin.Context) (domain.Caller, bool) {
	v, ok := c.Get(ctxKeyCaller)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return domain.Caller{}, false
	}
	caller, ok := v.(domain.Caller)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return domain.Caller{}, false
	}
	return caller, true
}

func requestID(c *gin.Context) string {
	return c.GetString(ctxKeyRequestID)
}
