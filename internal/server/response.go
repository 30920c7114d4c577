package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"coursebuilder/internal/mutate"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondStoreError maps store and mutate errors onto the envelope.
func respondStoreError(c *gin.Context, err error) {
	var nf mutate.NotFoundError
	var iv mutate.InvariantViolationError
	switch {
	case errors.As(err, &nf):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.As(err, &iv):
		RespondError(c, http.StatusUnprocessableEntity, "invariant_violation", err)
	case errors.Is(err, context.DeadlineExceeded):
		RespondError(c, http.StatusGatewayTimeout, "timeout", err)
	default:
		_ = c.Error(err)
		RespondError(c, http.StatusInternalServerError, "internal", errors.New("internal error"))
	}
}
