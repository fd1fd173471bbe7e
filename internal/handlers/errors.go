package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-heatingoil-orderflow/internal/checkout"
)

var kindStatus = map[checkout.Kind]int{
	checkout.KindValidation: http.StatusBadRequest,
	checkout.KindNotFound:   http.StatusNotFound,
	checkout.KindInactive:   http.StatusNotFound,
	checkout.KindExpired:    http.StatusGone,
	checkout.KindConflict:   http.StatusConflict,
	checkout.KindUpstream:   http.StatusInternalServerError,
	checkout.KindStore:      http.StatusInternalServerError,
}

// statusOverrides replaces the default status of some kinds for a single route.
type statusOverrides map[checkout.Kind]int

type errorResponse struct {
	Error   checkout.Kind     `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// writeError renders err as {"error": kind, "message": msg}. The wrapped cause is logged
// and never sent to the client.
func (h *checkoutHandler) writeError(c *gin.Context, err error, overrides statusOverrides) {
	var cerr *checkout.Error
	if !errors.As(err, &cerr) {
		cerr = &checkout.Error{Kind: checkout.KindStore, Message: "internal error", Err: err}
	}

	status, ok := overrides[cerr.Kind]
	if !ok {
		status = kindStatus[cerr.Kind]
	}
	if status == 0 {
		status = http.StatusInternalServerError
	}

	attrs := []any{
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", status,
		"kind", string(cerr.Kind),
		"error", err,
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", attrs...)
	} else {
		h.logger.Info("request rejected", attrs...)
	}

	c.JSON(status, errorResponse{Error: cerr.Kind, Message: cerr.Message, Fields: cerr.Fields})
}

func malformedBody(err error) *checkout.Error {
	return &checkout.Error{Kind: checkout.KindValidation, Message: "request body must be valid JSON", Err: err}
}
