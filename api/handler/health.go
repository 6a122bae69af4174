package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todo/api/transport"
	"github.com/fastygo/todo/pkg/httpcontext"
)

type HealthHandler struct {
	baseHandler
}

func NewHealthHandler(adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{baseHandler: newBaseHandler(adapter, logger)}
}

// Check reports that the server is up. It never touches storage.
//
// @Summary Health check
// @Tags health
// @Router /api/v1/health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	h.respondJSON(ctx, http.StatusOK, transport.StatusResponse{Status: "ok"})
}
