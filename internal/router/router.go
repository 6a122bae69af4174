package router

import (
	"encoding/json"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/todo/api/handler"
	"github.com/fastygo/todo/api/transport"
)

type Handlers struct {
	Todo   *apiHandler.TodoHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers, logger *zap.Logger) *router.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := router.New()

	api := r.Group("/api/v1")
	api.GET("/health", handlers.Health.Check)

	api.GET("/todos", handlers.Todo.ListTodos)
	api.POST("/todos", handlers.Todo.CreateTodo)
	api.GET("/todos/{id}", handlers.Todo.GetTodo)
	api.PUT("/todos/{id}", handlers.Todo.UpdateTodo)
	api.DELETE("/todos/{id}", handlers.Todo.DeleteTodo)

	r.NotFound = func(ctx *fasthttp.RequestCtx) {
		writeError(ctx, fasthttp.StatusNotFound, "Not found")
	}
	r.MethodNotAllowed = func(ctx *fasthttp.RequestCtx) {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
	}
	r.PanicHandler = func(ctx *fasthttp.RequestCtx, recovered interface{}) {
		logger.Error("handler panic", zap.ByteString("path", ctx.Path()), zap.Any("panic", recovered))
		writeError(ctx, fasthttp.StatusInternalServerError, "Internal server error")
	}

	return r
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	body, _ := json.Marshal(transport.ErrorResponse{Error: message})
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
