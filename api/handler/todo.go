package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todo/api/transport"
	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/pkg/httpcontext"
	todoUC "github.com/fastygo/todo/usecase/todo"
)

type TodoHandler struct {
	baseHandler
	uc *todoUC.UseCase
}

func NewTodoHandler(uc *todoUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TodoHandler {
	return &TodoHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List todos
// @Tags todos
// @Param completed query string false "true/false, case-insensitive"
// @Param window query int false "days until deadline"
// @Router /api/v1/todos [get]
func (h *TodoHandler) ListTodos(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	query, err := parseListQuery(ctx.QueryArgs())
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	todos, err := h.uc.ListTodos(stdCtx, query)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, todos)
}

// @Summary Get todo
// @Tags todos
// @Router /api/v1/todos/{id} [get]
func (h *TodoHandler) GetTodo(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, err := todoID(ctx)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	todo, err := h.uc.GetTodo(stdCtx, id)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, todo)
}

// @Summary Create todo
// @Tags todos
// @Accept json
// @Produce json
// @Router /api/v1/todos [post]
func (h *TodoHandler) CreateTodo(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	draft, err := transport.DecodeTodoPatch(ctx.PostBody())
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	created, err := h.uc.CreateTodo(stdCtx, draft)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusCreated, created)
}

// @Summary Update todo
// @Tags todos
// @Accept json
// @Produce json
// @Router /api/v1/todos/{id} [put]
func (h *TodoHandler) UpdateTodo(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	patch, err := transport.DecodeTodoPatch(ctx.PostBody())
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	id, err := todoID(ctx)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	updated, err := h.uc.UpdateTodo(stdCtx, id, patch)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, updated)
}

// DeleteTodo answers 200 even when the todo does not exist, with an empty
// object as the body.
//
// @Summary Delete todo
// @Tags todos
// @Router /api/v1/todos/{id} [delete]
func (h *TodoHandler) DeleteTodo(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, err := todoID(ctx)
	if err != nil {
		h.respondJSON(ctx, http.StatusOK, transport.Empty{})
		return
	}

	deleted, err := h.uc.DeleteTodo(stdCtx, id)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			h.respondJSON(ctx, http.StatusOK, transport.Empty{})
			return
		}
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, deleted)
}

func parseListQuery(args *fasthttp.Args) (todoUC.ListQuery, error) {
	var query todoUC.ListQuery

	if args.Has("completed") {
		completed := strings.EqualFold(string(args.Peek("completed")), "true")
		query.Completed = &completed
	}

	if args.Has("window") {
		days, err := strconv.Atoi(strings.TrimSpace(string(args.Peek("window"))))
		if err != nil {
			return query, domain.WrapError(domain.ErrCodeInvalid, domain.ErrInvalidWindow.Message, err)
		}
		query.WindowDays = &days
	}

	return query, nil
}

// todoID reads the {id} path segment. Anything that is not an integer
// cannot name a todo.
func todoID(ctx *fasthttp.RequestCtx) (int64, error) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.ErrTodoNotFound
	}
	return id, nil
}
