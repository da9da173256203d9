package handler

import (
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/questboard/api/transport"
	"github.com/fastygo/questboard/domain"
	"github.com/fastygo/questboard/pkg/httpcontext"
	"github.com/fastygo/questboard/repository"
	taskUC "github.com/fastygo/questboard/usecase/task"
)

const defaultTaskPage = 50

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List the caller's tasks, newest first
// @Tags tasks
// @Param completed query bool false "filter by completion"
// @Param limit query int false "page size (max 100)"
// @Param offset query int false "page offset"
// @Router /api/v1/tasks [get]
func (h *TaskHandler) GetTasks(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	query, err := parseTaskListQuery(ctx.QueryArgs())
	if err != nil {
		h.respondInvalid(ctx, err.Error())
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.ListTasks(stdCtx, repository.TaskFilter{
		UserID:    userID,
		Completed: query.Completed,
		Limit:     query.Limit,
		Offset:    query.Offset,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	h.respondSuccess(ctx, http.StatusOK, tasks)
}

// @Summary Create task
// @Tags tasks
// @Accept json
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	var req transport.TaskRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateTask(stdCtx, &domain.Task{UserID: userID, Title: req.Title})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get one of the caller's tasks
// @Tags tasks
// @Produce json
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	userID, id, ok := h.taskScope(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.GetTask(stdCtx, userID, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Rename task
// @Tags tasks
// @Accept json
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	userID, id, ok := h.taskScope(ctx)
	if !ok {
		return
	}
	var req transport.TaskRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.RenameTask(stdCtx, &domain.Task{ID: id, UserID: userID, Title: req.Title})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete task; rewards it already earned are kept
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	userID, id, ok := h.taskScope(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteTask(stdCtx, userID, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Complete task and collect its reward
// @Description Completing an already completed task succeeds with applied=false and changes nothing.
// @Tags tasks
// @Router /api/v1/tasks/{id}/complete [post]
func (h *TaskHandler) CompleteTask(ctx *fasthttp.RequestCtx) {
	userID, id, ok := h.taskScope(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	completion, err := h.uc.CompleteTask(stdCtx, userID, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewCompletionResponse(completion))
}

// taskScope resolves the caller and the {id} route parameter, answering 401 or 400 when either is missing.
func (h *TaskHandler) taskScope(ctx *fasthttp.RequestCtx) (userID, id string, ok bool) {
	if userID = h.userID(ctx); userID == "" {
		return "", "", false
	}
	if id, _ = ctx.UserValue("id").(string); id == "" {
		h.respondInvalid(ctx, "missing task id")
		return "", "", false
	}
	return userID, id, true
}

func parseTaskListQuery(args *fasthttp.Args) (transport.TaskListQuery, error) {
	query := transport.TaskListQuery{Limit: defaultTaskPage}
	var err error
	if raw := args.Peek("limit"); len(raw) > 0 {
		if query.Limit, err = strconv.Atoi(string(raw)); err != nil {
			return query, errInvalidQuery("limit must be an integer")
		}
	}
	if raw := args.Peek("offset"); len(raw) > 0 {
		if query.Offset, err = strconv.Atoi(string(raw)); err != nil {
			return query, errInvalidQuery("offset must be an integer")
		}
	}
	if raw := args.Peek("completed"); len(raw) > 0 {
		completed, err := strconv.ParseBool(string(raw))
		if err != nil {
			return query, errInvalidQuery("completed must be a boolean")
		}
		query.Completed = &completed
	}
	if err := transport.Validate(query); err != nil {
		return query, errInvalidQuery("limit must be 0-100 and offset non-negative")
	}
	return query, nil
}

func errInvalidQuery(message string) error {
	return domain.NewError(domain.ErrCodeInvalid, message)
}
