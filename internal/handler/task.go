package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aidar/task-tracker/internal/domain"
	"github.com/aidar/task-tracker/internal/query"
	"github.com/aidar/task-tracker/internal/service"
)

// TaskHandler обрабатывает эндпоинты коллекции задач
type TaskHandler struct {
	taskService *service.TaskService
}

// NewTaskHandler создает новый TaskHandler
func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// TaskRequest представляет тело запроса создания/замены задачи.
// assignedUserName клиента игнорируется: снимок имени всегда читается из БД.
type TaskRequest struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Deadline     *time.Time `json:"deadline"`
	Completed    bool       `json:"completed"`
	AssignedUser string     `json:"assignedUser"`
}

// toInput валидирует обязательные поля и собирает вход сервиса
func (req *TaskRequest) toInput() (service.TaskInput, error) {
	if req.Name == "" {
		return service.TaskInput{}, domain.NewMissingField("name")
	}
	if req.Deadline == nil {
		return service.TaskInput{}, domain.NewMissingField("deadline")
	}

	return service.TaskInput{
		Name:         req.Name,
		Description:  req.Description,
		Deadline:     *req.Deadline,
		Completed:    req.Completed,
		AssignedUser: req.AssignedUser,
	}, nil
}

// List обрабатывает GET /tasks (список или count при count=true)
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := query.ParseList(r.URL.Query(), query.Tasks)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	if q.CountOnly {
		count, err := h.taskService.Count(r.Context(), q.Filter)
		if err != nil {
			HandleError(w, r, err)
			return
		}
		RespondWithData(w, r, http.StatusOK, "OK", count)
		return
	}

	docs, err := h.taskService.List(r.Context(), q)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	RespondWithData(w, r, http.StatusOK, "OK", docs)
}

// Get обрабатывает GET /tasks/{id}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseItemID(r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	task, err := h.taskService.GetByID(r.Context(), taskID)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	RespondWithData(w, r, http.StatusOK, "OK", task.Document())
}

// Create обрабатывает POST /tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	in, err := req.toInput()
	if err != nil {
		HandleError(w, r, err)
		return
	}

	task, err := h.taskService.Create(r.Context(), in)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	RespondWithData(w, r, http.StatusCreated, "task created", task.Document())
}

// Replace обрабатывает PUT /tasks/{id}
func (h *TaskHandler) Replace(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseItemID(r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	in, err := req.toInput()
	if err != nil {
		HandleError(w, r, err)
		return
	}

	task, err := h.taskService.Replace(r.Context(), taskID, in)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	RespondWithData(w, r, http.StatusOK, "task updated", task.Document())
}

// Delete обрабатывает DELETE /tasks/{id}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseItemID(r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	if err := h.taskService.Delete(r.Context(), taskID); err != nil {
		HandleError(w, r, err)
		return
	}
	RespondWithData(w, r, http.StatusOK, "task deleted", nil)
}

// parseItemID разбирает идентификатор из пути. Структурно невалидный
// идентификатор неотличим от отсутствующего ресурса
func parseItemID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.UUID{}, domain.ErrNotFound
	}
	return id, nil
}
