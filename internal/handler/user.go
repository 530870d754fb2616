package handler

import (
	"encoding/json"
	"net/http"

	"github.com/aidar/task-tracker/internal/domain"
	"github.com/aidar/task-tracker/internal/query"
	"github.com/aidar/task-tracker/internal/service"
)

// UserHandler обрабатывает эндпоинты коллекции пользователей
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler создает новый UserHandler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// UserRequest представляет тело запроса создания/замены пользователя.
// PendingTasks — указатель, чтобы отличать отсутствующее поле от пустого
// множества: замена применяется только когда поле передано.
type UserRequest struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PendingTasks *[]string `json:"pendingTasks"`
}

// toInput валидирует обязательные поля и собирает вход сервиса
func (req *UserRequest) toInput() (service.UserInput, error) {
	if req.Name == "" {
		return service.UserInput{}, domain.NewMissingField("name")
	}
	if req.Email == "" {
		return service.UserInput{}, domain.NewMissingField("email")
	}

	in := service.UserInput{
		Name:  req.Name,
		Email: req.Email,
	}
	if req.PendingTasks != nil {
		pending := *req.PendingTasks
		if pending == nil {
			pending = []string{}
		}
		in.PendingTasks = pending
	}
	return in, nil
}

// List обрабатывает GET /users (список или count при count=true)
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := query.ParseList(r.URL.Query(), query.Users)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	if q.CountOnly {
		count, err := h.userService.Count(r.Context(), q.Filter)
		if err != nil {
			HandleError(w, r, err)
			return
		}
		RespondWithData(w, r, http.StatusOK, "OK", count)
		return
	}

	docs, err := h.userService.List(r.Context(), q)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	RespondWithData(w, r, http.StatusOK, "OK", docs)
}

// Get обрабатывает GET /users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := parseItemID(r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	RespondWithData(w, r, http.StatusOK, "OK", user.Document())
}

// Create обрабатывает POST /users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	in, err := req.toInput()
	if err != nil {
		HandleError(w, r, err)
		return
	}

	user, err := h.userService.Create(r.Context(), in)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	RespondWithData(w, r, http.StatusCreated, "user created", user.Document())
}

// Replace обрабатывает PUT /users/{id}
func (h *UserHandler) Replace(w http.ResponseWriter, r *http.Request) {
	userID, err := parseItemID(r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	in, err := req.toInput()
	if err != nil {
		HandleError(w, r, err)
		return
	}

	user, err := h.userService.Replace(r.Context(), userID, in)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	RespondWithData(w, r, http.StatusOK, "user updated", user.Document())
}

// Delete обрабатывает DELETE /users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := parseItemID(r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	if err := h.userService.Delete(r.Context(), userID); err != nil {
		HandleError(w, r, err)
		return
	}
	RespondWithData(w, r, http.StatusOK, "user deleted", nil)
}
