package handler

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/aidar/task-tracker/internal/domain"
)

// Статусы HTTP для каждого кода классификатора ошибок
var statusByCode = map[domain.ErrorCode]int{
	domain.CodeInvalidQueryParameter: http.StatusBadRequest,
	domain.CodeMissingRequiredField:  http.StatusBadRequest,
	domain.CodeInvalidReference:      http.StatusBadRequest,
	domain.CodeReferenceNotFound:     http.StatusBadRequest,
	domain.CodeNotFound:              http.StatusNotFound,
	domain.CodeUniquenessConflict:    http.StatusConflict,
	domain.CodeInternal:              http.StatusInternalServerError,
}

// RespondWithError отправляет ответ с ошибкой в формате конверта
func RespondWithError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	render.Status(r, statusCode)
	render.JSON(w, r, Envelope{Message: message, Data: map[string]any{}})
}

// HandleError преобразует ошибку в HTTP ответ через классификатор.
// Неклассифицированные ошибки не раскрывают внутренних деталей.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.MapErrorToCode(err)

	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := err.Error()
	if code == domain.CodeInternal {
		message = "internal server error"
	}

	RespondWithError(w, r, status, message)
}
