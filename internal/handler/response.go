package handler

import (
	"net/http"

	"github.com/go-chi/render"
)

// Envelope представляет единый формат ответа API: сообщение и полезная
// нагрузка (результат или пустой объект)
type Envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// RespondWithData отправляет успешный ответ в формате конверта
func RespondWithData(w http.ResponseWriter, r *http.Request, statusCode int, message string, data any) {
	if data == nil {
		data = map[string]any{}
	}
	render.Status(r, statusCode)
	render.JSON(w, r, Envelope{Message: message, Data: data})
}
