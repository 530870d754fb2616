package domain

import (
	"errors"
	"fmt"
)

// Доменные ошибки, на которые опирается классификатор на HTTP границе
var (
	// ErrNotFound возвращается когда ресурс не найден
	ErrNotFound = errors.New("resource not found")

	// ErrUserNotFound возвращается когда пользователь не найден
	ErrUserNotFound = errors.New("user not found")

	// ErrTaskNotFound возвращается когда задача не найдена
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidReference возвращается когда идентификатор исполнителя структурно невалиден
	ErrInvalidReference = errors.New("invalid assignee reference")

	// ErrReferenceNotFound возвращается когда исполнитель с указанным идентификатором не существует
	ErrReferenceNotFound = errors.New("referenced user does not exist")

	// ErrEmailTaken возвращается при нарушении уникальности email
	ErrEmailTaken = errors.New("email already in use")
)

// InvalidQueryParameterError описывает некорректный параметр списочного запроса.
// Param всегда называет виновный параметр (where/sort/select).
type InvalidQueryParameterError struct {
	Param string
}

func (e *InvalidQueryParameterError) Error() string {
	return fmt.Sprintf("invalid query parameter %q", e.Param)
}

// NewInvalidQueryParameter создает ошибку для указанного параметра запроса
func NewInvalidQueryParameter(param string) error {
	return &InvalidQueryParameterError{Param: param}
}

// MissingFieldError описывает отсутствующее обязательное поле тела запроса
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// NewMissingField создает ошибку для отсутствующего обязательного поля
func NewMissingField(field string) error {
	return &MissingFieldError{Field: field}
}

// ErrorCode представляет коды ошибок API
type ErrorCode string

// Коды ошибок, возвращаемые классификатором
const (
	CodeInvalidQueryParameter ErrorCode = "INVALID_QUERY_PARAMETER" // Некорректный параметр запроса
	CodeMissingRequiredField  ErrorCode = "MISSING_REQUIRED_FIELD"  // Отсутствует обязательное поле
	CodeInvalidReference      ErrorCode = "INVALID_REFERENCE"       // Невалидная ссылка на пользователя
	CodeReferenceNotFound     ErrorCode = "REFERENCE_NOT_FOUND"     // Пользователь по ссылке не найден
	CodeNotFound              ErrorCode = "NOT_FOUND"               // Ресурс не найден
	CodeUniquenessConflict    ErrorCode = "UNIQUENESS_CONFLICT"     // Конфликт уникальности
	CodeInternal              ErrorCode = "INTERNAL_ERROR"          // Неклассифицированная ошибка
)

// MapErrorToCode преобразует ошибки в коды ошибок API
func MapErrorToCode(err error) ErrorCode {
	var invalidParam *InvalidQueryParameterError
	var missingField *MissingFieldError

	switch {
	case errors.As(err, &invalidParam):
		return CodeInvalidQueryParameter
	case errors.As(err, &missingField):
		return CodeMissingRequiredField
	case errors.Is(err, ErrInvalidReference):
		return CodeInvalidReference
	case errors.Is(err, ErrReferenceNotFound):
		return CodeReferenceNotFound
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound), errors.Is(err, ErrTaskNotFound):
		return CodeNotFound
	case errors.Is(err, ErrEmailTaken):
		return CodeUniquenessConflict
	default:
		return CodeInternal
	}
}
