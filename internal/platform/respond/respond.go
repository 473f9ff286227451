package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"zoo-management/internal/platform/logger"
	"zoo-management/internal/platform/sentinel"
)

// Envelope es la forma común de todas las respuestas de la API.
type Envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// JSON escribe v tal cual, sin envelope.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, status int, data any) {
	JSON(w, status, Envelope{Success: true, Data: data})
}

func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Envelope{Success: true, Message: msg})
}

func List(w http.ResponseWriter, data any, page Page, total int) {
	p := PaginationFor(page, total)
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data, Pagination: &p})
}

func Fail(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Envelope{Success: false, Message: msg})
}

// Error traduce err a status + mensaje. Los 5xx no exponen el detalle y se loguean.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", map[string]any{
			"error":  err.Error(),
			"path":   r.URL.Path,
			"method": r.Method,
		})
		Fail(w, status, "internal error")
		return
	}
	Fail(w, status, err.Error())
}

func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, sentinel.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sentinel.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, sentinel.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, sentinel.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, sentinel.ErrNotValidToday):
		return http.StatusUnprocessableEntity
	case errors.Is(err, sentinel.ErrCapacityExceeded),
		errors.Is(err, sentinel.ErrDuplicateKey),
		errors.Is(err, sentinel.ErrAlreadyUsed),
		errors.Is(err, sentinel.ErrAlreadyFinalized),
		errors.Is(err, sentinel.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Decode lee el body JSON. Cualquier error se reporta como input inválido.
func Decode(r *http.Request, v any) error {
	if r.Body == nil {
		return sentinel.Invalid("invalid json")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return sentinel.Invalid("invalid json")
	}
	return nil
}

// DecodeOptional es Decode pero acepta body vacío.
func DecodeOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return sentinel.Invalid("invalid json")
	}
	return nil
}
