package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tOgg1/visitwatch/internal/db"
	"github.com/tOgg1/visitwatch/internal/models"
)

// Error codes returned in JSON error bodies.
const (
	CodeNotFound    = "not_found"
	CodeInvalidDate = "invalid_date"
	CodeValidation  = "validation_error"
	CodeBadRequest  = "bad_request"
	CodeConflict    = "conflict"
	CodeInternal    = "internal_error"
)

// Error is an HTTP-aware error. Status is never serialized.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code string, status int, message string, err error) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// fromError maps domain errors onto HTTP errors. Unknown errors become 500s
// and do not leak their message.
func fromError(err error) *Error {
	var e *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &e):
		return e
	case errors.Is(err, models.ErrNotFound):
		return newError(CodeNotFound, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, db.ErrSubjectAlreadyExists):
		return newError(CodeConflict, http.StatusConflict, err.Error(), err)
	case isValidation(err):
		return newError(CodeValidation, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, models.ErrInvalidDateFormat):
		return newError(CodeInvalidDate, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, models.ErrInvalidArgument):
		return newError(CodeBadRequest, http.StatusBadRequest, err.Error(), err)
	default:
		return newError(CodeInternal, http.StatusInternalServerError, "internal server error", err)
	}
}

func isValidation(err error) bool {
	var v *models.ValidationErrors
	return errors.As(err, &v)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	e := fromError(err)
	writeJSON(w, e.Status, models.ErrorResponse{Code: e.Code, Message: e.Message})
}
