package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lesserevil/miniscope/internal/chunker"
	"github.com/lesserevil/miniscope/internal/detect"
	"github.com/lesserevil/miniscope/internal/repository"
)

type Response struct {
	Status string     `json:"status"`
	Data   any        `json:"data,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{
		Status: "ok",
		Data:   data,
	})
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{
		Status: "error",
		Error: &ErrorBody{
			Code:    code,
			Message: message,
		},
	})
}

func ReadJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// Classify maps domain errors onto an HTTP status and a stable error code.
// Unrecognized errors become 500 INTERNAL.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, repository.ErrInvalidRange):
		return http.StatusBadRequest, "INVALID_RANGE"
	case errors.Is(err, repository.ErrOverlap):
		return http.StatusConflict, "OVERLAP"
	case errors.Is(err, chunker.ErrConfiguration), errors.Is(err, detect.ErrConfiguration):
		return http.StatusBadRequest, "CONFIGURATION"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

// WriteDomainError writes err with the status and code from Classify.
func WriteDomainError(w http.ResponseWriter, err error) {
	status, code := Classify(err)
	WriteError(w, status, code, err.Error())
}
