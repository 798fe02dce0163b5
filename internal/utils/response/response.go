package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/princekumarofficial/challenge-tracker/internal/utils/validate"
)

type Response struct {
	Status  string               `json:"status"`
	Error   string               `json:"error,omitempty"`
	Fields  validate.FieldErrors `json:"fields,omitempty"`
	Data    interface{}          `json:"data,omitempty"`
	Message string               `json:"message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

func ValidationError(errs validate.FieldErrors) Response {
	return Response{
		Status: StatusError,
		Error:  errs.Error(),
		Fields: errs,
	}
}

func RequestOK(message string, data interface{}) Response {
	return Response{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	}
}

// DecodeAndValidate reads a JSON body into v and validates it. On failure it
// writes the 400 response itself and returns false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("request body is empty")
		} else {
			err = fmt.Errorf("invalid request body: %w", err)
		}
		WriteJSON(w, http.StatusBadRequest, GeneralError(err))
		return false
	}

	if errs := validate.Struct(v, nil); errs != nil {
		WriteJSON(w, http.StatusBadRequest, ValidationError(errs))
		return false
	}
	return true
}
