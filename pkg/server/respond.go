package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/lineagraph/pkg/errors"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encode response", "error", err)
	}
}

// respondError maps err to a status through its code. Errors without a
// code are internal and their text is not exposed.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatus(code)
	msg := errors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		if errors.GetCode(err) == "" {
			msg = http.StatusText(status)
		}
	}
	s.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Message: msg,
	})
}

// decode reads a JSON body into v and validates its struct tags.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return errors.New(errors.ErrCodeInvalidInput, "decode request: %v", err)
	}
	if err := validate.Struct(v); err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "invalid request: %v", err)
	}
	return nil
}
