// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"github.com/avattoli/MyTasks/internal/app/system/httpjson"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorLogger turns handler errors into JSON responses.
//
// Errors from the apperr taxonomy are shown to the caller as-is. Anything else
// is logged with a reference id and the caller only sees that id.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

// internalResponse is the body of a 5xx answer.
type internalResponse struct {
	Error string `json:"error"`
	Ref   string `json:"ref"`
}

// Respond writes err with the status apperr.HTTPStatus assigns to it.
func (e *ErrorLogger) Respond(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status < http.StatusInternalServerError {
		httpjson.Error(w, status, err.Error())
		return
	}

	ref := uuid.NewString()
	e.Log.Error("request failed",
		zap.String("ref", ref),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	httpjson.Write(w, status, internalResponse{Error: "Internal server error", Ref: ref})
}

// NotFound answers unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	httpjson.Error(w, http.StatusNotFound, "Not found")
}

// MethodNotAllowed answers known routes hit with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httpjson.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
}
