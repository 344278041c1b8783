package errors

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

func entry(r *http.Request) *logrus.Entry {
	// Never log the path: the webhook path carries its secret.
	e := logrus.WithField("method", r.Method)
	if requestID := middleware.GetReqID(r.Context()); requestID != "" {
		e = e.WithField("request_id", requestID)
	}
	return e
}

func InternalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	entry(r).WithError(err).Error(message)

	// Clients only ever see a generic message.
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func BadRequestError(w http.ResponseWriter, r *http.Request, err error, clientMessage string) {
	entry(r).WithError(err).Warn("bad request")

	http.Error(w, clientMessage, http.StatusBadRequest)
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	entry(r).Warn("not found")

	http.Error(w, "not found", http.StatusNotFound)
}

func LogError(r *http.Request, message string, err error) {
	entry(r).WithError(err).Error(message)
}
