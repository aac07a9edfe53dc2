package httputil

import (
	"net/http"

	"github.com/AdamBeresnev/esport-cup/internal/apperr"
	"go.uber.org/zap"
)

// StatusFor maps an error kind to the HTTP status sent back to the client.
func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.Unauthorized:
		return http.StatusUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.InvalidState, apperr.Conflict:
		return http.StatusConflict
	case apperr.ValidationFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as plain text. Internal errors are logged and hidden from
// the client, domain errors carry their own message.
func Error(w http.ResponseWriter, log *zap.SugaredLogger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		InternalServerError(w, log, "request failed", err)
		return
	}
	log.Debugw("request rejected", "status", status, "error", err)
	http.Error(w, apperr.Message(err, http.StatusText(status)), status)
}

func InternalServerError(w http.ResponseWriter, log *zap.SugaredLogger, msg string, err error) {
	log.Errorw(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func BadRequest(w http.ResponseWriter, log *zap.SugaredLogger, msg string, err error) {
	if err != nil {
		log.Warnw("bad request", "message", msg, "error", err)
	} else {
		log.Warnw("bad request", "message", msg)
	}
	http.Error(w, msg, http.StatusBadRequest)
}

func NotFound(w http.ResponseWriter, log *zap.SugaredLogger, msg string, err error) {
	if err != nil {
		log.Warnw("not found", "message", msg, "error", err)
	} else {
		log.Warnw("not found", "message", msg)
	}
	http.Error(w, msg, http.StatusNotFound)
}
