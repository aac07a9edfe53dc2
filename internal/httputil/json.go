package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/AdamBeresnev/esport-cup/internal/apperr"
	"go.uber.org/zap"
)

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// JSONError is Error for the JSON endpoints.
func JSONError(w http.ResponseWriter, log *zap.SugaredLogger, err error) {
	status := StatusFor(err)
	msg := apperr.Message(err, http.StatusText(status))
	if status == http.StatusInternalServerError {
		log.Errorw("request failed", "error", err)
		msg = http.StatusText(status)
	}
	if werr := WriteJSON(w, status, errorBody{Error: msg, Kind: apperr.KindOf(err).String()}); werr != nil {
		log.Warnw("failed to write error body", "error", werr)
	}
}
