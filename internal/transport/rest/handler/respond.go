package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"imposter/internal/game"
)

// retryAfterSeconds is advertised on Busy responses
const retryAfterSeconds = "1"

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps a service error to its status code
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var gerr *game.Error
	if !errors.As(err, &gerr) {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch gerr.Kind {
	case game.KindNotFound:
		writeError(w, http.StatusNotFound, gerr.Msg)
	case game.KindForbidden:
		writeError(w, http.StatusForbidden, gerr.Msg)
	case game.KindConflict:
		writeError(w, http.StatusConflict, gerr.Msg)
	case game.KindBusy:
		w.Header().Set("Retry-After", retryAfterSeconds)
		writeError(w, http.StatusServiceUnavailable, gerr.Msg)
	case game.KindUnavailable:
		hlog.FromRequest(r).Error().Err(err).Msg("store unavailable")
		writeError(w, http.StatusServiceUnavailable, gerr.Msg)
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody reads an optional JSON body; an empty body leaves dst untouched
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<16)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
