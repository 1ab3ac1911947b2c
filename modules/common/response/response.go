package response

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

// ErrorBody is the error shape returned by every endpoint.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("❌ [Response] Failed to encode response")
	}
}

// Error writes {"error": message} with the given status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// Raw relays an already-encoded JSON body unchanged.
func Raw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("❌ [Response] Failed to write body")
	}
}

// DecodeLenient decodes a JSON request body into a T. A missing or malformed
// body yields the zero T instead of failing the request.
func DecodeLenient[T any](r io.Reader) T {
	var v T
	if r == nil {
		return v
	}
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		if err != io.EOF {
			log.Debug().Err(err).Msg("[Response] Request body not parseable, using empty object")
		}
		var empty T
		return empty
	}
	return v
}
