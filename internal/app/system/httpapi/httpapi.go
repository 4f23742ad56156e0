// internal/app/system/httpapi/httpapi.go
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/eventhub/internal/app/system/limits"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Error taxonomy: permission-denied -> 403, not-found -> 404, validation ->
// 422, misconfigured service -> 500. Failures are never fatal to the process;
// the client can always retry the action.

// ErrorBody is the JSON shape every error response uses.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error writes an ErrorBody with the given status code.
func Error(w http.ResponseWriter, code int, msg string) {
	JSON(w, code, ErrorBody{Error: msg})
}

// Decode parses the request body into v. It rejects unknown fields so client
// typos surface as validation errors instead of silently dropped data, and
// reads at most limits.MaxJSONBodySize bytes.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, limits.MaxJSONBodySize))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// StoreError maps store-layer failures onto the error taxonomy and logs the
// underlying cause. Unknown errors become a 500 with the message passed
// through largely verbatim.
func StoreError(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		Error(w, http.StatusNotFound, "not found")
	default:
		if log != nil {
			log.Error(op+" failed", zap.Error(err))
		}
		Error(w, http.StatusInternalServerError, err.Error())
	}
}

// ValidationError writes a 422 for client-side field validation failures.
func ValidationError(w http.ResponseWriter, msg string) {
	Error(w, http.StatusUnprocessableEntity, msg)
}
