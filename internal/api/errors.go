package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/competitive-intel/internal/impact"
)

// errorBody is the JSON body of every non-2xx response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

// writeError maps err onto a status and a stable error code. Internal
// failures are logged and never echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := impact.HTTPStatus(err)

	body := errorBody{Message: err.Error()}
	switch status {
	case http.StatusBadRequest:
		body.Error = "validation_error"
		var ve *impact.ValidationError
		if errors.As(err, &ve) {
			body.Message = strings.Join(ve.Fields, "; ")
		}
	case http.StatusNotFound:
		body.Error = "not_found"
		var nf *impact.NotFoundError
		if errors.As(err, &nf) {
			body.Message = nf.Kind + " " + nf.ID + " not found"
		}
	default:
		body.Error = "internal_error"
		body.Message = "internal server error"
		zap.L().Error("api: request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}

	writeJSON(w, status, body)
}

func badRequest(fields ...string) error {
	return &impact.ValidationError{Fields: fields}
}
