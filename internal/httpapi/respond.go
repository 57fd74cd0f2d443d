package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mofumofu/authcore/pkg/environment"
	"github.com/mofumofu/authcore/pkg/logger"
	"github.com/mofumofu/authcore/pkg/validator"
)

type errorBody struct {
	Error   string                     `json:"error"`
	Fields  validator.ValidationErrors `json:"fields,omitempty"`
	Details string                     `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail writes err as {"error": key}. Validation failures list their fields;
// the raw error text is only exposed in development.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	he := toHTTPError(err)
	body := errorBody{Error: he.Key}
	if he == ErrValidation {
		body.Fields = validator.ExtractValidationErrors(err)
	}
	if environment.FromContext(r.Context()).IsDevelopment() {
		body.Details = err.Error()
	}

	level := slog.LevelDebug
	if he.Code >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	a.logger.Log(r.Context(), level, "request failed",
		slog.String("path", r.URL.Path),
		slog.Int("status", he.Code),
		logger.Error(err),
	)

	writeJSON(w, he.Code, body)
}
