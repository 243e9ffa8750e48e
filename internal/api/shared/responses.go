package shared

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/trailway/trailway/internal/classify"
	"github.com/trailway/trailway/internal/feature"
)

// StepInfo identifies the failed step in an error response body.
type StepInfo struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// RespondWithJSON writes a JSON response with the given status code and
// data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError emits the structured JSON failure body for a terminal
// pipeline error. The body carries a message and numeric status code,
// plus whatever is discoverable on the original error: a code field, a
// validation-errors map, the failed step, and any additional exported
// fields found on the error. Auto-propagating custom fields from a
// domain error through to the wire is a documented contract of the
// emitter, not an accident.
//
// In debug mode a stack trace of the current goroutine is attached; the
// error's own name and stack are never emitted otherwise.
func WriteError(w http.ResponseWriter, r *http.Request, err error, debugMode bool) {
	original := err
	var step *feature.StepDescriptor
	var fe *feature.Error
	if errors.As(err, &fe) {
		step = fe.Step
		if fe.Original != nil {
			original = fe.Original
		}
	}

	status := classify.StatusCode(original)
	traits := classify.Inspect(original)

	body := map[string]any{
		"message":    original.Error(),
		"statusCode": status,
	}
	if traits.Code != "" {
		body["code"] = traits.Code
	}
	if len(traits.ValidationErrors) > 0 {
		body["validationErrors"] = traits.ValidationErrors
	}
	if step != nil {
		body["step"] = StepInfo{Number: step.Order, Name: step.Name}
	}
	for k, v := range traits.Extra {
		if _, taken := body[k]; !taken {
			body[k] = v
		}
	}
	// Body keys are uniformly lowerCamel, matching the propagated extra
	// fields; log attributes stay snake_case.
	if traceID := GetTraceID(r.Context()); traceID != "" {
		body["traceId"] = traceID
	}
	if debugMode {
		body["stack"] = string(debug.Stack())
	}

	logLevel := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		logLevel = slog.LevelError
	}
	slog.LogAttrs(r.Context(), logLevel, "pipeline error response",
		slog.Int("status_code", status),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.String("kind", string(classify.Classify(original))),
		slog.String("error", original.Error()),
	)

	RespondWithJSON(w, r, status, body)
}
