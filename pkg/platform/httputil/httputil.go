// Package httputil centralizes JSON response writing and request decoding
// so every handler emits the same envelopes.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dErrors "scenario-gateway/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into its HTTP status and JSON body.
// Internal errors omit the description so implementation detail never
// reaches clients; everything else carries it when present.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	description := ""
	var de dErrors.Error
	if errors.As(err, &de) {
		code = de.Code
		if code != dErrors.CodeInternal {
			description = de.Description
		}
	}

	body := map[string]string{"error": string(code)}
	if description != "" {
		body["error_description"] = description
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}

// DecodeLenient decodes the request body into v, degrading to the zero
// value on a missing or malformed body. Callers that treat an absent body
// as "all defaults" use this instead of failing the request.
func DecodeLenient(r *http.Request, v any) {
	if r.Body == nil {
		return
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil || len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, v)
}
