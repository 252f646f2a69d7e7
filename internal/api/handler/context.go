package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ecosphere/ecosphere/internal/api/middleware"
	"github.com/ecosphere/ecosphere/internal/api/response"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// GetUserID retrieves the authenticated user ID from the context.
// This is a convenience wrapper around middleware.GetUserID.
func GetUserID(ctx context.Context) string {
	return middleware.GetUserID(ctx)
}

// decodeJSON reads the request body into v, writing a 400 on failure.
// An empty body decodes to the zero value when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		response.BadRequest(w, r, "invalid JSON body", nil)
		return false
	}
	return true
}

// internalError logs err with request correlation and writes a generic 500.
func internalError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error, detail string) {
	logger.Error().
		Err(err).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Str("user_id", GetUserID(r.Context())).
		Str("path", r.URL.Path).
		Msg(detail)
	response.InternalError(w, r, detail)
}
