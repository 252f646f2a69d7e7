package models

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC 7807 error body, served as application/problem+json.
type Problem struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	TraceID  string       `json:"traceId"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// FieldError describes a rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

const problemBase = "https://api.ecosphere.app/problems/"

// Problem type URIs.
const (
	ProblemTypeValidation         = problemBase + "validation-error"
	ProblemTypeUnauthorized       = problemBase + "unauthorized"
	ProblemTypeNotFound           = problemBase + "not-found"
	ProblemTypeConflict           = problemBase + "conflict"
	ProblemTypeInsufficientPoints = problemBase + "insufficient-points"
	ProblemTypeUnsupportedMedia   = problemBase + "unsupported-media-type"
	ProblemTypeTLSRequired        = problemBase + "tls-required"
	ProblemTypeTooManyRequests    = problemBase + "too-many-requests"
	ProblemTypeInternal           = problemBase + "internal-error"
	ProblemTypeUnavailable        = problemBase + "service-unavailable"
)

type problemKind struct {
	title  string
	status int
}

var problemKinds = map[string]problemKind{
	ProblemTypeValidation:         {"Validation error", http.StatusBadRequest},
	ProblemTypeUnauthorized:       {"Unauthorized", http.StatusUnauthorized},
	ProblemTypeNotFound:           {"Not found", http.StatusNotFound},
	ProblemTypeConflict:           {"Conflict", http.StatusConflict},
	ProblemTypeInsufficientPoints: {"Insufficient points", http.StatusConflict},
	ProblemTypeUnsupportedMedia:   {"Unsupported media type", http.StatusUnsupportedMediaType},
	ProblemTypeTLSRequired:        {"TLS required", http.StatusForbidden},
	ProblemTypeTooManyRequests:    {"Too many requests", http.StatusTooManyRequests},
	ProblemTypeInternal:           {"Internal server error", http.StatusInternalServerError},
	ProblemTypeUnavailable:        {"Service unavailable", http.StatusServiceUnavailable},
}

// NewProblem creates a Problem with an explicit title and status.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{
		Type:    problemType,
		Title:   title,
		Status:  status,
		TraceID: traceID,
	}
}

// newKnown builds a Problem for one of the registered types.
func newKnown(problemType, traceID, detail string) *Problem {
	kind := problemKinds[problemType]
	p := NewProblem(problemType, kind.title, kind.status, traceID)
	p.Detail = detail
	return p
}

// Write sends the Problem with its status code. The trace id is echoed as X-Request-Id.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("X-Request-Id", p.TraceID)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewBadRequest creates a 400 validation problem with optional field errors.
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	p := newKnown(ProblemTypeValidation, traceID, detail)
	p.Errors = errors
	return p
}

// NewUnauthorized creates a 401 problem.
func NewUnauthorized(traceID, detail string) *Problem {
	return newKnown(ProblemTypeUnauthorized, traceID, detail)
}

// NewNotFound creates a 404 problem.
func NewNotFound(traceID, detail string) *Problem {
	return newKnown(ProblemTypeNotFound, traceID, detail)
}

// NewConflict creates a 409 problem.
func NewConflict(traceID, detail string) *Problem {
	return newKnown(ProblemTypeConflict, traceID, detail)
}

// NewInsufficientPoints creates a 409 problem for a balance too low to redeem.
func NewInsufficientPoints(traceID, detail string) *Problem {
	return newKnown(ProblemTypeInsufficientPoints, traceID, detail)
}

// NewUnsupportedMediaType creates a 415 problem.
func NewUnsupportedMediaType(traceID, detail string) *Problem {
	return newKnown(ProblemTypeUnsupportedMedia, traceID, detail)
}

// NewTLSRequired creates a 403 problem for plain HTTP behind a TLS-terminating proxy.
func NewTLSRequired(traceID, detail string) *Problem {
	return newKnown(ProblemTypeTLSRequired, traceID, detail)
}

// NewTooManyRequests creates a 429 problem.
func NewTooManyRequests(traceID, detail string) *Problem {
	return newKnown(ProblemTypeTooManyRequests, traceID, detail)
}

// NewInternalError creates a 500 problem.
func NewInternalError(traceID, detail string) *Problem {
	return newKnown(ProblemTypeInternal, traceID, detail)
}

// NewServiceUnavailable creates a 503 problem.
func NewServiceUnavailable(traceID, detail string) *Problem {
	return newKnown(ProblemTypeUnavailable, traceID, detail)
}
