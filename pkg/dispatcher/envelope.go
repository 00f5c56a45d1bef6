// Package dispatcher routes incoming COMMS messages to mapper operations.
package dispatcher

import json "github.com/goccy/go-json"

// MapperRequest is the JSON envelope for incoming COMMS mapper requests.
type MapperRequest struct {
	ID     string             `json:"id"`
	Method string             `json:"method"`
	Ver    string             `json:"ver,omitempty"`
	Params json.RawMessage    `json:"params"`
	Ctx    *InvocationContext `json:"ctx,omitempty"`
}

// MapperResponse is the JSON envelope for COMMS mapper responses.
type MapperResponse struct {
	ID     string       `json:"id"`
	Ok     bool         `json:"ok"`
	Ver    string       `json:"ver,omitempty"`
	Result any          `json:"result,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	Retryable bool   `json:"retryable"`
}

// InvocationContext holds context from the caller.
type InvocationContext struct {
	TenantID      string `json:"tenantId,omitempty"`
	UserID        string `json:"userId,omitempty"`
	RequestID     string `json:"requestId,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
	Env           string `json:"env,omitempty"`
	// TimeoutMs shortens the server's request timeout when positive.
	TimeoutMs int64 `json:"timeoutMs,omitempty"`
}

// MapParams are the params of the "map" method. Source and Destination are
// registered type names or catalog aliases; Payload is the JSON encoding of
// the source value. A missing or null payload is an absent source.
type MapParams struct {
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// PairParams are the params of the "resolve" method.
type PairParams struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// MapResult is the result of the "map" method.
type MapResult struct {
	Destination string `json:"destination"`
	Value       any    `json:"value"`
}

// ResolveResult describes a resolved strategy.
type ResolveResult struct {
	Key        string `json:"key"`
	Capability string `json:"capability"`
	Operation  string `json:"operation"`
}

// PairInfo is one cached type pair.
type PairInfo struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// VersionMismatchDetails accompanies a VERSION_MISMATCH error.
type VersionMismatchDetails struct {
	Requested string   `json:"requested"`
	Supported []string `json:"supported"`
	Majors    []int    `json:"majors"`
}

// HealthResult is the result of the "health" method.
type HealthResult struct {
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	Version      string            `json:"version"`
	APIVersions  []string          `json:"apiVersions"`
	Majors       []int             `json:"majors"`
	Pairs        int               `json:"pairs"`
	Capabilities int               `json:"capabilities"`
	Components   map[string]string `json:"components,omitempty"`
}
