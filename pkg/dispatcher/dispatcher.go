package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	json "github.com/goccy/go-json"

	"github.com/morezero/type-mapper/pkg/bootstrap"
	"github.com/morezero/type-mapper/pkg/mapper"
	"github.com/morezero/type-mapper/pkg/registry"
	"github.com/morezero/type-mapper/pkg/semver"
)

const logPrefix = "dispatcher:dispatch"

// HealthFunc reports the state of external components (e.g. "database": "ok").
type HealthFunc func(ctx context.Context) map[string]string

// NewDispatcherParams holds the collaborators of a Dispatcher.
type NewDispatcherParams struct {
	Registry *registry.Registry
	Catalog  *bootstrap.ResolvedCatalog
	// Health is optional.
	Health HealthFunc
}

// Dispatcher routes COMMS requests to mapper operations.
type Dispatcher struct {
	registry *registry.Registry
	catalog  *bootstrap.ResolvedCatalog
	health   HealthFunc
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(params NewDispatcherParams) *Dispatcher {
	catalog := params.Catalog
	if catalog == nil {
		catalog = bootstrap.CreateResolvedCatalog(bootstrap.GetDefaultCatalogConfig())
	}
	return &Dispatcher{registry: params.Registry, catalog: catalog, health: params.Health}
}

// Dispatch negotiates the API version and routes a request to the
// appropriate handler.
func (d *Dispatcher) Dispatch(ctx context.Context, req *MapperRequest) *MapperResponse {
	slog.Debug(fmt.Sprintf("%s - method=%s id=%s ver=%s", logPrefix, req.Method, req.ID, req.Ver))

	if err := ctx.Err(); err != nil {
		return errorResponse(req.ID, "TIMEOUT", err.Error(), true)
	}

	supported := d.catalog.APIVersions()
	ver, err := semver.Negotiate(semver.NegotiateParams{
		Supported:    supported,
		Range:        req.Ver,
		DefaultMajor: -1,
	})
	if err != nil {
		resp := errorResponse(req.ID, "VERSION_MISMATCH", err.Error(), false)
		resp.Error.Details = &VersionMismatchDetails{
			Requested: req.Ver,
			Supported: supported,
			Majors:    semver.GetUniqueMajors(supported),
		}
		return resp
	}

	var resp *MapperResponse
	switch req.Method {
	case "map":
		resp = d.handleMap(req)
	case "resolve":
		resp = d.handleResolve(req)
	case "pairs":
		resp = d.handlePairs(req)
	case "capabilities":
		resp = &MapperResponse{ID: req.ID, Ok: true, Result: d.registry.Capabilities()}
	case "health":
		resp = d.handleHealth(ctx, req)
	default:
		return errorResponse(req.ID, "METHOD_NOT_FOUND", fmt.Sprintf("Unknown method: %s", req.Method), false)
	}
	resp.Ver = ver
	return resp
}

func (d *Dispatcher) handleMap(req *MapperRequest) *MapperResponse {
	var params MapParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, "INVALID_ARGUMENT", "Failed to parse map params", false)
	}

	st, dt, resp := d.lookupPair(req.ID, params.Source, params.Destination)
	if resp != nil {
		return resp
	}

	source, err := decodeSource(st, params.Payload)
	if err != nil {
		return errorResponse(req.ID, "INVALID_ARGUMENT",
			fmt.Sprintf("payload is not a valid %s: %v", st, err), false)
	}

	// Each request gets its own scope so Scoped strategies live for one call.
	result, err := d.registry.NewScope().Mapper().MapTo(source, dt)
	if err != nil {
		return mapperErrorToResponse(req.ID, err)
	}
	return &MapperResponse{ID: req.ID, Ok: true, Result: &MapResult{Destination: dt.String(), Value: result}}
}

func (d *Dispatcher) handleResolve(req *MapperRequest) *MapperResponse {
	var params PairParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, "INVALID_ARGUMENT", "Failed to parse resolve params", false)
	}

	st, dt, resp := d.lookupPair(req.ID, params.Source, params.Destination)
	if resp != nil {
		return resp
	}

	strategy, err := d.registry.Cache().Resolve(st, dt)
	if err != nil {
		return mapperErrorToResponse(req.ID, err)
	}
	return &MapperResponse{ID: req.ID, Ok: true, Result: &ResolveResult{
		Key:        strategy.Capability().Key().String(),
		Capability: strategy.Capability().String(),
		Operation:  strategy.Operation().String(),
	}}
}

func (d *Dispatcher) handlePairs(req *MapperRequest) *MapperResponse {
	keys := d.registry.Cache().Keys()
	pairs := make([]PairInfo, len(keys))
	for i, k := range keys {
		pairs[i] = PairInfo{Source: k.Source().String(), Destination: k.Destination().String()}
	}
	return &MapperResponse{ID: req.ID, Ok: true, Result: pairs}
}

func (d *Dispatcher) handleHealth(ctx context.Context, req *MapperRequest) *MapperResponse {
	result := &HealthResult{
		Status:       "ok",
		Service:      d.catalog.Name(),
		Version:      d.catalog.Version(),
		APIVersions:  d.catalog.APIVersions(),
		Majors:       semver.GetUniqueMajors(d.catalog.APIVersions()),
		Pairs:        d.registry.Cache().Len(),
		Capabilities: d.registry.Len(),
	}
	if d.health != nil {
		result.Components = d.health(ctx)
		for _, state := range result.Components {
			if state != "ok" {
				result.Status = "degraded"
			}
		}
	}
	return &MapperResponse{ID: req.ID, Ok: true, Result: result}
}

// --- helpers ---

// lookupPair resolves the named types. A non-nil response reports the failure.
func (d *Dispatcher) lookupPair(id, source, destination string) (reflect.Type, reflect.Type, *MapperResponse) {
	if source == "" || destination == "" {
		return nil, nil, errorResponse(id, "INVALID_ARGUMENT", "source and destination are required", false)
	}
	st, ok := d.registry.TypeByName(d.catalog.ResolveAlias(source))
	if !ok {
		return nil, nil, errorResponse(id, "UNKNOWN_TYPE", fmt.Sprintf("Unknown source type: %s", source), false)
	}
	dt, ok := d.registry.TypeByName(d.catalog.ResolveAlias(destination))
	if !ok {
		return nil, nil, errorResponse(id, "UNKNOWN_TYPE", fmt.Sprintf("Unknown destination type: %s", destination), false)
	}
	return st, dt, nil
}

// decodeSource decodes payload into a new value of type t. An empty or null
// payload yields an absent source.
func decodeSource(t reflect.Type, payload json.RawMessage) (any, error) {
	if len(payload) == 0 || string(payload) == "null" {
		return nil, nil
	}
	ptr := reflect.New(t)
	if err := json.Unmarshal(payload, ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}

func errorResponse(id, code, message string, retryable bool) *MapperResponse {
	return &MapperResponse{
		ID: id,
		Ok: false,
		Error: &ErrorDetail{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	}
}

func mapperErrorToResponse(id string, err error) *MapperResponse {
	var mErr *mapper.MapperError
	if !errors.As(err, &mErr) {
		return errorResponse(id, "INTERNAL_ERROR", err.Error(), true)
	}

	details := map[string]string{}
	if mErr.SourceType != nil {
		details["sourceType"] = mErr.SourceType.String()
	}
	if mErr.DestinationType != nil {
		details["destinationType"] = mErr.DestinationType.String()
	}
	root := innermost(mErr)
	if root.Capability != "" {
		details["capability"] = root.Capability
	}
	if root != mErr {
		details["cause"] = string(root.Kind)
	}

	return &MapperResponse{
		ID: id,
		Ok: false,
		Error: &ErrorDetail{
			Code:    string(mErr.Kind),
			Message: err.Error(),
			Details: details,
		},
	}
}

// innermost returns the deepest MapperError in e's cause chain.
func innermost(e *mapper.MapperError) *mapper.MapperError {
	var next *mapper.MapperError
	for e.Cause != nil && errors.As(e.Cause, &next) {
		e = next
	}
	return e
}
