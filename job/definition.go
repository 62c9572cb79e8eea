package job

import (
	"context"
	"encoding/json"
)

// Definition is a typed sync handler definition.
// T is the payload type (must be JSON-serializable).
type Definition[T any] struct {
	// Command is the request command this handler serves.
	Command string

	// Handler performs the work and classifies its own outcome.
	Handler func(ctx context.Context, payload T) Result
}

// NewDefinition creates a typed handler definition.
func NewDefinition[T any](command string, handler func(ctx context.Context, payload T) Result) *Definition[T] {
	return &Definition[T]{
		Command: command,
		Handler: handler,
	}
}

// RegisterDefinition registers a typed definition. The generic handler is
// wrapped in a closure that JSON-unmarshals the request payload into T
// before calling the typed handler. A payload that fails to decode yields
// a fatal, reported failure without invoking the handler.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func RegisterDefinition[T any](r *Registry, def *Definition[T]) {
	handler := func(ctx context.Context, req Request) Result {
		var t T
		if len(req.Payload) > 0 {
			if err := json.Unmarshal(req.Payload, &t); err != nil {
				return badPayload(def.Command, err)
			}
		}
		return def.Handler(ctx, t)
	}

	r.Register(def.Command, handler)
}
