package job

import (
	"context"
	"fmt"
	"sync"
)

// HandlerFunc is a type-erased sync handler. It performs the work the
// request describes and reports the outcome as a Result. It may take
// arbitrary time; the engine observes but never cancels it.
type HandlerFunc func(ctx context.Context, req Request) Result

// Registry maps request commands to type-erased handler functions.
// It is safe for concurrent use. Handlers are looked up at execution
// time, not at engine construction, so registration order is free.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFunc),
	}
}

// Register registers a raw handler for a command, replacing any previous
// registration. Most callers should use RegisterDefinition instead.
func (r *Registry) Register(command string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[command] = h
}

// Get returns the handler for the given command.
// Returns false if no handler is registered.
func (r *Registry) Get(command string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[command]
	return h, ok
}

// Commands returns all registered command names.
func (r *Registry) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	commands := make([]string, 0, len(r.handlers))
	for command := range r.handlers {
		commands = append(commands, command)
	}
	return commands
}

// badPayload is returned when a request payload cannot be decoded into the
// handler's input type. Malformed payloads do not improve with retry.
func badPayload(command string, err error) Result {
	return Fatal(fmt.Errorf("unmarshal payload for command %q: %w", command, err)).WithReport()
}
