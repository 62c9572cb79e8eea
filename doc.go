// Package syncengine provides the job-execution core of an offline-capable
// messaging client's synchronization subsystem. Durable sync jobs (send a
// message, fetch conversation state, upload an asset) are driven to
// completion with retry, bounded exponential backoff, per-conversation
// serialized execution, and fatal/transient failure classification.
//
// Syncengine is designed as a library, not a service. Import it, configure
// a store, register handlers for your request commands, and submit jobs as
// ordinary Go functions.
//
// # Architecture
//
// The engine invokes opaque handlers and interprets only their Result. The
// scheduler gates each attempt on per-conversation exclusivity and on
// preconditions (scheduled retry time, network reachability); the executor
// classifies handler results and updates or retires the persisted job
// record through the store's atomic update contract. Failures never escape
// the executor — the returned Result is the sole signal to the caller.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package syncengine
