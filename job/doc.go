// Package job defines the sync job entity, its state machine, typed
// handler definitions, and the store interface.
//
// # Job Entity
//
// A [Job] represents a persisted unit of sync work. It embeds
// [syncengine.Entity] for timestamps, carries a [Request] describing the
// work, and progresses through a state machine:
//
//	pending → syncing → (removed on success)
//	pending → syncing → failed → syncing → ...
//	pending → syncing → (removed on fatal failure or exhaustion)
//
// A job record exists in the store exactly from creation until its
// terminal removal; "done" is implicit in removal.
//
// Fields of note:
//   - Request: the work to perform; a non-empty ConversationID makes the
//     job conversation-scoped (serialized per conversation)
//   - Attempts: incremented before each execution attempt
//   - NextAttemptAt: earliest time the job may next execute; doubles as
//     the backoff-computed retry time
//   - Deadline: absolute wall-clock deadline (zero = none)
//   - Optional: if true and the deadline has elapsed before execution,
//     the job is silently discarded rather than executed
//   - Offline: whether the job was last attempted while offline
//
// # Defining a Handler
//
// Use [Definition] with a typed handler. The request payload is
// JSON-deserialized before the handler runs:
//
//	var SendMessage = job.NewDefinition("send_message",
//	    func(ctx context.Context, input SendInput) job.Result {
//	        if err := backend.Send(ctx, input); err != nil {
//	            return job.Retry(err)
//	        }
//	        return job.Success()
//	    },
//	)
//
// # Registry
//
// [Registry] maps request commands to type-erased [HandlerFunc] values.
// Register definitions at startup via [RegisterDefinition]. Handlers are
// resolved at execution time, so registration order relative to engine
// construction does not matter.
package job
