// Package audithook is a syncengine extension that bridges job lifecycle
// events to an immutable audit trail backend.
//
// Every lifecycle hook emits a structured audit event through the
// [Recorder] interface. The extension assigns appropriate severity levels
// (info for normal operations, warning for retries, critical for terminal
// drops) and rich metadata (command, conversation, attempts, errors).
//
// # Usage
//
//	audithook.New(audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
//	    return trail.Write(ctx, evt.Action, evt.ResourceID, evt.Metadata)
//	}))
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionJobDropped,
//	        audithook.ActionJobRetrying,
//	    ),
//	)
package audithook
