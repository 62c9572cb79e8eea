// Package scheduler provides admission control for sync job attempts.
//
// Two gates compose around every attempt:
//
//   - [Scheduler.WithConversation] serializes job bodies sharing a
//     conversation id. One exclusivity token exists per conversation;
//     a second caller waits until the first releases. Release happens on
//     every exit path, including panics and context cancellation.
//
//   - [Scheduler.AwaitReady] suspends the caller until the job's
//     NextAttemptAt has passed and every registered [Condition] reports
//     ready (minimally: network reachability). It never busy-polls: it
//     wakes on condition change signals, on a timer armed for the job's
//     retry time, and on a periodic fallback tick so that jobs whose
//     readiness time has passed without any external signal are still
//     picked up.
//
// For conversation-scoped jobs the executor nests AwaitReady inside
// WithConversation; independent jobs use AwaitReady alone. Both waits are
// cooperative: no thread is parked beyond an idle goroutine in a select.
package scheduler
