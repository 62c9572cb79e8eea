// Package droplog records sync jobs that were terminally dropped with an
// error — fatal handler failures, exhausted retry budgets, and elapsed
// deadlines. The messaging client surfaces these to the user ("message
// failed to send") and can replay them.
//
// The job record itself is always removed from the job store on a terminal
// drop; a drop-log [Entry] is a separate record preserving the request,
// the final error, and the attempt count for inspection.
//
// # Service
//
// [Service] wraps the drop-log store with high-level operations:
//
//	svc := droplog.NewService(store, jobStore)
//
//	// Record is called by the executor on terminal drops.
//	svc.Record(ctx, droppedJob, reason, err)
//
//	// Replay resubmits the original request as a fresh pending job.
//	j, err := svc.Replay(ctx, entryID)
package droplog
