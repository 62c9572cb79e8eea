// Package engine wires all syncengine subsystems together and provides
// the primary application-level API for registering handlers and
// submitting sync jobs.
//
// The engine package exists to break a fundamental import cycle: the root
// syncengine package defines Entity and Config (imported by job, droplog,
// etc.) and therefore cannot import those packages back. Engine sits above
// all subsystem packages and below the application layer.
//
// # Building an Engine
//
//	st := memory.New()
//
//	eng, err := engine.New(st,
//	    engine.WithNetwork(probe),
//	    engine.WithExtension(myExtension),
//	    engine.WithMiddleware(myMiddleware),
//	    engine.WithMaxAttempts(10),
//	)
//
// # Registering Handlers
//
//	engine.Register(eng, job.NewDefinition("send_message",
//	    func(ctx context.Context, p SendMessage) job.Result {
//	        if err := client.Send(ctx, p); err != nil {
//	            return job.Retry(err)
//	        }
//	        return job.Success()
//	    },
//	))
//
// # Submitting Work
//
//	j, err := engine.Submit(ctx, eng, "send_message",
//	    SendMessage{ConversationID: "conv-1", Body: "hi"},
//	    job.WithConversation("conv-1"),
//	)
//
// Each submitted job is driven in the background: waiting for network
// readiness and its scheduled retry time, holding its conversation's
// exclusivity token, retrying with backoff, and finally being removed on
// success or recorded in the drop log on terminal failure.
//
// # Crash Recovery
//
//	if err := eng.Resume(ctx); err != nil { ... }
//
// Resume re-drives every persisted job, picking up work interrupted by a
// previous shutdown or crash.
package engine
