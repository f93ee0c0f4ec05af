// Package worker loads documents in the background and hands the result
// to the foreground.
//
// A [Coordinator] accepts at most one load at a time. [Coordinator.LoadDocument]
// returns immediately; the object store is filled on its own goroutine and
// the outcome is delivered to a [Consumer] through a [Dispatcher], the
// foreground context of the application:
//
//	q := worker.NewQueue(0)
//	c := worker.New(q, worker.WithLogger(logger))
//	if !c.LoadDocument(viewer, r) {
//	    // another document is still loading
//	}
//	q.RunOne(ctx) // delivers viewer.Update or viewer.LoadFailed
//
// Only the finished store crosses from the background to the foreground.
// Progress goes to the [Progress] indicator created for each load, which
// must do its own marshalling if it touches UI state.
package worker
