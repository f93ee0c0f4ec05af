package worker

import "context"

// Queue is a Dispatcher that runs posted functions one after another on
// whichever goroutine calls Run. It stands in for a UI event loop.
type Queue struct {
	tasks chan func()
}

// NewQueue creates a Queue that buffers up to size pending functions
// before Post blocks.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 16
	}
	return &Queue{tasks: make(chan func(), size)}
}

// Post enqueues fn.
func (q *Queue) Post(fn func()) {
	q.tasks <- fn
}

// Run executes posted functions until ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-q.tasks:
			fn()
		}
	}
}

// RunOne waits for a single posted function and executes it.
func (q *Queue) RunOne(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case fn := <-q.tasks:
		fn()
		return nil
	}
}
