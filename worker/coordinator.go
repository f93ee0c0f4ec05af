package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tsawler/pdfinspect/store"
)

// State is the load state of a Coordinator.
type State int32

const (
	// Idle means no load is in progress and LoadDocument will accept one.
	Idle State = iota
	// Loading means a load is running; LoadDocument rejects new requests.
	Loading
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	default:
		return "unknown"
	}
}

// ErrBusy is the error form of a rejected LoadDocument call, for callers
// that prefer errors over a boolean.
var ErrBusy = errors.New("a document is already loading")

// Consumer receives the outcome of a load on the foreground context.
// Exactly one of the two methods is called per accepted load.
type Consumer interface {
	Update(objects *store.ObjectStore)
	LoadFailed(err error)
}

// Dispatcher runs functions on the foreground context. Post must not run fn
// synchronously on the calling goroutine unless that goroutine is the
// foreground.
type Dispatcher interface {
	Post(fn func())
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(fn func())

// Post calls f(fn).
func (f DispatcherFunc) Post(fn func()) { f(fn) }

// Progress is a progress indicator owned by one load. Close releases it.
type Progress interface {
	store.ProgressSink
	Close()
}

// Coordinator runs document loads in the background, one at a time.
//
// A Coordinator is meant to be created once by the application and passed
// to whatever needs to start loads; it replaces any process-wide flag.
type Coordinator struct {
	state       atomic.Int32
	dispatcher  Dispatcher
	newProgress func(title string) Progress
	logger      *slog.Logger
	storeOpts   []store.Option

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithLogger sets the logger (default: discard).
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithProgress sets the factory for per-load progress indicators.
func WithProgress(newProgress func(title string) Progress) Option {
	return func(c *Coordinator) {
		c.newProgress = newProgress
	}
}

// WithStoreOptions sets the options used for every ObjectStore created.
func WithStoreOptions(opts ...store.Option) Option {
	return func(c *Coordinator) {
		c.storeOpts = opts
	}
}

// New creates a Coordinator that finalizes loads through dispatcher.
func New(dispatcher Dispatcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		dispatcher:  dispatcher,
		newProgress: func(string) Progress { return nopProgress{} },
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current load state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Busy reports whether a load is in progress.
func (c *Coordinator) Busy() bool {
	return c.State() == Loading
}

// LoadDocument starts filling a new ObjectStore from src in the background
// and returns true without waiting. If another load is in progress it
// returns false and does nothing.
//
// When the load ends, target.Update or target.LoadFailed runs on the
// dispatcher, after which the progress indicator is closed and the
// Coordinator becomes Idle again.
func (c *Coordinator) LoadDocument(target Consumer, src store.Source) bool {
	// mu spans the state change so Cancel never sees Loading without a
	// cancel func.
	c.mu.Lock()
	if !c.state.CompareAndSwap(int32(Idle), int32(Loading)) {
		c.mu.Unlock()
		c.logger.Debug("load rejected", "reason", ErrBusy)
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()

	progress := c.newProgress("Reading PDF file")
	go c.run(ctx, cancel, target, src, progress)

	return true
}

// Cancel aborts the load in progress. The consumer then receives
// context.Canceled through LoadFailed. It reports whether a load was
// running.
func (c *Coordinator) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		return false
	}
	c.cancel()
	return true
}

func (c *Coordinator) run(ctx context.Context, cancel context.CancelFunc, target Consumer, src store.Source, progress Progress) {
	start := time.Now()
	objects, err := c.fill(ctx, src, progress)
	c.dispatcher.Post(func() {
		c.finish(target, objects, err, progress, cancel, time.Since(start))
	})
}

// fill builds and fills the store. A panic while reading is turned into
// an error so that finalization still happens.
func (c *Coordinator) fill(ctx context.Context, src store.Source, progress Progress) (objects *store.ObjectStore, err error) {
	defer func() {
		if r := recover(); r != nil {
			objects, err = nil, fmt.Errorf("load panicked: %v", r)
		}
	}()

	objects, err = store.New(src, c.storeOpts...)
	if err != nil {
		progress.SetTotal(0)
		return nil, err
	}
	if err := store.Fill(ctx, objects, progress); err != nil {
		return nil, err
	}
	return objects, nil
}

// finish runs on the foreground. The deferred block clears the busy state
// exactly once, even if the consumer panics.
func (c *Coordinator) finish(target Consumer, objects *store.ObjectStore, err error, progress Progress, cancel context.CancelFunc, elapsed time.Duration) {
	defer func() {
		progress.Close()
		cancel()
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
		c.state.Store(int32(Idle))
	}()

	progress.SetMessage("Updating viewer")

	if err != nil {
		c.logger.Warn("load failed", "error", err, "elapsed", elapsed)
		target.LoadFailed(err)
		return
	}

	c.logger.Info("load finished", "objects", objects.Len(), "elapsed", elapsed)
	target.Update(objects)
}

type nopProgress struct{}

func (nopProgress) SetTotal(int)      {}
func (nopProgress) SetValue(int)      {}
func (nopProgress) SetMessage(string) {}
func (nopProgress) Close()            {}
