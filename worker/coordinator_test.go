package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/pdfinspect/core"
	"github.com/tsawler/pdfinspect/store"
)

// blockingSource serves n integers. Reads wait on gate when it is set.
type blockingSource struct {
	n      int
	gate   chan struct{}
	failAt int
	panic  bool
}

func (b *blockingSource) ObjectNumbers() []int {
	nums := make([]int, b.n)
	for i := range nums {
		nums[i] = i + 1
	}
	return nums
}

func (b *blockingSource) ReadObject(num int) (core.Object, error) {
	if b.gate != nil {
		<-b.gate
	}
	if b.panic {
		panic("corrupt input")
	}
	if num == b.failAt {
		return nil, errors.New("broken entry")
	}
	return core.Int(num), nil
}

type recordingConsumer struct {
	mu      sync.Mutex
	updates []*store.ObjectStore
	errs    []error
	onCall  func()
}

func (r *recordingConsumer) Update(objects *store.ObjectStore) {
	r.mu.Lock()
	r.updates = append(r.updates, objects)
	r.mu.Unlock()
	if r.onCall != nil {
		r.onCall()
	}
}

func (r *recordingConsumer) LoadFailed(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	if r.onCall != nil {
		r.onCall()
	}
}

type recordingProgress struct {
	mu       sync.Mutex
	title    string
	messages []string
	totals   []int
	closed   int
}

func (p *recordingProgress) SetTotal(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.totals = append(p.totals, total)
}

func (p *recordingProgress) SetValue(int) {}

func (p *recordingProgress) SetMessage(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, message)
}

func (p *recordingProgress) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
}

func runFinalization(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.RunOne(ctx))
}

func TestLoadDocumentSuccess(t *testing.T) {
	q := NewQueue(1)
	progress := &recordingProgress{}
	c := New(q, WithProgress(func(title string) Progress {
		progress.title = title
		return progress
	}))
	consumer := &recordingConsumer{}

	require.True(t, c.LoadDocument(consumer, &blockingSource{n: 3}))
	assert.True(t, c.Busy())

	runFinalization(t, q)

	assert.False(t, c.Busy())
	assert.Equal(t, Idle, c.State())
	require.Len(t, consumer.updates, 1)
	assert.Empty(t, consumer.errs)
	assert.Equal(t, 3, consumer.updates[0].Len())

	assert.Equal(t, "Reading PDF file", progress.title)
	assert.Equal(t, []string{"Reading the cross-reference table", "Updating viewer"}, progress.messages)
	assert.Equal(t, []int{3, 0}, progress.totals)
	assert.Equal(t, 1, progress.closed)
}

func TestLoadDocumentSingleFlight(t *testing.T) {
	q := NewQueue(1)
	c := New(q)
	gate := make(chan struct{})
	first := &recordingConsumer{}
	second := &recordingConsumer{}

	require.True(t, c.LoadDocument(first, &blockingSource{n: 2, gate: gate}))
	assert.False(t, c.LoadDocument(second, &blockingSource{n: 1}))
	assert.Equal(t, Loading, c.State())

	close(gate)
	runFinalization(t, q)

	assert.Len(t, first.updates, 1)
	assert.Empty(t, second.updates)
	assert.Empty(t, second.errs)

	// Idle again: a new load is accepted
	require.True(t, c.LoadDocument(second, &blockingSource{n: 1}))
	runFinalization(t, q)
	assert.Len(t, second.updates, 1)
}

func TestLoadDocumentConcurrentCallers(t *testing.T) {
	q := NewQueue(1)
	c := New(q)
	gate := make(chan struct{})

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.LoadDocument(&recordingConsumer{}, &blockingSource{n: 1, gate: gate}) {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, accepted)

	close(gate)
	runFinalization(t, q)
	assert.False(t, c.Busy())
}

func TestLoadDocumentFailureClearsBusy(t *testing.T) {
	q := NewQueue(1)
	progress := &recordingProgress{}
	c := New(q, WithProgress(func(string) Progress { return progress }))
	consumer := &recordingConsumer{}

	require.True(t, c.LoadDocument(consumer, &blockingSource{n: 3, failAt: 2}))
	runFinalization(t, q)

	assert.False(t, c.Busy())
	assert.Empty(t, consumer.updates)
	require.Len(t, consumer.errs, 1)
	assert.ErrorIs(t, consumer.errs[0], store.ErrMalformedEntry)
	assert.Equal(t, []int{3, 0}, progress.totals)
	assert.Equal(t, 1, progress.closed)
}

func TestLoadDocumentPanicInReader(t *testing.T) {
	q := NewQueue(1)
	c := New(q)
	consumer := &recordingConsumer{}

	require.True(t, c.LoadDocument(consumer, &blockingSource{n: 1, panic: true}))
	runFinalization(t, q)

	require.Len(t, consumer.errs, 1)
	assert.Contains(t, consumer.errs[0].Error(), "corrupt input")
	assert.False(t, c.Busy())
}

func TestConsumerPanicClearsBusy(t *testing.T) {
	q := NewQueue(1)
	progress := &recordingProgress{}
	c := New(q, WithProgress(func(string) Progress { return progress }))
	consumer := &recordingConsumer{onCall: func() { panic("viewer crashed") }}

	require.True(t, c.LoadDocument(consumer, &blockingSource{n: 1}))
	assert.Panics(t, func() { runFinalization(t, q) })

	assert.False(t, c.Busy())
	assert.Equal(t, 1, progress.closed)
}

func TestCancel(t *testing.T) {
	q := NewQueue(1)
	c := New(q)
	gate := make(chan struct{})
	consumer := &recordingConsumer{}

	assert.False(t, c.Cancel(), "nothing to cancel")

	require.True(t, c.LoadDocument(consumer, &blockingSource{n: 50, gate: gate}))
	assert.True(t, c.Cancel())

	// Let the blocked read finish; the next context check stops the fill
	close(gate)
	runFinalization(t, q)

	require.Len(t, consumer.errs, 1)
	assert.ErrorIs(t, consumer.errs[0], context.Canceled)
	assert.False(t, c.Busy())
	assert.False(t, c.Cancel())
}

func TestCancelAsSoonAsBusy(t *testing.T) {
	for i := 0; i < 50; i++ {
		q := NewQueue(1)
		c := New(q)
		gate := make(chan struct{})

		cancelled := make(chan bool)
		go func() {
			for !c.Busy() {
				runtime.Gosched()
			}
			cancelled <- c.Cancel()
		}()

		require.True(t, c.LoadDocument(&recordingConsumer{}, &blockingSource{n: 1, gate: gate}))
		assert.True(t, <-cancelled, "Cancel missed a load that was already Loading")

		close(gate)
		runFinalization(t, q)
	}
}

func TestWithStoreOptions(t *testing.T) {
	q := NewQueue(1)
	c := New(q, WithStoreOptions(store.WithStreamCacheSize(0)))
	consumer := &recordingConsumer{}

	require.True(t, c.LoadDocument(consumer, &blockingSource{n: 1}))
	runFinalization(t, q)

	require.Len(t, consumer.errs, 1)
	assert.False(t, c.Busy())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "unknown", State(7).String())
}
