package store

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/pdfinspect/core"
	"github.com/tsawler/pdfinspect/internal/pdftest"
	"github.com/tsawler/pdfinspect/reader"
)

// fakeSource serves objects from a map and fails on the numbers in bad.
type fakeSource struct {
	numbers []int
	objects map[int]core.Object
	bad     map[int]error
	reads   map[int]int
	trailer core.Dict
}

func newFakeSource(n int) *fakeSource {
	src := &fakeSource{
		objects: make(map[int]core.Object),
		bad:     make(map[int]error),
		reads:   make(map[int]int),
	}
	for i := 1; i <= n; i++ {
		src.numbers = append(src.numbers, i)
		src.objects[i] = core.Int(i * 10)
	}
	return src
}

func (f *fakeSource) ObjectNumbers() []int { return f.numbers }

func (f *fakeSource) ReadObject(num int) (core.Object, error) {
	f.reads[num]++
	if err, ok := f.bad[num]; ok {
		return nil, err
	}
	return f.objects[num], nil
}

type trailerFake struct{ *fakeSource }

func (t trailerFake) Trailer() core.Dict { return t.trailer }

// recordingSink records every progress call in order.
type recordingSink struct {
	totals   []int
	values   []int
	messages []string
	calls    []string
}

func (r *recordingSink) SetTotal(total int) {
	r.totals = append(r.totals, total)
	r.calls = append(r.calls, "total")
}

func (r *recordingSink) SetValue(value int) {
	r.values = append(r.values, value)
	r.calls = append(r.calls, "value")
}

func (r *recordingSink) SetMessage(message string) {
	r.messages = append(r.messages, message)
	r.calls = append(r.calls, "message")
}

func newStore(t *testing.T, src Source, opts ...Option) *ObjectStore {
	t.Helper()
	s, err := New(src, opts...)
	require.NoError(t, err)
	return s
}

func TestStoreNextObjectExhaustion(t *testing.T) {
	src := newFakeSource(5)
	s := newStore(t, src)
	assert.Equal(t, 5, s.Total())

	stored := 0
	for {
		ok, err := s.StoreNextObject()
		require.NoError(t, err)
		if !ok {
			break
		}
		stored++
		assert.Equal(t, stored, s.Current())
	}

	assert.Equal(t, 5, stored)
	assert.True(t, s.Done())
	assert.Equal(t, 5, s.Len())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, s.Numbers())
	for num, n := range src.reads {
		assert.Equal(t, 1, n, "object %d read more than once", num)
	}

	ok, err := s.StoreNextObject()
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestStoreDeduplicatesNumbers(t *testing.T) {
	src := newFakeSource(3)
	src.numbers = []int{3, 1, 2, 3, -1, 1}
	s := newStore(t, src)

	assert.Equal(t, 3, s.Total())
	require.NoError(t, Fill(context.Background(), s, nil))
	assert.Equal(t, 3, s.Current())
}

func TestStoreNilObjectBecomesNull(t *testing.T) {
	src := newFakeSource(1)
	src.objects[1] = nil
	s := newStore(t, src)

	ok, err := s.StoreNextObject()
	require.NoError(t, err)
	require.True(t, ok)

	obj, found := s.Get(1)
	require.True(t, found)
	assert.Equal(t, core.Null{}, obj)
}

func TestStoreStickyError(t *testing.T) {
	src := newFakeSource(4)
	cause := errors.New("bad offset")
	src.bad[3] = cause
	s := newStore(t, src)

	var err error
	for i := 0; i < 3; i++ {
		_, err = s.StoreNextObject()
	}
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedEntry)
	assert.ErrorIs(t, err, cause)

	var entryErr *EntryError
	require.ErrorAs(t, err, &entryErr)
	assert.Equal(t, 3, entryErr.Number)

	ok, again := s.StoreNextObject()
	assert.False(t, ok)
	assert.Same(t, entryErr, again)
	assert.Equal(t, 1, src.reads[3], "failed entry must not be re-read")
	assert.Zero(t, src.reads[4])
	assert.Equal(t, 2, s.Current())
	assert.False(t, s.Done())
	assert.Equal(t, err, s.Err())
}

func TestStoreResolve(t *testing.T) {
	s := newStore(t, newFakeSource(2))
	require.NoError(t, Fill(context.Background(), s, nil))

	obj, ok := s.Resolve(core.IndirectRef{Number: 2})
	assert.True(t, ok)
	assert.Equal(t, core.Int(20), obj)

	obj, ok = s.Resolve(core.Name("Direct"))
	assert.True(t, ok)
	assert.Equal(t, core.Name("Direct"), obj)

	_, ok = s.Resolve(core.IndirectRef{Number: 9})
	assert.False(t, ok)
}

func TestStoreTrailer(t *testing.T) {
	assert.Nil(t, newStore(t, newFakeSource(1)).Trailer())

	src := newFakeSource(1)
	src.trailer = core.Dict{"Root": core.IndirectRef{Number: 1}}
	s := newStore(t, trailerFake{src})
	assert.Equal(t, src.trailer, s.Trailer())
}

func TestStoreInvalidCacheSize(t *testing.T) {
	_, err := New(newFakeSource(1), WithStreamCacheSize(0))
	assert.Error(t, err)
}

func TestDecodedStream(t *testing.T) {
	src := newFakeSource(2)
	src.objects[2] = &core.Stream{
		Dict: core.Dict{"Filter": core.Name("ASCIIHexDecode")},
		Data: []byte("48656C6C6F>"),
	}
	s := newStore(t, src, WithStreamCacheSize(1))
	require.NoError(t, Fill(context.Background(), s, nil))

	data, err := s.DecodedStream(2)
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(data))

	again, err := s.DecodedStream(2)
	require.NoError(t, err)
	assert.Same(t, &data[0], &again[0], "second call should hit the cache")

	stored, _ := s.Get(2)
	assert.Equal(t, "48656C6C6F>", string(stored.(*core.Stream).Data), "stored stream must not change")

	_, err = s.DecodedStream(1)
	assert.Error(t, err)
	_, err = s.DecodedStream(7)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestFillProgress(t *testing.T) {
	s := newStore(t, newFakeSource(4))
	sink := &recordingSink{}

	require.NoError(t, Fill(context.Background(), s, sink))

	assert.Equal(t, []string{"Reading the cross-reference table"}, sink.messages)
	assert.Equal(t, []int{4, 0}, sink.totals)
	assert.Equal(t, []int{1, 2, 3, 4}, sink.values)
	assert.Equal(t, "total", sink.calls[len(sink.calls)-1])
}

func TestFillEmptyStoreReportsZeroOnce(t *testing.T) {
	s := newStore(t, newFakeSource(0))
	sink := &recordingSink{}

	require.NoError(t, Fill(context.Background(), s, sink))

	assert.Equal(t, []int{0}, sink.totals)
	assert.Empty(t, sink.values)
	assert.Equal(t, []string{"message", "total"}, sink.calls)
}

func TestFillFailureReportsZeroTotal(t *testing.T) {
	src := newFakeSource(4)
	src.bad[2] = errors.New("truncated")
	s := newStore(t, src)
	sink := &recordingSink{}

	err := Fill(context.Background(), s, sink)
	assert.ErrorIs(t, err, ErrMalformedEntry)
	assert.Equal(t, []int{4, 0}, sink.totals)
	assert.Equal(t, []int{1}, sink.values)
	assert.Equal(t, "total", sink.calls[len(sink.calls)-1])
}

func TestFillCancelled(t *testing.T) {
	s := newStore(t, newFakeSource(100))
	sink := &recordingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Fill(ctx, s, sink)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, s.Current())
	assert.Equal(t, []int{100, 0}, sink.totals)

	// A later fill picks up where the cancelled one stopped
	require.NoError(t, Fill(context.Background(), s, nil))
	assert.True(t, s.Done())
}

func TestFillFromReader(t *testing.T) {
	data := pdftest.Minimal().Bytes("/Root 1 0 R")
	r, err := reader.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	s := newStore(t, r)
	require.NoError(t, Fill(context.Background(), s, nil))

	assert.Equal(t, []int{1, 2, 3, 4}, s.Numbers())
	root, ok := s.Trailer().GetIndirectRef("Root")
	require.True(t, ok)
	catalog, ok := s.Get(root.Number)
	require.True(t, ok)
	assert.Equal(t, "Catalog", catalog.(core.Dict).TypeName())

	content, err := s.DecodedStream(4)
	require.NoError(t, err)
	assert.Equal(t, "BT /F1 12 Tf (Hello) Tj ET", string(content))
}
