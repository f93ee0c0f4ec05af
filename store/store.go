package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tsawler/pdfinspect/core"
)

// DefaultStreamCacheSize is the number of decoded streams kept in memory.
const DefaultStreamCacheSize = 64

// ErrMalformedEntry marks a cross-reference entry whose object could not be
// read. It is fatal to the load that hit it.
var ErrMalformedEntry = errors.New("malformed cross-reference entry")

// EntryError reports which object failed to load and why.
type EntryError struct {
	Number int
	Err    error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("object %d: %v", e.Number, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

// Is makes every EntryError match ErrMalformedEntry.
func (e *EntryError) Is(target error) bool { return target == ErrMalformedEntry }

// Source is the capability an ObjectStore is filled from. reader.Reader
// implements it.
type Source interface {
	// ObjectNumbers lists the in-use entries of the cross-reference table.
	ObjectNumbers() []int
	// ReadObject parses one indirect object.
	ReadObject(num int) (core.Object, error)
}

// trailerSource is implemented by sources that know their trailer.
type trailerSource interface {
	Trailer() core.Dict
}

// ObjectStore maps object numbers to the objects read from a Source.
//
// The store is filled one object at a time with StoreNextObject. Stored
// objects are never replaced. Only one goroutine may fill a store; Current
// may be read from any goroutine while that happens.
type ObjectStore struct {
	src     Source
	numbers []int // entries to read, ascending, deduplicated
	next    int   // index into numbers of the next entry to read

	objects map[int]core.Object
	current atomic.Int64
	err     error // sticky load failure

	streamsMu sync.Mutex
	streams   *lru.Cache[int, []byte]
}

// Option configures an ObjectStore
type Option func(*options)

type options struct {
	streamCacheSize int
}

// WithStreamCacheSize sets how many decoded streams DecodedStream keeps
// (default DefaultStreamCacheSize).
func WithStreamCacheSize(n int) Option {
	return func(o *options) {
		o.streamCacheSize = n
	}
}

// New creates an empty store bound to src.
func New(src Source, opts ...Option) (*ObjectStore, error) {
	o := options{streamCacheSize: DefaultStreamCacheSize}
	for _, opt := range opts {
		opt(&o)
	}

	cache, err := lru.New[int, []byte](o.streamCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream cache: %w", err)
	}

	return &ObjectStore{
		src:     src,
		numbers: uniqueSorted(src.ObjectNumbers()),
		objects: make(map[int]core.Object),
		streams: cache,
	}, nil
}

// Total returns the number of cross-reference entries the store will read.
func (s *ObjectStore) Total() int {
	return len(s.numbers)
}

// Current returns how many objects have been stored so far.
func (s *ObjectStore) Current() int {
	return int(s.current.Load())
}

// Err returns the error that stopped the load, if any.
func (s *ObjectStore) Err() error {
	return s.err
}

// StoreNextObject reads and stores exactly one entry that has not been
// stored yet. It returns false once every entry is stored.
//
// A read failure returns an *EntryError matching ErrMalformedEntry. The
// store keeps that error and returns it from every later call without
// reading anything again.
func (s *ObjectStore) StoreNextObject() (bool, error) {
	if s.err != nil {
		return false, s.err
	}

	for s.next < len(s.numbers) {
		num := s.numbers[s.next]
		s.next++
		if _, ok := s.objects[num]; ok {
			continue
		}

		obj, err := s.src.ReadObject(num)
		if err != nil {
			s.err = &EntryError{Number: num, Err: err}
			return false, s.err
		}
		if obj == nil {
			obj = core.Null{}
		}

		s.objects[num] = obj
		s.current.Add(1)
		return true, nil
	}

	return false, nil
}

// Done reports whether every entry has been stored.
func (s *ObjectStore) Done() bool {
	return s.err == nil && s.next >= len(s.numbers)
}

// Get returns the stored object with the given number.
func (s *ObjectStore) Get(num int) (core.Object, bool) {
	obj, ok := s.objects[num]
	return obj, ok
}

// Resolve follows obj if it is an indirect reference. Direct objects are
// returned unchanged. The boolean is false when the reference points to an
// object that is not in the store.
func (s *ObjectStore) Resolve(obj core.Object) (core.Object, bool) {
	ref, ok := obj.(core.IndirectRef)
	if !ok {
		return obj, true
	}
	return s.Get(ref.Number)
}

// Len returns the number of stored objects.
func (s *ObjectStore) Len() int {
	return len(s.objects)
}

// Numbers returns the numbers of the stored objects in ascending order.
func (s *ObjectStore) Numbers() []int {
	nums := make([]int, 0, len(s.objects))
	for num := range s.objects {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	return nums
}

// Trailer returns the trailer dictionary of the source, or nil when the
// source does not provide one.
func (s *ObjectStore) Trailer() core.Dict {
	if ts, ok := s.src.(trailerSource); ok {
		return ts.Trailer()
	}
	return nil
}

// DecodedStream returns the decoded data of the stream object num. Results
// are cached; the stored object itself is left untouched.
func (s *ObjectStore) DecodedStream(num int) ([]byte, error) {
	if data, ok := s.streams.Get(num); ok {
		return data, nil
	}

	obj, ok := s.Get(num)
	if !ok {
		return nil, fmt.Errorf("object %d: %w", num, core.ErrNotFound)
	}
	stream, ok := obj.(*core.Stream)
	if !ok {
		return nil, fmt.Errorf("object %d is a %s, not a stream", num, obj.Type())
	}

	s.streamsMu.Lock()
	defer s.streamsMu.Unlock()

	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode stream %d: %w", num, err)
	}
	s.streams.Add(num, data)
	return data, nil
}

func uniqueSorted(nums []int) []int {
	out := append([]int(nil), nums...)
	sort.Ints(out)
	n := 0
	for i, num := range out {
		if num < 0 || (i > 0 && num == out[i-1]) {
			continue
		}
		out[n] = num
		n++
	}
	return out[:n]
}
