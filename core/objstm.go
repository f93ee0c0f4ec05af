package core

import (
	"bytes"
	"fmt"
	"sync"
)

// ObjectStream gives access to the objects packed in a /Type /ObjStm
// stream. The stream is decoded on first use and each object is parsed at
// most once. It is safe for concurrent use.
type ObjectStream struct {
	stream  *Stream
	n       int
	first   int
	extends *IndirectRef

	once    sync.Once
	loadErr error
	data    []byte // decoded stream
	nums    []int  // object number per slot
	starts  []int  // absolute offset of each slot in data
	slotOf  map[int]int

	mu     sync.Mutex
	parsed map[int]Object // slot -> object
}

// NewObjectStream validates the object stream dictionary. /N and /First
// must be non-negative integers and /Extends, when present, a reference.
func NewObjectStream(stream *Stream) (*ObjectStream, error) {
	if stream == nil {
		return nil, fmt.Errorf("object stream: nil stream")
	}
	d := stream.Dict
	if d.TypeName() != "ObjStm" {
		return nil, fmt.Errorf("object stream: /Type is %v, want /ObjStm", d.Get("Type"))
	}
	n, err := nonNegative(d, "N")
	if err != nil {
		return nil, err
	}
	first, err := nonNegative(d, "First")
	if err != nil {
		return nil, err
	}

	s := &ObjectStream{stream: stream, n: n, first: first, parsed: map[int]Object{}}
	if ext := d.Get("Extends"); ext != nil {
		ref, ok := ext.(IndirectRef)
		if !ok {
			return nil, fmt.Errorf("object stream: /Extends is %v, not a reference", ext.Type())
		}
		s.extends = &ref
	}
	return s, nil
}

func nonNegative(d Dict, key string) (int, error) {
	v, ok := d.GetInt(key)
	if !ok {
		return 0, fmt.Errorf("object stream: /%s missing or not an integer", key)
	}
	if v < 0 {
		return 0, fmt.Errorf("object stream: negative /%s %d", key, v)
	}
	return int(v), nil
}

// N returns the number of objects the stream declares.
func (s *ObjectStream) N() int { return s.n }

// First returns the offset of the first object in the decoded data.
func (s *ObjectStream) First() int { return s.first }

// Extends returns the /Extends reference, or nil.
func (s *ObjectStream) Extends() *IndirectRef { return s.extends }

// load decodes the stream and reads the header of N "number offset"
// pairs that precedes /First.
func (s *ObjectStream) load() error {
	s.once.Do(func() {
		data, err := s.stream.Decode()
		if err != nil {
			s.loadErr = fmt.Errorf("object stream: %w", err)
			return
		}
		if s.first > len(data) {
			s.loadErr = fmt.Errorf("object stream: /First %d past end of %d decoded bytes", s.first, len(data))
			return
		}

		header := NewParser(bytes.NewReader(data[:s.first]))
		nums := make([]int, s.n)
		starts := make([]int, s.n)
		slotOf := make(map[int]int, s.n)
		for i := 0; i < s.n; i++ {
			num, err := headerEntry(header)
			if err != nil {
				s.loadErr = fmt.Errorf("object stream header pair %d: %w", i, err)
				return
			}
			off, err := headerEntry(header)
			if err != nil {
				s.loadErr = fmt.Errorf("object stream header pair %d: %w", i, err)
				return
			}
			nums[i], starts[i] = num, s.first+off
			if _, dup := slotOf[num]; !dup {
				slotOf[num] = i
			}
		}
		s.data, s.nums, s.starts, s.slotOf = data, nums, starts, slotOf
	})
	return s.loadErr
}

func headerEntry(p *Parser) (int, error) {
	obj, err := p.ParseObject()
	if err != nil {
		return 0, err
	}
	v, ok := obj.(Int)
	if !ok {
		return 0, fmt.Errorf("%v is not an integer", obj)
	}
	return int(v), nil
}

// GetObjectByIndex returns the object in slot index and its object number.
func (s *ObjectStream) GetObjectByIndex(index int) (Object, int, error) {
	if err := s.load(); err != nil {
		return nil, 0, err
	}
	if index < 0 || index >= len(s.nums) {
		return nil, 0, fmt.Errorf("object stream index %d out of range [0, %d)", index, len(s.nums))
	}
	obj, err := s.slot(index)
	return obj, s.nums[index], err
}

// GetObjectByNumber returns object num and the slot it occupies.
func (s *ObjectStream) GetObjectByNumber(num int) (Object, int, error) {
	if err := s.load(); err != nil {
		return nil, 0, err
	}
	index, ok := s.slotOf[num]
	if !ok {
		return nil, 0, fmt.Errorf("object %d is not in this object stream", num)
	}
	obj, err := s.slot(index)
	return obj, index, err
}

// ObjectNumbers lists the object numbers in slot order.
func (s *ObjectStream) ObjectNumbers() ([]int, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	return append([]int(nil), s.nums...), nil
}

// slot parses the object in slot i, which runs up to the next slot's
// offset or the end of the data.
func (s *ObjectStream) slot(i int) (Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj, ok := s.parsed[i]; ok {
		return obj, nil
	}

	start := s.starts[i]
	if start < 0 || start >= len(s.data) {
		return nil, fmt.Errorf("object stream slot %d: offset %d past end of %d bytes", i, start, len(s.data))
	}
	end := len(s.data)
	if i+1 < len(s.starts) && s.starts[i+1] >= start && s.starts[i+1] <= end {
		end = s.starts[i+1]
	}

	obj, err := NewParser(bytes.NewReader(s.data[start:end])).ParseObject()
	if err != nil {
		return nil, fmt.Errorf("object stream slot %d: %w", i, err)
	}
	s.parsed[i] = obj
	return obj, nil
}
