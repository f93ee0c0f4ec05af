// Package store holds the indirect objects of a PDF document in memory.
//
// An [ObjectStore] is bound to a [Source] (normally a reader.Reader) and is
// filled one object at a time:
//
//	s, err := store.New(r)
//	if err != nil {
//	    return err
//	}
//	for {
//	    ok, err := s.StoreNextObject()
//	    if err != nil {
//	        return err // errors.Is(err, store.ErrMalformedEntry)
//	    }
//	    if !ok {
//	        break
//	    }
//	}
//
// [Fill] runs the same loop while reporting to a [ProgressSink], and stops
// early when its context is cancelled.
//
// A failed entry aborts the load: the store keeps the error and refuses to
// read further. Callers should discard a store whose load failed.
//
// Once filled, a store is read-only and may be shared. [ObjectStore.Resolve]
// follows indirect references and reports references to objects the store
// does not hold instead of failing.
package store
