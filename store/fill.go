package store

import "context"

// ProgressSink receives load progress. SetTotal(0) means "not loading".
type ProgressSink interface {
	SetTotal(total int)
	SetValue(value int)
	SetMessage(message string)
}

// Fill stores every remaining object of s, reporting progress to sink.
//
// The sink sees the total first, then one SetValue per stored object, and
// always a final SetTotal(0), whether the load finished, failed, or was
// cancelled through ctx. That final call is the only zero total: an empty
// store reports no total up front. A nil sink is allowed.
func Fill(ctx context.Context, s *ObjectStore, sink ProgressSink) error {
	if sink == nil {
		sink = discardSink{}
	}

	sink.SetMessage("Reading the cross-reference table")
	if total := s.Total(); total > 0 {
		sink.SetTotal(total)
	}
	defer sink.SetTotal(0)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, err := s.StoreNextObject()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		sink.SetValue(s.Current())
	}
}

type discardSink struct{}

func (discardSink) SetTotal(int)      {}
func (discardSink) SetValue(int)      {}
func (discardSink) SetMessage(string) {}
