package schedule

import "github.com/smith3v/tg-daily-companion/pkg/delivery"

// Outcome is the delivery result for one recipient.
type Outcome struct {
	ChatID int64
	Result delivery.Result
}

// Report folds the per-recipient outcomes of one broadcast run.
type Report struct {
	Kind     string
	Outcomes []Outcome
}

func (r Report) Delivered() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Result.Status == delivery.Delivered {
			n++
		}
	}
	return n
}

func (r Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Result.Status == delivery.Failed {
			n++
		}
	}
	return n
}

// Forbidden lists recipients that can no longer be reached.
func (r Report) Forbidden() []int64 {
	var ids []int64
	for _, o := range r.Outcomes {
		if o.Result.Status == delivery.Forbidden {
			ids = append(ids, o.ChatID)
		}
	}
	return ids
}

// ShouldAdvance reports whether the run counts as today's send for its kind.
func (r Report) ShouldAdvance() bool {
	return r.Delivered() > 0
}
