package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
)

// interval fires first after an initial delay and then at a fixed period,
// measured from each activation time. cron calls Next from its run loop only.
type interval struct {
	first   time.Duration
	every   time.Duration
	started bool
}

var _ cron.Schedule = (*interval)(nil)

func newInterval(first, every time.Duration) *interval {
	return &interval{first: first, every: every}
}

func (i *interval) Next(t time.Time) time.Time {
	if !i.started {
		i.started = true
		return t.Add(i.first)
	}
	return t.Add(i.every)
}
